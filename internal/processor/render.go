package processor

import (
	"html/template"
	"strings"
)

// 注意：a 标签的可见文本保持为空，与现有邮件模板一致
var itemTmpl = template.Must(template.New("news-item").Parse(
	`<div class="news-item">
    <p>{{.Title}}</p>
    <p><a href="{{.Link}}"></a></p>
</div>`))

const blockSeparator = "\n\n"

// Render 将文章列表渲染为 HTML 片段，块之间以一个空行分隔。
// 纯函数：相同输入得到逐字节相同的输出；空列表返回空串。
func Render(articles []Article) string {
	if len(articles) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(articles))
	var sb strings.Builder
	for _, a := range articles {
		sb.Reset()
		// 模板是静态的，字段都是 string，这里不会出错
		_ = itemTmpl.Execute(&sb, a)
		blocks = append(blocks, sb.String())
	}
	return strings.Join(blocks, blockSeparator)
}
