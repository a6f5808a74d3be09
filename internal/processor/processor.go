package processor

import (
	"strings"

	"github.com/LJTian/NewsMailer/internal/collector"
)

const (
	DefaultTitle = "No title"
	DefaultLink  = "#"

	flatDelimiter = " - "
)

// Article 归一化后的标准结构，Title/Link 始终非空
type Article struct {
	Title string
	Link  string
}

// SimpleProcessor 把原始记录逐条转换成 Article：不去重、不过滤、不排序
type SimpleProcessor struct{}

func NewSimpleProcessor() *SimpleProcessor {
	return &SimpleProcessor{}
}

// Process 输入输出一一对应，顺序不变
func (p *SimpleProcessor) Process(records []collector.RawRecord) []Article {
	out := make([]Article, 0, len(records))
	for _, r := range records {
		out = append(out, Normalize(r))
	}
	return out
}

// Normalize 按记录形态分派；任何异常形态都回落到默认值，绝不丢弃记录
func Normalize(r collector.RawRecord) Article {
	switch r.Kind {
	case collector.KindStructured:
		return Article{
			Title: orDefault(r.Title, DefaultTitle),
			Link:  orDefault(r.URL, DefaultLink),
		}
	case collector.KindFlat:
		return parseFlat(r.Text)
	default:
		return Article{Title: DefaultTitle, Link: DefaultLink}
	}
}

// parseFlat 解析 "<title> - <link>"；第三段及以后忽略
func parseFlat(text string) Article {
	a := Article{Title: DefaultTitle, Link: DefaultLink}

	parts := strings.Split(text, flatDelimiter)
	if len(parts) > 0 && parts[0] != "" {
		a.Title = parts[0]
	}
	if len(parts) > 1 && parts[1] != "" {
		a.Link = parts[1]
	}
	return a
}

func orDefault(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}
