package processor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEmpty(t *testing.T) {
	assert.Equal(t, "", Render(nil))
	assert.Equal(t, "", Render([]Article{}))
}

func TestRenderSingleBlockExact(t *testing.T) {
	got := Render([]Article{{Title: "Solo Headline", Link: "#"}})
	want := "<div class=\"news-item\">\n" +
		"    <p>Solo Headline</p>\n" +
		"    <p><a href=\"#\"></a></p>\n" +
		"</div>"
	assert.Equal(t, want, got)
}

func TestRenderOrderAndSeparator(t *testing.T) {
	articles := []Article{
		{Title: "A", Link: "http://a"},
		{Title: "B", Link: "http://b"},
	}
	out := Render(articles)

	blocks := strings.Split(out, "\n\n")
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0], "<p>A</p>")
	assert.Contains(t, blocks[1], "<p>B</p>")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)

	items := doc.Find("div.news-item")
	require.Equal(t, 2, items.Length())

	var hrefs, labels []string
	items.Each(func(_ int, s *goquery.Selection) {
		a := s.Find("a")
		href, _ := a.Attr("href")
		hrefs = append(hrefs, href)
		labels = append(labels, a.Text())
	})
	assert.Equal(t, []string{"http://a", "http://b"}, hrefs)
	// 链接文本保持为空
	assert.Equal(t, []string{"", ""}, labels)
}

func TestRenderDeterministicAndPermutes(t *testing.T) {
	a := Article{Title: "A", Link: "http://a"}
	b := Article{Title: "B", Link: "http://b"}
	c := Article{Title: "C", Link: "http://c"}

	first := Render([]Article{a, b, c})
	assert.Equal(t, first, Render([]Article{a, b, c}))

	permuted := Render([]Article{c, a, b})
	fb := strings.Split(first, blockSeparator)
	pb := strings.Split(permuted, blockSeparator)
	assert.Equal(t, []string{fb[2], fb[0], fb[1]}, pb)
}

func TestRenderEscapesTitle(t *testing.T) {
	out := Render([]Article{{Title: "Tom & Jerry <live>", Link: "http://x?a=1&b=2"}})
	assert.Contains(t, out, "<p>Tom &amp; Jerry &lt;live&gt;</p>")
	assert.Contains(t, out, `href="http://x?a=1&amp;b=2"`)
}
