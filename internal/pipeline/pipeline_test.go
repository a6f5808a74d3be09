package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/NewsMailer/internal/collector"
	"github.com/LJTian/NewsMailer/internal/notifier"
	"github.com/LJTian/NewsMailer/internal/processor"
)

type stubFetcher struct {
	records []collector.RawRecord
	err     error
	calls   int
}

func (s *stubFetcher) Name() string { return "stub" }

func (s *stubFetcher) Fetch(context.Context) ([]collector.RawRecord, error) {
	s.calls++
	return s.records, s.err
}

type memSender struct {
	sent []notifier.Payload
	err  error
}

func (m *memSender) Send(_ context.Context, p notifier.Payload) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, p)
	return nil
}

func newPipeline(f collector.Fetcher, s notifier.Sender) *Pipeline {
	return New(f, processor.NewSimpleProcessor(), notifier.New("reader@example.com", s))
}

func newsItems(t *testing.T, body string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc.Find("div.content div.news-item")
}

func TestRunTwoStructuredRecords(t *testing.T) {
	f := &stubFetcher{records: []collector.RawRecord{
		collector.Structured("A", "http://a"),
		collector.Structured("B", "http://b"),
	}}
	s := &memSender{}

	res, err := newPipeline(f, s).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Equal(t, 2, res.Records)
	assert.Equal(t, 2, res.Articles)

	require.Len(t, s.sent, 1)
	items := newsItems(t, s.sent[0].Body)
	require.Equal(t, 2, items.Length())
	assert.Equal(t, "A", items.Eq(0).Find("p").First().Text())
	assert.Equal(t, "B", items.Eq(1).Find("p").First().Text())
	href, _ := items.Eq(1).Find("a").Attr("href")
	assert.Equal(t, "http://b", href)
}

func TestRunFlatRecordWithoutDelimiter(t *testing.T) {
	f := &stubFetcher{records: []collector.RawRecord{collector.Flat("Solo Headline")}}
	s := &memSender{}

	_, err := newPipeline(f, s).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, s.sent, 1)
	items := newsItems(t, s.sent[0].Body)
	require.Equal(t, 1, items.Length())
	assert.Equal(t, "Solo Headline", items.Find("p").First().Text())
	href, _ := items.Find("a").Attr("href")
	assert.Equal(t, "#", href)
}

func TestRunExtractionFailureSendsNothing(t *testing.T) {
	f := &stubFetcher{err: &collector.ExtractionError{Source: "stub", Err: errors.New("boom")}}
	s := &memSender{}

	res, err := newPipeline(f, s).Run(context.Background())

	var xerr *collector.ExtractionError
	require.True(t, errors.As(err, &xerr))
	assert.False(t, res.Sent)
	assert.Empty(t, s.sent)
}

func TestRunDeliveryFailure(t *testing.T) {
	f := &stubFetcher{records: []collector.RawRecord{collector.Structured("A", "http://a")}}
	s := &memSender{err: errors.New("auth failed")}

	res, err := newPipeline(f, s).Run(context.Background())

	var derr *notifier.DeliveryError
	require.True(t, errors.As(err, &derr))
	assert.False(t, res.Sent)
	assert.Equal(t, 1, res.Articles)
}

func TestRunTwiceSendsTwoIdenticalMails(t *testing.T) {
	f := &stubFetcher{records: []collector.RawRecord{
		collector.Structured("A", "http://a"),
		collector.Flat("B - http://b"),
	}}
	s := &memSender{}
	p := newPipeline(f, s)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, s.sent, 2)
	assert.Equal(t, s.sent[0], s.sent[1])
	assert.Equal(t, 2, f.calls)
}

func TestRunEmptyCollectionStillSends(t *testing.T) {
	f := &stubFetcher{records: []collector.RawRecord{}}
	s := &memSender{}

	res, err := newPipeline(f, s).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Sent)
	require.Len(t, s.sent, 1)
	assert.Equal(t, 0, newsItems(t, s.sent[0].Body).Length())
}

func TestPreviewDoesNotSend(t *testing.T) {
	f := &stubFetcher{records: []collector.RawRecord{collector.Structured("A", "http://a")}}
	s := &memSender{}

	payload, err := newPipeline(f, s).Preview(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.sent)
	assert.Equal(t, notifier.Subject, payload.Subject)
	assert.Equal(t, 1, newsItems(t, payload.Body).Length())
}
