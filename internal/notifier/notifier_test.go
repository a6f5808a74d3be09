package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []Payload
	err  error
}

func (r *recordingSender) Send(_ context.Context, p Payload) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, p)
	return nil
}

const twoItems = `<div class="news-item">
    <p>A</p>
    <p><a href="http://a"></a></p>
</div>

<div class="news-item">
    <p>B</p>
    <p><a href="http://b"></a></p>
</div>`

func TestBuildPayloadWrapsFragment(t *testing.T) {
	p := BuildPayload("reader@example.com", twoItems)

	assert.Equal(t, "reader@example.com", p.Recipient)
	assert.Equal(t, "Latest News Updates", p.Subject)
	// 片段原样插入，不能被二次转义
	assert.Contains(t, p.Body, twoItems)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.Body))
	require.NoError(t, err)

	assert.Equal(t, "Latest News Updates", doc.Find("h2").Text())
	assert.Equal(t, 2, doc.Find("div.content div.news-item").Length())
	assert.Contains(t, doc.Find("style").Text(), ".news-item:last-child")
	assert.Contains(t, doc.Find("body").Text(), "Dear User,")
	assert.Contains(t, doc.Find("body").Text(), "Your News Service")
}

func TestBuildPayloadEmptyFragmentIsStatic(t *testing.T) {
	a := BuildPayload("x@example.com", "")
	b := BuildPayload("y@example.com", "")
	assert.Equal(t, a.Body, b.Body)
	assert.Equal(t, a.Subject, b.Subject)
}

func TestNotifySendsExactlyOne(t *testing.T) {
	s := &recordingSender{}
	n := New("reader@example.com", s)

	require.NoError(t, n.Notify(context.Background(), twoItems))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "reader@example.com", s.sent[0].Recipient)
	assert.Equal(t, Subject, s.sent[0].Subject)
}

func TestNotifyWrapsDeliveryError(t *testing.T) {
	cause := errors.New("connection refused")
	n := New("reader@example.com", &recordingSender{err: cause})

	err := n.Notify(context.Background(), twoItems)
	var derr *DeliveryError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "reader@example.com", derr.Recipient)
	assert.ErrorIs(t, err, cause)
}

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage("bot@example.com", Payload{Recipient: "reader@example.com", Subject: Subject, Body: "<p>x</p>"})
	require.NoError(t, err)

	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"reader@example.com"}, rcpts)

	_, err = buildMessage("not an address", Payload{Recipient: "reader@example.com"})
	assert.Error(t, err)
}

func TestSMTPSenderRequiresHost(t *testing.T) {
	err := NewSMTPSender(SMTPConfig{From: "bot@example.com"}).Send(context.Background(), Payload{Recipient: "reader@example.com"})
	assert.Error(t, err)
}

func TestDryRunSenderNeverFails(t *testing.T) {
	assert.NoError(t, DryRunSender{}.Send(context.Background(), BuildPayload("x@example.com", "")))
}
