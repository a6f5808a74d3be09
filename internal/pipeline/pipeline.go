package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/LJTian/NewsMailer/internal/collector"
	"github.com/LJTian/NewsMailer/internal/notifier"
	"github.com/LJTian/NewsMailer/internal/processor"
)

// Result 单次运行的摘要，只保存在内存里
type Result struct {
	Records    int       `json:"records"`
	Articles   int       `json:"articles"`
	Sent       bool      `json:"sent"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Pipeline 固定的三段式流水线：采集 -> 归一化/渲染 -> 发送。
// 各阶段严格串行，下一阶段只依赖上一阶段的返回值。
type Pipeline struct {
	fetcher   collector.Fetcher
	processor *processor.SimpleProcessor
	notifier  *notifier.Notifier
	now       func() time.Time
}

func New(f collector.Fetcher, p *processor.SimpleProcessor, n *notifier.Notifier) *Pipeline {
	return &Pipeline{fetcher: f, processor: p, notifier: n, now: time.Now}
}

// Run 执行一轮。采集失败时直接返回，不会渲染也不会发信；
// 返回的 error 是 *collector.ExtractionError 或 *notifier.DeliveryError。
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	res := Result{StartedAt: p.now()}
	log := slog.With("source", p.fetcher.Name())

	records, err := p.fetcher.Fetch(ctx)
	if err != nil {
		res.FinishedAt = p.now()
		log.Error("extract failed", "error", err)
		return res, err
	}
	res.Records = len(records)

	articles := p.processor.Process(records)
	res.Articles = len(articles)
	fragment := processor.Render(articles)

	if err := p.notifier.Notify(ctx, fragment); err != nil {
		res.FinishedAt = p.now()
		log.Error("deliver failed", "error", err)
		return res, err
	}

	res.Sent = true
	res.FinishedAt = p.now()
	log.Info("run done", "records", res.Records, "articles", res.Articles, "took", res.FinishedAt.Sub(res.StartedAt))
	return res, nil
}

// Preview 走完前两段并组装邮件，但不发送
func (p *Pipeline) Preview(ctx context.Context) (notifier.Payload, error) {
	records, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return notifier.Payload{}, err
	}
	fragment := processor.Render(p.processor.Process(records))
	return notifier.BuildPayload(p.notifier.Recipient(), fragment), nil
}
