package collector

import (
	"context"
	"fmt"
)

// RecordKind 标记上游单条记录的形态，在解析边界就确定下来
type RecordKind int

const (
	// KindUnknown 既不是对象也不是字符串，交给下游按默认值兜底
	KindUnknown RecordKind = iota
	// KindStructured 形如 {"title": ..., "url": ...} 的对象
	KindStructured
	// KindFlat 形如 "<title> - <link>" 的扁平字符串
	KindFlat
)

func (k RecordKind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// RawRecord 采集阶段产出的原始记录。
// Title/URL 为 nil 表示字段缺失（或不是字符串），只在 KindStructured 时有意义；
// Text 只在 KindFlat 时有意义。
type RawRecord struct {
	Kind  RecordKind
	Title *string
	URL   *string
	Text  string
}

// Structured 构造对象形态的记录，便于测试与手工注入
func Structured(title, url string) RawRecord {
	return RawRecord{Kind: KindStructured, Title: &title, URL: &url}
}

// Flat 构造扁平字符串形态的记录
func Flat(text string) RawRecord {
	return RawRecord{Kind: KindFlat, Text: text}
}

// Fetcher 抽象新闻数据源，每次运行只调用一次 Fetch
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]RawRecord, error)
}

// ExtractionError 采集失败：请求失败、响应无法解析或缺少 articles 字段。
// 对本轮运行是致命的，不会产出部分结果。
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
