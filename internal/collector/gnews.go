package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	gnewsName             = "gnews"
	gnewsMaxResponseBytes = 1 << 20 // 1MB
	gnewsClientTimeout    = 15 * time.Second
)

var (
	errMissingEndpoint = errors.New("endpoint is empty")
	errMissingAPIKey   = errors.New("api key is empty")
	errMissingArticles = errors.New(`response has no "articles" collection`)
)

// GNewsFetcher 调用 GNews top-headlines 接口，只取一页
type GNewsFetcher struct {
	Endpoint   string
	APIKey     string
	Lang       string
	HTTPClient *http.Client
}

// NewGNewsFetcher 凭据与地址由调用方在启动时注入，不读取任何全局状态
func NewGNewsFetcher(endpoint, apiKey, lang string) *GNewsFetcher {
	return &GNewsFetcher{
		Endpoint:   endpoint,
		APIKey:     apiKey,
		Lang:       lang,
		HTTPClient: &http.Client{Timeout: gnewsClientTimeout},
	}
}

func (g *GNewsFetcher) Name() string {
	return gnewsName
}

type gnewsResponse struct {
	TotalArticles int                `json:"totalArticles"`
	Articles      *[]json.RawMessage `json:"articles"`
}

func (g *GNewsFetcher) Fetch(ctx context.Context) ([]RawRecord, error) {
	if g.Endpoint == "" {
		return nil, g.fail(errMissingEndpoint)
	}
	if g.APIKey == "" {
		return nil, g.fail(errMissingAPIKey)
	}

	reqURL, err := g.requestURL()
	if err != nil {
		return nil, g.fail(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, g.fail(fmt.Errorf("build request: %w", err))
	}

	client := g.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: gnewsClientTimeout}
	}

	slog.Info("fetch top headlines...", "source", gnewsName, "lang", g.lang())
	resp, err := client.Do(req)
	if err != nil {
		// 不把带 token 的完整 URL 打进错误信息
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, g.fail(fmt.Errorf("request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, g.fail(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, gnewsMaxResponseBytes))
	if err != nil {
		return nil, g.fail(fmt.Errorf("read body: %w", err))
	}

	records, err := ParseArticles(body)
	if err != nil {
		return nil, g.fail(err)
	}

	slog.Info("fetch done", "source", gnewsName, "records", len(records))
	return records, nil
}

// ParseArticles 解析响应体中的 articles 集合，保持上游顺序。
// 每个元素在这里就判定形态：对象 / 字符串 / 其它。
func ParseArticles(body []byte) ([]RawRecord, error) {
	var resp gnewsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Articles == nil {
		return nil, errMissingArticles
	}

	records := make([]RawRecord, 0, len(*resp.Articles))
	for _, raw := range *resp.Articles {
		records = append(records, decodeRecord(raw))
	}
	return records, nil
}

func decodeRecord(raw json.RawMessage) RawRecord {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return RawRecord{Kind: KindUnknown}
	}

	switch trimmed[0] {
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return RawRecord{Kind: KindUnknown}
		}
		rec := RawRecord{Kind: KindStructured, Title: stringField(fields, "title")}
		// GNews 使用 url，部分上游使用 link
		rec.URL = stringField(fields, "url")
		if rec.URL == nil {
			rec.URL = stringField(fields, "link")
		}
		return rec
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return RawRecord{Kind: KindUnknown}
		}
		return RawRecord{Kind: KindFlat, Text: text}
	default:
		return RawRecord{Kind: KindUnknown}
	}
}

// stringField 字段缺失、为 null 或不是字符串时返回 nil
func stringField(fields map[string]json.RawMessage, key string) *string {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

func (g *GNewsFetcher) requestURL() (string, error) {
	u, err := url.Parse(g.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("token", g.APIKey)
	q.Set("lang", g.lang())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (g *GNewsFetcher) lang() string {
	if g.Lang == "" {
		return "en"
	}
	return g.Lang
}

func (g *GNewsFetcher) fail(err error) error {
	return &ExtractionError{Source: gnewsName, Err: err}
}
