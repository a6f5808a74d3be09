package notifier

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
)

// Subject 邮件标题固定，不随内容变化
const Subject = "Latest News Updates"

var documentTmpl = template.Must(template.New("document").Parse(`<html>
<head>
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            background-color: #f4f4f4;
            padding: 20px;
        }
        h2 {
            color: #333;
        }
        p {
            color: #555;
        }
        .content {
            background-color: #fff;
            padding: 20px;
            border-radius: 8px;
            box-shadow: 0 0 10px rgba(0, 0, 0, 0.1);
            margin-top: 20px;
        }
        .news-item {
            margin-bottom: 20px;
            border-bottom: 1px solid #ddd;
            padding-bottom: 15px;
        }
        .news-item:last-child {
            border-bottom: none;
        }
        .news-item a {
            font-weight: bold;
            color: #007bff;
            text-decoration: none;
        }
        .news-item a:hover {
            text-decoration: underline;
        }
    </style>
</head>
<body>
    <h2>Latest News Updates</h2>
    <p>Dear User,</p>
    <p>Here are the latest news updates:</p>
    <div class="content">
        {{.}}
    </div>
    <p>Best regards,<br>Your News Service</p>
</body>
</html>
`))

// Payload 一封待发送的邮件
type Payload struct {
	Recipient string
	Subject   string
	Body      string
}

// Sender 邮件通道；每次 Send 自行建立并释放连接
type Sender interface {
	Send(ctx context.Context, p Payload) error
}

// DeliveryError 建连或提交失败，对本轮运行是致命的
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// BuildPayload 把渲染好的片段套进固定的外层文档。
// fragment 已由 processor 转义，这里按可信 HTML 插入。
func BuildPayload(recipient, fragment string) Payload {
	var sb strings.Builder
	_ = documentTmpl.Execute(&sb, template.HTML(fragment))
	return Payload{
		Recipient: recipient,
		Subject:   Subject,
		Body:      sb.String(),
	}
}

type Notifier struct {
	recipient string
	sender    Sender
}

func New(recipient string, sender Sender) *Notifier {
	return &Notifier{recipient: recipient, sender: sender}
}

// Notify 每次调用恰好发送一封邮件
func (n *Notifier) Notify(ctx context.Context, fragment string) error {
	p := BuildPayload(n.recipient, fragment)
	if err := n.sender.Send(ctx, p); err != nil {
		return &DeliveryError{Recipient: n.recipient, Err: err}
	}
	slog.Info("news mail sent", "to", n.recipient, "bytes", len(p.Body))
	return nil
}

// Recipient 收件人是静态配置
func (n *Notifier) Recipient() string {
	return n.recipient
}
