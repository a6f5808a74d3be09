package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

const smtpTimeout = 30 * time.Second

// SMTPConfig 连接参数由外部注入；认证、TLS 与协议细节交给 go-mail
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender 每次发送新建客户端，发完即关闭，不在多次运行间复用连接
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, p Payload) error {
	if s.cfg.Host == "" {
		return errors.New("smtp host is empty")
	}

	msg, err := buildMessage(s.cfg.From, p)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	port := s.cfg.Port
	if port == 0 {
		port = mail.DefaultPortTLS
	}
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTimeout(smtpTimeout),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	// 465 端口走隐式 TLS
	if port == mail.DefaultPortSSL {
		opts = append(opts, mail.WithSSL())
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

func buildMessage(from string, p Payload) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("set from %q: %w", from, err)
	}
	if err := msg.To(p.Recipient); err != nil {
		return nil, fmt.Errorf("set to %q: %w", p.Recipient, err)
	}
	msg.Subject(p.Subject)
	msg.SetBodyString(mail.TypeTextHTML, p.Body)
	return msg, nil
}

// DryRunSender 只记录日志不发送，用于本地调试与预发环境
type DryRunSender struct{}

func (DryRunSender) Send(_ context.Context, p Payload) error {
	slog.Info("dry run: mail not sent", "to", p.Recipient, "subject", p.Subject, "bytes", len(p.Body))
	return nil
}
