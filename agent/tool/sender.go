package tool

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/agent-sender/agent/contract"
)

const defaultFromAddress = "agent-sender@localhost"

// SMTPConfig keeps the EMAIL_* variable names of the original deployment.
type SMTPConfig struct {
	Address     string        `envconfig:"ADDRESS"`
	Password    string        `envconfig:"PASSWORD"`
	SMTPServer  string        `envconfig:"SMTP_SERVER" default:"smtp.gmail.com"`
	SMTPPort    int           `envconfig:"SMTP_PORT" default:"587"`
	DialTimeout time.Duration `envconfig:"DIAL_TIMEOUT" default:"10s"`
	// DryRun renders every message but never opens a connection.
	DryRun bool `envconfig:"DRY_RUN" default:"true"`
}

func (c SMTPConfig) hostPort() string {
	return net.JoinHostPort(strings.TrimSpace(c.SMTPServer), strconv.Itoa(c.SMTPPort))
}

func (c SMTPConfig) from() string {
	if v := strings.TrimSpace(c.Address); v != "" {
		return v
	}
	return defaultFromAddress
}

// SMTPSender delivers emails over one SMTP session per batch. A session
// failure marks every email failed; a rejected message fails only itself.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendEmails(ctx context.Context, emails []contractx.Email) ([]contractx.SendResult, error) {
	if len(emails) == 0 {
		return []contractx.SendResult{}, nil
	}
	if s.cfg.DryRun {
		results := make([]contractx.SendResult, 0, len(emails))
		for _, e := range emails {
			log.Info().Str("to", e.To).Str("subject", e.Subject).Msg("dry run: email not transmitted")
			results = append(results, contractx.SendResult{To: e.To, Status: contractx.SendSent})
		}
		return results, nil
	}

	client, err := s.connect(ctx)
	if err != nil {
		return failAll(emails, err), nil
	}
	defer client.Close()

	results := make([]contractx.SendResult, 0, len(emails))
	for _, e := range emails {
		if err := ctx.Err(); err != nil {
			results = append(results, contractx.SendResult{To: e.To, Status: contractx.SendFailed, Error: err.Error()})
			continue
		}
		if err := s.deliver(client, e); err != nil {
			results = append(results, contractx.SendResult{To: e.To, Status: contractx.SendFailed, Error: err.Error()})
			_ = client.Reset()
			continue
		}
		results = append(results, contractx.SendResult{To: e.To, Status: contractx.SendSent})
	}

	if err := client.Quit(); err != nil {
		log.Warn().Err(err).Msg("smtp quit")
	}
	return results, nil
}

func (s *SMTPSender) connect(ctx context.Context) (*smtp.Client, error) {
	host := strings.TrimSpace(s.cfg.SMTPServer)
	dialer := net.Dialer{Timeout: s.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.cfg.hostPort())
	if err != nil {
		return nil, fmt.Errorf("dial smtp: %w", err)
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			client.Close()
			return nil, fmt.Errorf("smtp starttls: %w", err)
		}
	}

	if s.cfg.Address != "" && s.cfg.Password != "" {
		auth := smtp.PlainAuth("", s.cfg.Address, s.cfg.Password, host)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return nil, fmt.Errorf("smtp auth: %w", err)
		}
	}
	return client, nil
}

func (s *SMTPSender) deliver(client *smtp.Client, e contractx.Email) error {
	if err := client.Mail(s.cfg.from()); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(e.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(buildMessage(s.cfg.from(), e)); err != nil {
		w.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish data: %w", err)
	}
	return nil
}

func buildMessage(from string, e contractx.Email) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", e.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	buf.WriteString(strings.ReplaceAll(e.Body, "\n", "\r\n"))
	buf.WriteString("\r\n")
	return buf.Bytes()
}

func failAll(emails []contractx.Email, err error) []contractx.SendResult {
	log.Warn().Err(err).Int("emails", len(emails)).Msg("smtp session failed")
	results := make([]contractx.SendResult, 0, len(emails))
	for _, e := range emails {
		results = append(results, contractx.SendResult{To: e.To, Status: contractx.SendFailed, Error: err.Error()})
	}
	return results
}
