package tool

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	contractx "github.com/tanpawarit/agent-sender/agent/contract"
)

type fakeSMTPServer struct {
	mu       sync.Mutex
	messages []string
	rcpts    []string
}

// startFakeSMTP serves a minimal plaintext SMTP dialogue on one connection.
// Recipients containing "reject" get a 550.
func startFakeSMTP(t *testing.T) (string, int, *fakeSMTPServer) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	srv := &fakeSMTPServer{}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		srv.serve(conn)
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return host, port, srv
}

func (s *fakeSMTPServer) serve(conn net.Conn) {
	r := bufio.NewReader(conn)
	reply := func(line string) { conn.Write([]byte(line + "\r\n")) }

	reply("220 localhost ESMTP fake")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250 localhost")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			reply("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO"):
			if strings.Contains(cmd, "REJECT") {
				reply("550 mailbox unavailable")
				continue
			}
			s.mu.Lock()
			s.rcpts = append(s.rcpts, strings.TrimSpace(line))
			s.mu.Unlock()
			reply("250 OK")
		case cmd == "DATA":
			reply("354 end with .")
			var msg strings.Builder
			for {
				dl, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if strings.TrimRight(dl, "\r\n") == "." {
					break
				}
				msg.WriteString(dl)
			}
			s.mu.Lock()
			s.messages = append(s.messages, msg.String())
			s.mu.Unlock()
			reply("250 queued")
		case cmd == "RSET", cmd == "NOOP":
			reply("250 OK")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			reply("502 not implemented")
		}
	}
}

func testEmails(addrs ...string) []contractx.Email {
	emails := make([]contractx.Email, 0, len(addrs))
	for _, a := range addrs {
		emails = append(emails, contractx.Email{To: a, Subject: "Hello 👋", Body: "Hi,\nthanks"})
	}
	return emails
}

func TestSMTPSenderDryRun(t *testing.T) {
	t.Parallel()

	results, err := NewSMTPSender(SMTPConfig{DryRun: true}).SendEmails(context.Background(), testEmails("a@x.io", "b@x.io"))
	if err != nil {
		t.Fatalf("SendEmails() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Status != contractx.SendSent {
			t.Fatalf("unexpected status %q", r.Status)
		}
	}
}

func TestSMTPSenderDelivers(t *testing.T) {
	t.Parallel()

	host, port, srv := startFakeSMTP(t)
	sender := NewSMTPSender(SMTPConfig{
		Address:    "me@example.com",
		SMTPServer: host,
		SMTPPort:   port,
	})

	results, err := sender.SendEmails(context.Background(), testEmails("a@x.io", "reject@x.io", "c@x.io"))
	if err != nil {
		t.Fatalf("SendEmails() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Status != contractx.SendSent || results[2].Status != contractx.SendSent {
		t.Fatalf("expected first and last sent: %#v", results)
	}
	if results[1].Status != contractx.SendFailed || results[1].Error == "" {
		t.Fatalf("expected rejected recipient to fail with error: %#v", results[1])
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if len(srv.messages) != 2 {
		t.Fatalf("expected 2 delivered messages, got %d", len(srv.messages))
	}
	msg := srv.messages[0]
	if !strings.Contains(msg, "From: me@example.com") || !strings.Contains(msg, "To: a@x.io") {
		t.Fatalf("missing headers in %q", msg)
	}
	if !strings.Contains(msg, "Subject: =?utf-8?q?") {
		t.Fatalf("subject should be Q-encoded: %q", msg)
	}
	if !strings.Contains(msg, "Hi,\r\nthanks") {
		t.Fatalf("body not CRLF normalized: %q", msg)
	}
}

func TestSMTPSenderConnectionFailureFailsAll(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	ln.Close()

	results, err := NewSMTPSender(SMTPConfig{SMTPServer: host, SMTPPort: port}).
		SendEmails(context.Background(), testEmails("a@x.io", "b@x.io"))
	if err != nil {
		t.Fatalf("SendEmails() should report failures per email, got error %v", err)
	}
	for _, r := range results {
		if r.Status != contractx.SendFailed || r.Error == "" {
			t.Fatalf("expected failed result with error, got %#v", r)
		}
	}
}
