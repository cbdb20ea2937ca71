package smtp

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/magabrotheeeer/resource-store/internal/config"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeServer отвечает на EHLO без расширения STARTTLS.
func fakeServer(t *testing.T) (host, port string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		_, _ = conn.Write([]byte("220 fake ESMTP\r\n"))
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			switch {
			case len(line) >= 4 && (line[:4] == "EHLO" || line[:4] == "HELO"):
				_, _ = conn.Write([]byte("250-fake\r\n250 AUTH PLAIN\r\n"))
			case len(line) >= 4 && line[:4] == "QUIT":
				_, _ = conn.Write([]byte("221 bye\r\n"))
				return
			default:
				_, _ = conn.Write([]byte("250 ok\r\n"))
			}
		}
	}()

	host, port, err = net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return host, port
}

func testMessage(t *testing.T) *mail.Msg {
	t.Helper()
	msg := mail.NewMsg()
	require.NoError(t, msg.From("noreply@example.com"))
	require.NoError(t, msg.To("reader@example.com"))
	msg.Subject("code")
	msg.SetBodyString(mail.TypeTextPlain, "482913")
	return msg
}

func TestTransport_RequiresStartTLS(t *testing.T) {
	host, port := fakeServer(t)
	tr := NewTransport(config.SMTP{Host: host, Port: port, User: "noreply@example.com"}, newNoopLogger())

	err := tr.Send(context.Background(), testMessage(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp.Send")
	assert.Contains(t, err.Error(), "STARTTLS")
}

func TestTransport_DialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, ln.Close())

	tr := NewTransport(config.SMTP{Host: host, Port: port}, newNoopLogger())

	err = tr.Send(context.Background(), testMessage(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp.Send")
}

func TestTransport_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SMTP
	}{
		{name: "port is not a number", cfg: config.SMTP{Host: "smtp.example.com", Port: "smtp"}},
		{name: "empty host", cfg: config.SMTP{Port: "587"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewTransport(tt.cfg, newNoopLogger()).Send(context.Background(), testMessage(t))
			require.Error(t, err)
		})
	}
}

func TestTransport_GetSMTPUser(t *testing.T) {
	tr := NewTransport(config.SMTP{User: "noreply@example.com"}, newNoopLogger())
	assert.Equal(t, "noreply@example.com", tr.GetSMTPUser())
}
