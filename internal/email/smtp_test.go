package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/smtp"
	"net/textproto"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PersonalGenomesOrg/gennotes/internal/platform/retry"
)

type fakeConn struct {
	startTLS bool
	authed   smtp.Auth
	from     string
	rcpt     []string
	body     bytes.Buffer
	quit     bool

	mailErr error
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func (f *fakeConn) StartTLS(_ *tls.Config) error { f.startTLS = true; return nil }
func (f *fakeConn) Auth(a smtp.Auth) error       { f.authed = a; return nil }
func (f *fakeConn) Mail(from string) error       { f.from = from; return f.mailErr }
func (f *fakeConn) Rcpt(to string) error         { f.rcpt = append(f.rcpt, to); return nil }
func (f *fakeConn) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&f.body}, nil
}
func (f *fakeConn) Quit() error  { f.quit = true; return nil }
func (f *fakeConn) Close() error { return nil }

func newTestSMTP(conn *fakeConn, opts SMTPOptions) *SMTP {
	if opts.Host == "" {
		opts.Host = "smtp.example.com"
	}
	if opts.Port == 0 {
		opts.Port = 587
	}
	if opts.From == "" {
		opts.From = "gennotes@example.com"
	}
	opts.Clock = clockwork.NewFakeClockAt(time.Date(2016, 3, 14, 12, 0, 0, 0, time.UTC))

	s := NewSMTP(opts)
	s.policy.InitialBackoff = time.Millisecond
	s.policy.RateLimitBackoff = time.Millisecond
	s.dial = func(_ string) (smtpConn, error) { return conn, nil }
	return s
}

func TestSMTPSend_Success(t *testing.T) {
	conn := &fakeConn{}
	s := newTestSMTP(conn, SMTPOptions{})

	err := s.Send(context.Background(), Message{
		To:      "curator@example.org",
		Subject: "Verify your GenNotes account",
		Body:    "Hello!",
	})
	require.NoError(t, err)

	assert.Equal(t, "gennotes@example.com", conn.from)
	assert.Equal(t, []string{"curator@example.org"}, conn.rcpt)
	assert.True(t, conn.quit)

	body := conn.body.String()
	assert.Contains(t, body, "To: curator@example.org\r\n")
	assert.Contains(t, body, "From: gennotes@example.com\r\n")
	assert.Contains(t, body, "Subject: Verify your GenNotes account\r\n")
	assert.Contains(t, body, "MIME-Version: 1.0\r\n")
	assert.Contains(t, body, "Date: Mon, 14 Mar 2016 12:00:00 +0000\r\n")
	assert.Contains(t, body, "\r\n\r\nHello!\r\n")
}

func TestSMTPSend_NoTLSNoAuthByDefault(t *testing.T) {
	conn := &fakeConn{}
	s := newTestSMTP(conn, SMTPOptions{})

	require.NoError(t, s.Send(context.Background(), Message{To: "a@b.c"}))
	assert.False(t, conn.startTLS)
	assert.Nil(t, conn.authed)
}

func TestSMTPSend_TLSAndPlainAuth(t *testing.T) {
	conn := &fakeConn{}
	s := newTestSMTP(conn, SMTPOptions{UseTLS: true, Username: "mailer", Password: "pw"})

	require.NoError(t, s.Send(context.Background(), Message{To: "a@b.c"}))
	assert.True(t, conn.startTLS)
	require.NotNil(t, conn.authed)

	proto, _, err := conn.authed.Start(&smtp.ServerInfo{Name: "smtp.example.com", TLS: true})
	require.NoError(t, err)
	assert.Equal(t, "PLAIN", proto)
}

func TestSMTPSend_LoginAuthWithoutTLS(t *testing.T) {
	conn := &fakeConn{}
	s := newTestSMTP(conn, SMTPOptions{Username: "mailer", Password: "pw"})

	require.NoError(t, s.Send(context.Background(), Message{To: "a@b.c"}))
	require.NotNil(t, conn.authed)

	proto, _, err := conn.authed.Start(&smtp.ServerInfo{Name: "smtp.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "LOGIN", proto)
}

func TestSMTPSend_PermanentFailureNotRetried(t *testing.T) {
	conn := &fakeConn{mailErr: &textproto.Error{Code: 550, Msg: "mailbox unavailable"}}
	dials := 0

	s := newTestSMTP(conn, SMTPOptions{})
	inner := s.dial
	s.dial = func(addr string) (smtpConn, error) { dials++; return inner(addr) }

	err := s.Send(context.Background(), Message{To: "a@b.c"})
	require.Error(t, err)
	assert.Equal(t, 1, dials)
}

func TestSMTPSend_TransientFailureRetried(t *testing.T) {
	conn := &fakeConn{mailErr: &textproto.Error{Code: 421, Msg: "service not available"}}
	dials := 0

	s := newTestSMTP(conn, SMTPOptions{})
	inner := s.dial
	s.dial = func(addr string) (smtpConn, error) {
		dials++
		if dials == 2 {
			conn.mailErr = nil
		}
		return inner(addr)
	}

	err := s.Send(context.Background(), Message{To: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, 2, dials)
}

func TestLoginAuth_Next(t *testing.T) {
	a := &loginAuth{username: "mailer", password: "pw"}

	resp, err := a.Next([]byte("Username:"), true)
	require.NoError(t, err)
	assert.Equal(t, []byte("mailer"), resp)

	resp, err = a.Next([]byte("Password:"), true)
	require.NoError(t, err)
	assert.Equal(t, []byte("pw"), resp)

	_, err = a.Next([]byte("Something:"), true)
	assert.Error(t, err)

	resp, err = a.Next(nil, false)
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, retry.Stop, classify(&textproto.Error{Code: 550}))
	assert.Equal(t, retry.Retry, classify(io.ErrUnexpectedEOF))
	assert.Equal(t, retry.Retry, classify(&textproto.Error{Code: 451}))
	assert.Equal(t, retry.After, classify(&textproto.Error{Code: 421}))
	assert.Equal(t, retry.After, classify(&textproto.Error{Code: 450}))
}
