package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/textproto"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
)

// Message is an outbound email envelope
type Message struct {
	FromName string
	From     string
	To       string
	Subject  string
	HTML     string
}

// Sender submits messages to a mail transport
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// DeliveryError represents a delivery error with type information
type DeliveryError struct {
	Temporary bool
	Message   string
}

func (e *DeliveryError) Error() string {
	return e.Message
}

// Client submits messages through an authenticated SMTP relay
type Client struct {
	host      string
	port      int
	username  string
	password  string
	localName string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewClient creates a new relay client
func NewClient(host string, port int, username, password string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	localName, err := os.Hostname()
	if err != nil || localName == "" {
		localName = "localhost"
	}
	return &Client{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		localName: localName,
		timeout:   timeout,
		logger:    logger,
	}
}

// Send submits a message to the relay
func (c *Client) Send(ctx context.Context, msg *Message) error {
	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))

	dialer := &net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &DeliveryError{
			Temporary: true,
			Message:   fmt.Sprintf("connection failed to %s: %v", addr, err),
		}
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(c.timeout))
	}

	client := smtp.NewClient(conn)
	defer client.Close()

	if err := client.Hello(c.localName); err != nil {
		return categorizeError(err, "HELO")
	}

	// STARTTLS before credentials go over the wire
	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{
			ServerName: c.host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return categorizeError(err, "STARTTLS")
		}
	}

	if c.username != "" {
		auth := sasl.NewPlainClient("", c.username, c.password)
		if err := client.Auth(auth); err != nil {
			return categorizeError(err, "AUTH")
		}
	}

	if err := client.Mail(msg.From, nil); err != nil {
		return categorizeError(err, "MAIL FROM")
	}
	if err := client.Rcpt(msg.To, nil); err != nil {
		return categorizeError(err, fmt.Sprintf("RCPT TO %s", msg.To))
	}

	wc, err := client.Data()
	if err != nil {
		return categorizeError(err, "DATA")
	}

	data := BuildMessageData(msg)
	if _, err := bytes.NewReader(data).WriteTo(wc); err != nil {
		wc.Close()
		return &DeliveryError{
			Temporary: true,
			Message:   fmt.Sprintf("failed to write message data: %v", err),
		}
	}
	if err := wc.Close(); err != nil {
		return categorizeError(err, "DATA close")
	}

	client.Quit()

	c.logger.Info("message submitted",
		"relay", addr,
		"to", msg.To,
		"subject", msg.Subject,
	)

	return nil
}

// BuildMessageData constructs the RFC 5322 message bytes: a
// multipart/alternative envelope carrying the HTML part, with display
// names and the subject MIME-encoded so non-ASCII values stay
// conformant.
func BuildMessageData(msg *Message) []byte {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=utf-8"},
	})
	part.Write([]byte(msg.HTML))
	mw.Close()

	from := (&mail.Address{Name: msg.FromName, Address: msg.From}).String()

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject)))
	buf.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	buf.WriteString(fmt.Sprintf("Message-ID: <%s@%s>\r\n", uuid.New().String(), extractDomain(msg.From)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%s\r\n", mw.Boundary()))
	buf.WriteString("\r\n")
	buf.Write(body.Bytes())

	return buf.Bytes()
}

// extractDomain extracts the domain from an email address
func extractDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) == 2 {
		return parts[1]
	}
	return "localhost"
}

// smtpCodePattern matches SMTP response codes at word boundaries
var smtpCodePattern = regexp.MustCompile(`\b(4\d{2}|5\d{2})\b`)

// categorizeError determines if an SMTP error is temporary or permanent
func categorizeError(err error, stage string) *DeliveryError {
	msg := fmt.Sprintf("%s failed: %v", stage, err)

	matches := smtpCodePattern.FindStringSubmatch(err.Error())
	if len(matches) > 1 {
		code := matches[1]
		if strings.HasPrefix(code, "5") {
			return &DeliveryError{Temporary: false, Message: msg}
		}
		if strings.HasPrefix(code, "4") {
			return &DeliveryError{Temporary: true, Message: msg}
		}
	}

	return &DeliveryError{Temporary: true, Message: msg}
}

// IsTemporaryError checks if the error is temporary
func IsTemporaryError(err error) bool {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Temporary
	}
	return true
}
