package providers

import (
	"bytes"
	"fmt"
	"mime"
	"net/smtp"
)

const boundary = "like4me-report-boundary"

// SMTPSender sends emails via SMTP
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send sends an email via SMTP
func (s *SMTPSender) Send(to, subject, htmlBody, plainBody string) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, s.buildMessage(to, subject, htmlBody, plainBody)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// buildMessage renders a multipart/alternative MIME message
func (s *SMTPSender) buildMessage(to, subject, htmlBody, plainBody string) []byte {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", encodeSubject(subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	msg.WriteString("\r\n")

	writePart(&msg, "text/plain", plainBody)
	writePart(&msg, "text/html", htmlBody)

	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.Bytes()
}

func writePart(msg *bytes.Buffer, contentType, body string) {
	fmt.Fprintf(msg, "--%s\r\n", boundary)
	fmt.Fprintf(msg, "Content-Type: %s; charset=\"utf-8\"\r\n", contentType)
	msg.WriteString("\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")
}

// encodeSubject keeps non-ASCII subjects intact through mail relays
func encodeSubject(subject string) string {
	return mime.QEncoding.Encode("utf-8", subject)
}
