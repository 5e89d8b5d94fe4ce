package notifier

import (
	"errors"
	"fmt"

	"github.com/ibeckermayer/like4me/internal/config"
	"github.com/ibeckermayer/like4me/internal/notifier/providers"
	"github.com/ibeckermayer/like4me/internal/report"
)

// ErrDisabled is returned when email delivery is not configured
var ErrDisabled = errors.New("email notifications disabled")

// Notifier handles sending run reports
type Notifier struct {
	sender Sender
	to     string
}

// Sender defines the interface for email sending
type Sender interface {
	Send(to, subject, htmlBody, plainBody string) error
}

// New creates a new notifier delivering to toAddr
func New(sender Sender, toAddr string) *Notifier {
	return &Notifier{sender: sender, to: toAddr}
}

// NewFromConfig creates an SMTP notifier from configuration
func NewFromConfig(cfg config.EmailConfig) (*Notifier, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if cfg.SMTPHost == "" || cfg.ToAddr == "" {
		return nil, fmt.Errorf("email enabled but smtp_host or to_address is empty")
	}

	from := cfg.FromAddr
	if from == "" {
		from = cfg.SMTPUser
	}
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	sender := providers.NewSMTPSender(cfg.SMTPHost, port, cfg.SMTPUser, cfg.SMTPPass, from)
	return New(sender, cfg.ToAddr), nil
}

// SendReport emails a run report
func (n *Notifier) SendReport(r *report.Report) error {
	if r == nil {
		return fmt.Errorf("no report to send")
	}
	return n.sender.Send(n.to, r.Subject, r.HTMLBody, r.PlainBody)
}
