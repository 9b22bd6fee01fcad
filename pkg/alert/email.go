package alert

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// EmailConfig configures the optional alert notification channel.
type EmailConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Server   string `koanf:"server"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	To       string `koanf:"to"`
}

// Configured reports whether the credentials needed to send are present.
func (c EmailConfig) Configured() bool {
	return c.User != "" && c.Password != "" && c.To != ""
}

// Notifier sends alert emails over SMTP with STARTTLS.
type Notifier struct {
	Config EmailConfig
	Logger *zap.Logger

	// send is swappable for tests.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewNotifier builds a notifier for the given config.
func NewNotifier(cfg EmailConfig, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{Config: cfg, Logger: logger, send: smtp.SendMail}
}

// Notify emails the triggered alerts. Returns false without error when the
// channel is disabled or there is nothing to send.
func (n *Notifier) Notify(report Report) (bool, error) {
	if !n.Config.Enabled || len(report.Alerts) == 0 {
		return false, nil
	}
	if !n.Config.Configured() {
		n.Logger.Warn("email enabled but credentials not configured")
		return false, nil
	}

	subject := fmt.Sprintf("PE Alert: %d stock(s) below threshold", len(report.Alerts))
	msg := buildMessage(n.Config.User, n.Config.To, subject, report)

	addr := fmt.Sprintf("%s:%d", n.Config.Server, n.Config.Port)
	auth := smtp.PlainAuth("", n.Config.User, n.Config.Password, n.Config.Server)
	if err := n.send(addr, auth, n.Config.User, []string{n.Config.To}, msg); err != nil {
		return false, fmt.Errorf("send alert email: %w", err)
	}

	n.Logger.Info("alert email sent", zap.String("to", n.Config.To), zap.Int("alerts", len(report.Alerts)))
	return true, nil
}

func buildMessage(from, to, subject string, report Report) []byte {
	var body strings.Builder
	fmt.Fprintf(&body, "The following stocks have PE ratios below %.0f:\n\n", report.Threshold)
	for _, a := range report.Alerts {
		fmt.Fprintf(&body, "  - %s: PE = %.1f\n", a.Ticker, a.PERatio)
	}
	body.WriteString("\n---\nSent by MetricDuck Labs - PE Alert\nhttps://github.com/metric-duck/labs\n")

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body.String())
	return []byte(msg.String())
}
