package services

import (
	"fmt"

	"booking-service/config"
	"booking-service/domain"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Notifier delivers best-effort status-change mails. Failures are logged
// and never block a transition.
type Notifier interface {
	NotifyStatusChange(booking *domain.Booking, recipient string)
}

type EmailNotifier struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func NewEmailNotifier(cfg *config.Config, logger *logrus.Logger) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, logger: logger}
}

func (n *EmailNotifier) NotifyStatusChange(booking *domain.Booking, recipient string) {
	if n.cfg.SMTPHost == "" || recipient == "" {
		return
	}

	subject := fmt.Sprintf("Your booking is now %s", booking.Status)
	text := fmt.Sprintf("Booking %s for property %s (%s - %s) changed status to %s.",
		booking.ID.Hex(), booking.PropertyID,
		booking.StartDate.Format("2006-01-02"), booking.EndDate.Format("2006-01-02"),
		booking.Status)
	if booking.CancellationReason != "" {
		text += " Reason: " + booking.CancellationReason
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.EmailFrom)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)

	d := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.SMTPUser, n.cfg.SMTPPass)
	if err := d.DialAndSend(m); err != nil {
		n.logger.WithFields(logrus.Fields{"path": "services/notification"}).Error("Could not send email: ", err)
	}
}

// NoopNotifier is used when mail is not configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyStatusChange(*domain.Booking, string) {}
