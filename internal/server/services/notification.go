package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/totymark/totymark/internal/common"
	"github.com/totymark/totymark/internal/logging"
	"github.com/totymark/totymark/internal/server/models"
	"github.com/totymark/totymark/internal/server/notify"
)

var (
	reAmount   = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	reCurrency = regexp.MustCompile(`^[A-Z]{3}$`)
)

// NotificationReceipt reports which channels were used for a notification.
type NotificationReceipt struct {
	Emailed     bool
	WhatsAppURL string
}

type NotificationService struct {
	mailer notify.Mailer
	logger logging.Logger
}

func NewNotificationService(mailer notify.Mailer, logger logging.Logger) *NotificationService {
	return &NotificationService{mailer: mailer, logger: logger.With("module", "notification_service")}
}

// NotifyPayment emails the payer when an address is given and builds a
// WhatsApp link when a phone number is given. At least one is required.
func (s *NotificationService) NotifyPayment(ctx context.Context, sender string, n models.PaymentNotification) (*NotificationReceipt, error) {
	n.PayerName = strings.TrimSpace(n.PayerName)
	n.Amount = strings.TrimSpace(n.Amount)
	n.Currency = strings.ToUpper(strings.TrimSpace(n.Currency))
	n.Reference = strings.TrimSpace(n.Reference)
	n.Email = strings.TrimSpace(n.Email)
	n.Phone = strings.TrimSpace(n.Phone)

	if err := validatePayment(n); err != nil {
		return nil, err
	}

	text := paymentText(n)
	receipt := &NotificationReceipt{}

	if n.Phone != "" {
		link, ok := notify.WhatsAppLink(n.Phone, text)
		if !ok {
			return nil, invalid("phone number is not valid")
		}
		receipt.WhatsAppURL = link
	}

	if n.Email != "" {
		if !s.mailer.Enabled() {
			return nil, common.ErrMailerDisabled
		}
		subject := "Payment received"
		if n.Reference != "" {
			subject += ": " + n.Reference
		}
		if err := s.mailer.Send(ctx, n.Email, subject, text); err != nil {
			s.logger.Error(ctx, "sending payment email failed", "sender", sender, "error", err)
			return nil, common.ErrDeliveryFailed
		}
		receipt.Emailed = true
	}

	s.logger.Info(ctx, "payment notification sent",
		"sender", sender, "emailed", receipt.Emailed, "whatsapp", receipt.WhatsAppURL != "")
	return receipt, nil
}

func validatePayment(n models.PaymentNotification) error {
	if n.PayerName == "" {
		return invalid("payer_name is required")
	}
	if !reAmount.MatchString(n.Amount) {
		return invalid("amount must be a decimal with at most two fraction digits")
	}
	if !reCurrency.MatchString(n.Currency) {
		return invalid("currency must be a three-letter code")
	}
	if n.Email == "" && n.Phone == "" {
		return invalid("email or phone is required")
	}
	if n.Email != "" {
		if err := validateEmail(n.Email); err != nil {
			return err
		}
	}
	if strings.ContainsAny(n.Reference, "\r\n") {
		return invalid("reference must be a single line")
	}
	return nil
}

func paymentText(n models.PaymentNotification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s, we received your payment of %s %s.", n.PayerName, n.Amount, n.Currency)
	if n.Reference != "" {
		fmt.Fprintf(&b, " Reference: %s.", n.Reference)
	}
	b.WriteString(" Thank you!")
	return b.String()
}
