package models

// PaymentNotification announces a received payment to the payer by email
// and/or a WhatsApp click-to-chat link.
type PaymentNotification struct {
	PayerName string
	Amount    string
	Currency  string
	Reference string
	Email     string
	Phone     string
}
