package mailer

import "time"

type Service interface {
	SendLoginCode(toEmail, toName, code string, ttl time.Duration) error
	SendOrderConfirmation(toEmail, toName, orderNumber string, totalAmount, co2Saved float64) error
}
