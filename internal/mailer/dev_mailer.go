package mailer

import (
	"fmt"
	"time"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/logger"
)

type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendLoginCode(toEmail, toName, code string, ttl time.Duration) error {
	logger.Info("📧 [DEV MAIL] Login Code Email",
		"to", toEmail,
		"name", toName,
		"code", code,
		"expires_in", ttl.String(),
	)

	fmt.Printf("\n" +
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n" +
		"📧 LOGIN CODE EMAIL (DEV MODE)\n" +
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n" +
		"To: %s (%s)\n" +
		"Subject: Your EcoFinds login code\n" +
		"\n" +
		"Login Code: %s\n" +
		"Expires in: %s\n" +
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		toEmail, toName, code, ttl)

	return nil
}

func (d *DevMailer) SendOrderConfirmation(toEmail, toName, orderNumber string, totalAmount, co2Saved float64) error {
	logger.Info("📧 [DEV MAIL] Order Confirmation Email",
		"to", toEmail,
		"order_number", orderNumber,
		"total", totalAmount,
		"co2_saved", co2Saved,
	)

	fmt.Printf("\n" +
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n" +
		"📧 ORDER CONFIRMATION EMAIL (DEV MODE)\n" +
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n" +
		"To: %s (%s)\n" +
		"Subject: Order %s confirmed\n" +
		"\n" +
		"Total: $%.2f\n" +
		"CO2 saved: %.2f kg\n" +
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		toEmail, toName, orderNumber, totalAmount, co2Saved)

	return nil
}
