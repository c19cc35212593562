package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendLoginCode(toEmail, toName, code string, ttl time.Duration) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Your EcoFinds login code"
	minutes := int(ttl.Minutes())
	html := fmt.Sprintf(`
		<h2>Your EcoFinds Login Code</h2>
		<p>Hi %s,</p>
		<p>Your verification code is: <strong style="font-size: 24px; color: #2E7D32;">%s</strong></p>
		<p>This code will expire in %d minutes.</p>
		<p>If you did not try to sign in, you can safely ignore this email.</p>
	`, toName, code, minutes)

	text := fmt.Sprintf("Your EcoFinds login code is: %s\n\nThe code expires in %d minutes.", code, minutes)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendOrderConfirmation(toEmail, toName, orderNumber string, totalAmount, co2Saved float64) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := fmt.Sprintf("Order %s confirmed", orderNumber)
	html := fmt.Sprintf(`
		<h2>Thanks for shopping second-hand!</h2>
		<p>Hi %s,</p>
		<p>Your order <strong>%s</strong> has been placed.</p>
		<p>Total: <strong>$%.2f</strong></p>
		<p>By buying used you saved an estimated <strong>%.2f kg</strong> of CO2.</p>
	`, toName, orderNumber, totalAmount, co2Saved)

	text := fmt.Sprintf("Thanks for your order %s!\n\nTotal: $%.2f\nEstimated CO2 saved: %.2f kg", orderNumber, totalAmount, co2Saved)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, toName, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
