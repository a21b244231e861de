package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

type EmailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func GetEmailConfig() *EmailConfig {
	return &EmailConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

func SendEmail(to, subject, htmlBody string) error {
	config := GetEmailConfig()
	if config.Host == "" || config.Port == "" || config.From == "" {
		return fmt.Errorf("SMTP not configured")
	}

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
		config.From, to, subject)
	msg := []byte(headers + htmlBody)

	var auth smtp.Auth
	if config.Username != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	addr := config.Host + ":" + config.Port
	return smtp.SendMail(addr, auth, config.From, []string{to}, msg)
}

func firstName(name string) string {
	if name == "" {
		return "there"
	}
	return strings.Split(name, " ")[0]
}

func SendWelcomeEmail(email, name string) {
	go func() {
		subject := "Welcome to Tra Sua House!"
		body := fmt.Sprintf(`<h2>Welcome, %s!</h2>
<p>Thank you for creating your account. You can now:</p>
<ul>
<li>Browse our milk tea menu and toppings</li>
<li>Order ahead and skip the queue</li>
<li>Redeem voucher codes at checkout</li>
</ul>
<p>See you soon!</p>
<p>The Tra Sua House Team</p>`, firstName(name))
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send welcome email to %s: %v", email, err)
		}
	}()
}

func SendOrderConfirmation(email, name, orderNumber string, total int) {
	go func() {
		subject := fmt.Sprintf("Order Confirmed - %s", orderNumber)
		body := fmt.Sprintf(`<h2>Order Confirmed!</h2>
<p>Hi %s,</p>
<p>Your order <strong>%s</strong> has been placed successfully.</p>
<p>Order total: <strong>%d&#8363;</strong></p>
<p>We'll notify you when your order status changes.</p>
<p>The Tra Sua House Team</p>`, firstName(name), orderNumber, total)
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send order confirmation to %s: %v", email, err)
		}
	}()
}

func SendOrderStatusUpdate(email, name, orderNumber, status string) {
	go func() {
		subject := fmt.Sprintf("Order Update - %s", orderNumber)
		body := fmt.Sprintf(`<h2>Order Update</h2>
<p>Hi %s,</p>
<p>Your order <strong>%s</strong> is now: <strong>%s</strong></p>
<p>The Tra Sua House Team</p>`, firstName(name), orderNumber, status)
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send status update to %s: %v", email, err)
		}
	}()
}

func SendPasswordResetEmail(email, name, resetLink string) {
	go func() {
		subject := "Reset your password"
		body := fmt.Sprintf(`<h2>Password Reset</h2>
<p>Hi %s,</p>
<p>We received a request to reset your password. Click the link below to choose a new one. The link is valid for one hour.</p>
<p><a href="%s">%s</a></p>
<p>If you did not request this, you can safely ignore this email.</p>
<p>The Tra Sua House Team</p>`, firstName(name), resetLink, resetLink)
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send password reset email to %s: %v", email, err)
		}
	}()
}
