package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
)

// SMTPConfig holds configuration for the SMTP mailer
type SMTPConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// SMTPMailer sends booking notifications over SMTP
type SMTPMailer struct {
	config SMTPConfig
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	return &SMTPMailer{config: config}
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<h2>Booking Confirmed</h2>
<p>Hi {{.StudentName}},</p>
<p>Your hostel bed has been reserved.</p>
<ul>
	<li>Building: {{.BuildingName}}</li>
	<li>Room: {{.RoomNumber}}</li>
	<li>Bed: {{.BedNumber}}</li>
	<li>Booking ID: {{.BookingID}}</li>
	<li>Date: {{.BookingDate.Format "2 Jan 2006 15:04"}}</li>
</ul>
<p>You can cancel this booking at any time from the My Bookings page.</p>
`))

var cancellationTmpl = template.Must(template.New("cancellation").Parse(`
<h2>Booking Cancelled</h2>
<p>Hi {{.StudentName}},</p>
<p>Your reservation has been cancelled and the bed is available again.</p>
<ul>
	<li>Building: {{.BuildingName}}</li>
	<li>Room: {{.RoomNumber}}</li>
	<li>Bed: {{.BedNumber}}</li>
	<li>Booking ID: {{.BookingID}}</li>
	<li>Cancelled: {{.CancelDate.Format "2 Jan 2006 15:04"}}</li>
</ul>
`))

// SendBookingConfirmation sends a booking confirmation email
func (m *SMTPMailer) SendBookingConfirmation(to string, data BookingConfirmationData) error {
	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render confirmation email: %w", err)
	}
	return m.send(to, "Booking Confirmed - Your Hostel Bed is Reserved", body.String())
}

// SendBookingCancellation sends a booking cancellation email
func (m *SMTPMailer) SendBookingCancellation(to string, data BookingCancellationData) error {
	var body bytes.Buffer
	if err := cancellationTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render cancellation email: %w", err)
	}
	return m.send(to, "Booking Cancelled - Your Reservation has been Cancelled", body.String())
}

func (m *SMTPMailer) send(to, subject, htmlBody string) error {
	headers := fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
		m.config.FromName, m.config.FromEmail, to, subject)

	message := []byte(headers + htmlBody)

	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	addr := fmt.Sprintf("%s:%s", m.config.Host, m.config.Port)

	if err := smtp.SendMail(addr, auth, m.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	return nil
}
