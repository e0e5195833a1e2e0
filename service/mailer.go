package service

import (
	"errors"
	"fmt"
	"net"

	mail "github.com/go-mail/mail/v2"
)

const confirmationSubject = "Confirmation code"

// Mailer dispatches confirmation codes over SMTP. Delivery is best-effort:
// the sign-up flow never rolls back an identity because a message did not go
// out.
type Mailer struct {
	dialer *mail.Dialer
	from   string
}

func NewMailer(host string, port int, username, password, from string) *Mailer {
	d := mail.NewDialer(host, port, username, password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	return &Mailer{dialer: d, from: from}
}

func (m *Mailer) SendConfirmationCode(recipient string, code int) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", confirmationSubject)
	msg.SetBody("text/plain", fmt.Sprintf("Your confirmation code is %d", code))
	return m.dialer.DialAndSend(msg)
}

// IsTransportError reports whether the send failed at the transport level
// (connect/dial), the one class of failure sign-up surfaces to the caller.
// Protocol-level rejections are treated as fail-silent.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
