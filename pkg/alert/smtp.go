package alert

import (
	"context"
	"errors"

	"gopkg.in/gomail.v2"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/pkg/config"
	"github.com/raids-lab/buildtracker/pkg/logutils"
)

type SMTPAlerter struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

// newSMTPAlerter uses an authenticated connection, upgraded with STARTTLS when the
// server offers it.
func newSMTPAlerter(conf *config.Config) alertHandlerInterface {
	smtpConfig := conf.SMTP
	from := smtpConfig.From
	if from == "" {
		from = smtpConfig.User
	}
	return &SMTPAlerter{
		dialer:   gomail.NewDialer(smtpConfig.Host, smtpConfig.Port, smtpConfig.User, smtpConfig.Password),
		from:     from,
		fromName: smtpConfig.FromName,
	}
}

func (sa *SMTPAlerter) Channel() model.NotificationChannel {
	return model.ChannelSMTP
}

func (sa *SMTPAlerter) SendMessageTo(_ context.Context, recipients []string, msg *Message) error {
	if len(recipients) == 0 {
		return errors.New("no recipients configured")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", sa.from, sa.fromName)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := sa.dialer.DialAndSend(m); err != nil {
		logutils.Log.Errorf("Failed to send email to %v: %v", recipients, err)
		return err
	}

	logutils.Log.Infof("Sent email to %v", recipients)
	return nil
}
