package mail

import (
	"bytes"
	"errors"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Message is a plain-text mail.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string

	// Date defaults to the time of rendering.
	Date time.Time
}

// Validate checks that the addresses parse and a recipient is present.
func (m *Message) Validate() error {
	_, err := m.build()
	return err
}

// Bytes renders the message as RFC 5322 text with a quoted-printable UTF-8
// body.
func (m *Message) Bytes() ([]byte, error) {
	msg, err := m.build()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Message) build() (*gomail.Msg, error) {
	if len(m.To) == 0 {
		return nil, errors.New("message has no recipients")
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, err
	}
	if err := msg.To(m.To...); err != nil {
		return nil, err
	}
	msg.Subject(m.Subject)

	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	msg.SetDateWithValue(date)
	msg.SetMessageID()
	msg.SetBodyString(gomail.TypeTextPlain, m.Body)
	return msg, nil
}
