package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"Sahaya/pkg/errors"
)

// Channel is the single capability every notification transport exposes.
// The set of variants is closed: SMS, Messenger, Email, Push and Authority.
type Channel interface {
	Name() string
	Send(ctx context.Context, target, message string) error
}

// SMSClient adapts a concrete SMS gateway. Injected so transports stay
// external collaborators and tests run on fakes.
type SMSClient interface {
	Send(ctx context.Context, phone, message string) error
}

type SMSChannel struct {
	cli SMSClient
}

func NewSMSChannel(cli SMSClient) *SMSChannel { return &SMSChannel{cli: cli} }

func (s *SMSChannel) Name() string { return "sms" }

func (s *SMSChannel) Send(ctx context.Context, target, message string) error {
	if s.cli == nil {
		return errors.WithCode(errors.CodeChannel, "sms client not configured")
	}
	if err := s.cli.Send(ctx, target, message); err != nil {
		return errors.Wrap(err, errors.CodeChannel, "sms send failed")
	}
	return nil
}

// MessengerClient adapts a messaging-app API (WhatsApp Business or similar).
type MessengerClient interface {
	Send(ctx context.Context, phone, message, deepLink string) error
}

type MessengerChannel struct {
	cli MessengerClient
}

func NewMessengerChannel(cli MessengerClient) *MessengerChannel {
	return &MessengerChannel{cli: cli}
}

func (m *MessengerChannel) Name() string { return "messenger" }

func (m *MessengerChannel) Send(ctx context.Context, target, message string) error {
	if m.cli == nil {
		return errors.WithCode(errors.CodeChannel, "messenger client not configured")
	}
	link := fmt.Sprintf("https://wa.me/%s", strings.TrimPrefix(target, "+"))
	if err := m.cli.Send(ctx, target, message, link); err != nil {
		return errors.Wrap(err, errors.CodeChannel, "messenger send failed")
	}
	return nil
}

// EmailClient adapts an email provider.
type EmailClient interface {
	Send(ctx context.Context, to, subject, body string) error
}

type EmailChannel struct {
	cli     EmailClient
	subject string
}

func NewEmailChannel(cli EmailClient, subject string) *EmailChannel {
	if subject == "" {
		subject = "Emergency alert"
	}
	return &EmailChannel{cli: cli, subject: subject}
}

func (e *EmailChannel) Name() string { return "email" }

func (e *EmailChannel) Send(ctx context.Context, target, message string) error {
	if e.cli == nil {
		return errors.WithCode(errors.CodeChannel, "email client not configured")
	}
	if err := e.cli.Send(ctx, target, e.subject, message); err != nil {
		return errors.Wrap(err, errors.CodeChannel, "email send failed")
	}
	return nil
}

// PushClient adapts a device push provider.
type PushClient interface {
	Push(ctx context.Context, userID, title, body string) error
}

type PushChannel struct {
	cli   PushClient
	title string
}

func NewPushChannel(cli PushClient, title string) *PushChannel {
	if title == "" {
		title = "Emergency alert"
	}
	return &PushChannel{cli: cli, title: title}
}

func (p *PushChannel) Name() string { return "push" }

func (p *PushChannel) Send(ctx context.Context, target, message string) error {
	if p.cli == nil {
		return errors.WithCode(errors.CodeChannel, "push client not configured")
	}
	if err := p.cli.Push(ctx, target, p.title, message); err != nil {
		return errors.Wrap(err, errors.CodeChannel, "push send failed")
	}
	return nil
}

// AuthorityClient adapts the emergency-services integration endpoint.
type AuthorityClient interface {
	Escalate(ctx context.Context, payload []byte) error
}

// AuthorityPayload is the structured body handed to emergency services.
type AuthorityPayload struct {
	AlertID     string  `json:"alert_id"`
	SubjectName string  `json:"subject_name"`
	District    string  `json:"district"`
	Phone       string  `json:"phone"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Address     string  `json:"address,omitempty"`
	Priority    string  `json:"priority"`
	Timestamp   string  `json:"timestamp"`
}

type AuthorityChannel struct {
	cli AuthorityClient
}

func NewAuthorityChannel(cli AuthorityClient) *AuthorityChannel {
	return &AuthorityChannel{cli: cli}
}

func (a *AuthorityChannel) Name() string { return "authority" }

// Send treats message as the serialized AuthorityPayload; target names the
// escalation desk and is informational only.
func (a *AuthorityChannel) Send(ctx context.Context, target, message string) error {
	if a.cli == nil {
		return errors.WithCode(errors.CodeChannel, "authority client not configured")
	}
	if !json.Valid([]byte(message)) {
		return errors.WithCode(errors.CodeChannel, "authority payload is not valid JSON")
	}
	if err := a.cli.Escalate(ctx, []byte(message)); err != nil {
		return errors.Wrap(err, errors.CodeChannel, "authority escalation failed")
	}
	return nil
}
