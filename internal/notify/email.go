package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// EmailService is any transport that can deliver a Message.
type EmailService interface {
	Send(ctx context.Context, msg Message) error
}

// SendgridService delivers mail through the Sendgrid v3 API.
type SendgridService struct {
	key  string
	from *sgmail.Email
}

var _ EmailService = (*SendgridService)(nil)

// NewSendgridService creates a transport using the given API key and sender address.
func NewSendgridService(key, from string) *SendgridService {
	return &SendgridService{
		key:  key,
		from: sgmail.NewEmail("ClassTrack", from),
	}
}

// Send delivers one message; non-2xx API responses are returned as errors.
func (svc *SendgridService) Send(_ context.Context, msg Message) error {
	m := sgmail.NewSingleEmail(svc.from, msg.Subject, sgmail.NewEmail("", msg.To), msg.Body, "")

	req := sendgrid.GetRequest(svc.key, "/v3/mail/send", "https://api.sendgrid.com")
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sending email: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// ConsoleService logs messages instead of sending them; used in dev and tests.
type ConsoleService struct {
	mu   sync.Mutex
	sent []Message

	// Quiet suppresses log output; tests set it.
	Quiet bool
}

var _ EmailService = (*ConsoleService)(nil)

// NewConsoleService creates a console transport.
func NewConsoleService() *ConsoleService {
	return &ConsoleService{}
}

// Send records the message and writes it to the log.
func (svc *ConsoleService) Send(_ context.Context, msg Message) error {
	svc.mu.Lock()
	svc.sent = append(svc.sent, msg)
	svc.mu.Unlock()

	if !svc.Quiet {
		log.Printf("email to %s\nSubject: %s\n\n%s", msg.To, msg.Subject, msg.Body)
	}
	return nil
}

// Sent returns a copy of every message sent so far.
func (svc *ConsoleService) Sent() []Message {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]Message, len(svc.sent))
	copy(out, svc.sent)
	return out
}
