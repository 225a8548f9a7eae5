package chat

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultMaxHistory = 10
)

var (
	ErrBusy        = errors.New("AI is currently busy. Please try again in a moment.")
	ErrUnavailable = errors.New("AI service temporarily unavailable.")
	ErrFailed      = errors.New("Failed to get AI response")
)

type (
	Message struct {
		Role    string `json:"role" validate:"required,oneof=user assistant"`
		Content string `json:"content" validate:"required"`
	}

	Request struct {
		Messages []Message `json:"messages" validate:"required,min=1,dive"`
		Type     Kind      `json:"type"`
	}

	// Stream yields the text deltas of one completion.
	Stream interface {
		// Next returns io.EOF when the completion is over.
		Next() (string, error)
		Close() error
	}

	// Gateway opens completion streams on a model provider.
	Gateway interface {
		Open(ctx context.Context, messages []Message) (Stream, error)
	}
)

// GatewayError is a non-2xx provider response.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("ai gateway error %d: %s", e.StatusCode, e.Body)
}

// MapGatewayError translates a provider failure into the error shown to users.
func MapGatewayError(err error) error {
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		return ErrFailed
	}
	switch gwErr.StatusCode {
	case http.StatusTooManyRequests:
		return ErrBusy
	case http.StatusPaymentRequired:
		return ErrUnavailable
	}
	return ErrFailed
}

type Service struct {
	gw         Gateway
	validate   *validator.Validate
	logger     core.Logger
	maxHistory int
}

func NewService(gw Gateway, validate *validator.Validate, logger core.Logger, conf *core.Config) *Service {
	maxHistory := conf.Chat.MaxHistory
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Service{gw: gw, validate: validate, logger: logger, maxHistory: maxHistory}
}

// Prompt returns the messages sent to the model: the system prompt of req.Type
// followed by the latest conversation messages.
func (svc *Service) Prompt(req Request) []Message {
	history := req.Messages
	if len(history) > svc.maxHistory {
		history = history[len(history)-svc.maxHistory:]
	}
	msgs := make([]Message, 0, len(history)+1)
	msgs = append(msgs, Message{Role: RoleSystem, Content: SystemPrompt(req.Type)})
	return append(msgs, history...)
}

// Open validates req and starts the completion stream.
func (svc *Service) Open(ctx context.Context, req Request) (Stream, error) {
	if err := svc.validate.Struct(req); err != nil {
		return nil, err
	}
	stream, err := svc.gw.Open(ctx, svc.Prompt(req))
	if err != nil {
		svc.logger.Error("opening ai stream", err, map[string]interface{}{"type": string(req.Type)})
		return nil, MapGatewayError(err)
	}
	return stream, nil
}
