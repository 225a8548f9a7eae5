package llm

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/chat"
)

// GeminiGateway streams completions straight from the Gemini API.
type GeminiGateway struct {
	client    *genai.Client
	modelName string
}

var _ chat.Gateway = (*GeminiGateway)(nil)

func NewGeminiGateway(ctx context.Context, conf *core.Config) (*GeminiGateway, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(conf.Chat.GeminiAPIKey))
	if err != nil {
		return nil, errors.Wrap(err, "initializing gemini client")
	}
	return &GeminiGateway{client: client, modelName: conf.Chat.GeminiModel}, nil
}

func (gw *GeminiGateway) Close() error {
	return gw.client.Close()
}

func (gw *GeminiGateway) Open(ctx context.Context, messages []chat.Message) (chat.Stream, error) {
	model := gw.client.GenerativeModel(gw.modelName)
	cs := model.StartChat()

	var last *genai.Content
	for _, m := range messages {
		switch m.Role {
		case chat.RoleSystem:
			model.SystemInstruction = genai.NewUserContent(genai.Text(m.Content))
			continue
		}
		if last != nil {
			cs.History = append(cs.History, last)
		}
		last = &genai.Content{Role: geminiRole(m.Role), Parts: []genai.Part{genai.Text(m.Content)}}
	}
	if last == nil {
		return nil, errors.New("no message to send")
	}

	iter := cs.SendMessageStream(ctx, last.Parts...)
	// surface auth & quota errors before the response starts
	first, err := iter.Next()
	if err == iterator.Done {
		return &geminiStream{done: true}, nil
	}
	if err != nil {
		return nil, geminiError(err)
	}
	return &geminiStream{iter: iter, first: first}, nil
}

func geminiRole(role string) string {
	if role == chat.RoleAssistant {
		return "model"
	}
	return "user"
}

// geminiError gives API failures the status codes of the HTTP gateway.
func geminiError(err error) error {
	switch status.Code(err) {
	case codes.ResourceExhausted:
		return &chat.GatewayError{StatusCode: http.StatusTooManyRequests, Body: err.Error()}
	case codes.PermissionDenied, codes.Unauthenticated:
		return &chat.GatewayError{StatusCode: http.StatusPaymentRequired, Body: err.Error()}
	}
	return errors.Wrap(err, "streaming gemini response")
}

type geminiStream struct {
	iter  *genai.GenerateContentResponseIterator
	first *genai.GenerateContentResponse
	done  bool
}

func (s *geminiStream) Next() (string, error) {
	for !s.done {
		resp := s.first
		s.first = nil
		if resp == nil {
			var err error
			if resp, err = s.iter.Next(); err == iterator.Done {
				s.done = true
				break
			} else if err != nil {
				return "", geminiError(err)
			}
		}
		if text := responseText(resp); text != "" {
			return text, nil
		}
	}
	return "", io.EOF
}

func (s *geminiStream) Close() error { return nil }

func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		break // first candidate only
	}
	return sb.String()
}
