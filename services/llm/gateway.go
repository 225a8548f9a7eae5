package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/chat"
)

const maxErrorBody = 4 << 10

type completionRequest struct {
	Model    string         `json:"model"`
	Messages []chat.Message `json:"messages"`
	Stream   bool           `json:"stream"`
}

// HTTPGateway streams completions from an OpenAI compatible chat endpoint.
type HTTPGateway struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

var _ chat.Gateway = (*HTTPGateway)(nil)

func NewHTTPGateway(conf *core.Config, client *http.Client) *HTTPGateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPGateway{
		url:    conf.Chat.GatewayURL,
		apiKey: conf.Chat.APIKey,
		model:  conf.Chat.Model,
		client: client,
	}
}

func (gw *HTTPGateway) Open(ctx context.Context, messages []chat.Message) (chat.Stream, error) {
	body, err := json.Marshal(completionRequest{Model: gw.model, Messages: messages, Stream: true})
	if err != nil {
		return nil, errors.Wrap(err, "encoding completion request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gw.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "building completion request")
	}
	req.Header.Set("Authorization", "Bearer "+gw.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	res, err := gw.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "posting completion request")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		defer res.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &chat.GatewayError{StatusCode: res.StatusCode, Body: string(msg)}
	}
	return &httpStream{Decoder: chat.NewDecoder(res.Body), body: res.Body}, nil
}

type httpStream struct {
	*chat.Decoder
	body io.Closer
}

func (s *httpStream) Close() error { return s.body.Close() }
