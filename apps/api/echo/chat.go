package echoapi

import (
	"io"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/chat"
)

type chatApi struct {
	svc    *chat.Service
	logger core.Logger
}

func registerChatAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	svc *chat.Service,
	logger core.Logger,
	chatLimit echo.MiddlewareFunc,
) {
	api := chatApi{svc: svc, logger: logger}

	mw := append(append([]echo.MiddlewareFunc{}, authed...), chatLimit)
	g.POST("/chat", api.stream, mw...)
}

// stream relays the completion as `data: {json}` chunks ending with `data: [DONE]`.
// Errors are only reported as such until the first chunk is sent.
func (api *chatApi) stream(ctx echo.Context) error {
	var req chat.Request
	if err := ctx.Bind(&req); err != nil {
		return errBadRequestBody
	}

	stream, err := api.svc.Open(ctx.Request().Context(), req)
	if err != nil {
		return errors.Wrap(err, "opening chat")
	}
	defer stream.Close()

	res := openEventStream(ctx)
	for {
		content, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Request().Context().Err() == nil {
				api.logger.Error("reading ai stream", err)
			}
			break
		}
		chunk, err := chat.EncodeChunk(content)
		if err != nil {
			return errors.Wrap(err, "encoding chunk")
		}
		if _, err := res.Write(chunk); err != nil {
			return nil // client gone
		}
		res.Flush()
	}
	_, _ = res.Write(chat.DoneChunk())
	res.Flush()
	return nil
}
