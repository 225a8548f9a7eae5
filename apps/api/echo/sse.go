package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const mimeEventStream = "text/event-stream"

// openEventStream commits the headers of a server-sent events response.
func openEventStream(ctx echo.Context) *echo.Response {
	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, mimeEventStream)
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()
	return res
}
