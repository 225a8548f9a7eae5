package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
	"github.com/KushalGupta-07/Smart-Admission-System/core/chat"
	"github.com/KushalGupta-07/Smart-Admission-System/core/profile"
	"github.com/KushalGupta-07/Smart-Admission-System/core/user"
)

var (
	errUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errRefreshExpired = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden  = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound   = echo.NewHTTPError(http.StatusNotFound, "not found")
	errBadRequestBody = echo.NewHTTPError(http.StatusBadRequest, "invalid request body")

	// sentinelCodes maps the domain errors shown to clients as they are.
	sentinelCodes = map[error]int{
		user.ErrNotFound:                 http.StatusNotFound,
		profile.ErrNotFound:              http.StatusNotFound,
		application.ErrNotFound:          http.StatusNotFound,
		application.ErrDocumentNotFound:  http.StatusNotFound,
		application.ErrAdmitCardNotFound: http.StatusNotFound,
		user.ErrInvalidCredentials:       http.StatusBadRequest,
		application.ErrSubmitNotAllowed:  http.StatusBadRequest,
		application.ErrInvalidStep:       http.StatusBadRequest,
		application.ErrInvalidTransition: http.StatusBadRequest,
		application.ErrNotEditable:       http.StatusConflict,
		core.ErrForbidden:                http.StatusForbidden,
		user.ErrAccountDeactivated:       http.StatusForbidden,
		user.ErrSessionRevoked:           http.StatusUnauthorized,
		core.ErrRateLimited:              http.StatusTooManyRequests,
		chat.ErrBusy:                     http.StatusTooManyRequests,
		chat.ErrUnavailable:              http.StatusPaymentRequired,
		chat.ErrFailed:                   http.StatusInternalServerError,
	}
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = core.TranslateErrors(origErr, translator)
		case *core.ValidationError:
			code = http.StatusBadRequest
			if origErr.Fields != nil {
				message = origErr.FieldMap()
			} else {
				message = origErr.Error()
			}
		case *application.NotificationError:
			code = http.StatusBadGateway
			message = errors.Cause(origErr.Err).Error()
			logger.Error("notification provider failed", err)
		default:
			if c, ok := sentinelCodes[origErr]; ok {
				code = c
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Name = claims.Name
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
