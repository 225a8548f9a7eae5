package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
	"github.com/KushalGupta-07/Smart-Admission-System/core/chat"
	"github.com/KushalGupta-07/Smart-Admission-System/core/profile"
	"github.com/KushalGupta-07/Smart-Admission-System/core/stats"
	"github.com/KushalGupta-07/Smart-Admission-System/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		SignalShutdown func()

		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Limiter    core.RateLimiter

		UserSvc    user.Service
		ProfileSvc *profile.Service
		AppSvc     *application.Service
		ReviewSvc  *application.ReviewService
		ChatSvc    *chat.Service
		Stats      *stats.Aggregator
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
		auth *authenticator
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.SignalShutdown == nil {
		opts.SignalShutdown = func() {}
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
		auth: newAuthenticator(opts.Conf, opts.UserSvc),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: conf.Server.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	authed := []echo.MiddlewareFunc{s.auth.jwt(), s.auth.sessionMiddleware()}

	registerAuthAPI(v1, authed, s.auth, s.opts.UserSvc, s.opts.Validate, s.opts.Logger)
	registerProfileAPI(v1, authed, s.opts.ProfileSvc)
	registerApplicationAPI(v1, authed, s.opts.AppSvc, s.opts.ReviewSvc)
	registerReviewAPI(v1, authed, s.opts.ReviewSvc, rateLimitMiddleware(
		s.opts.Limiter, "notify", conf.RateLimit.NotifyLimit, conf.RateLimit.NotifyWindow,
	))
	registerStatsAPI(v1, authed, s.opts.Stats)
	registerChatAPI(v1, authed, s.opts.ChatSvc, s.opts.Logger, rateLimitMiddleware(
		s.opts.Limiter, "chat", conf.RateLimit.ChatLimit, conf.RateLimit.ChatWindow,
	))
}

func (s *server) Start() {
	s.app.Server.ReadTimeout = s.opts.Conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = s.opts.Conf.Server.WriteTimeout
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.app.Logger.Fatal(err)
	}
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Smart Admission API!")
}
