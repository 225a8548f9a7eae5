package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	echoapi "github.com/KushalGupta-07/Smart-Admission-System/apps/api/echo"
	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
	"github.com/KushalGupta-07/Smart-Admission-System/core/chat"
	"github.com/KushalGupta-07/Smart-Admission-System/core/profile"
	"github.com/KushalGupta-07/Smart-Admission-System/core/stats"
	"github.com/KushalGupta-07/Smart-Admission-System/core/user"
	emailsvc "github.com/KushalGupta-07/Smart-Admission-System/services/email"
	"github.com/KushalGupta-07/Smart-Admission-System/services/llm"
	logsvc "github.com/KushalGupta-07/Smart-Admission-System/services/logger"
	"github.com/KushalGupta-07/Smart-Admission-System/services/objectstore"
	"github.com/KushalGupta-07/Smart-Admission-System/services/ratelimit"
	"github.com/KushalGupta-07/Smart-Admission-System/services/session"
	"github.com/KushalGupta-07/Smart-Admission-System/storage/changefeed"
	"github.com/KushalGupta-07/Smart-Admission-System/storage/database"
	inmemdb "github.com/KushalGupta-07/Smart-Admission-System/storage/database/inmem"
	sqlxrepos "github.com/KushalGupta-07/Smart-Admission-System/storage/database/sqlx"
)

// storage is what the services need from a database backend.
type storage struct {
	usrRepo  user.Repository
	profRepo profile.Repository
	appRepo  interface {
		application.Repository
		stats.Source
	}
	tx    core.Transactor
	feed  core.ChangeFeed
	close func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	feedLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "FEED : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	feedLogger.Enable(!conf.Debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	profile.InitValidators(validate, translator)
	application.InitValidators(validate, translator)

	if err := core.ParseEmailTemplates(conf); err != nil {
		logger.Fatal("parsing email templates", err)
	}
	if err := user.LoadCommonPasswords(); err != nil {
		logger.Fatal("loading common passwords", err)
	}

	// set up DB
	store, err := setUpStorage(ctx, conf, feedLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err := store.close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up redis backed sessions & rate limits, or their in-process versions
	var (
		sessions user.SessionStore = session.NewMemoryStore()
		limiter  core.RateLimiter  = ratelimit.NewMemoryLimiter()
	)
	if conf.Redis.URL != "" {
		var client *redis.Client
		if client, err = session.NewRedisClient(ctx, conf.Redis.URL); err != nil {
			logger.Fatal("connecting to redis", err)
		}
		defer func() { _ = client.Close() }()
		sessions = session.NewRedisStore(client)
		limiter = ratelimit.NewRedisLimiter(client, logger)
	}

	docStore, err := setUpObjectStore(ctx, conf)
	if err != nil {
		logger.Fatal("setting up object storage", err)
	}

	gateway, closeGateway, err := setUpChatGateway(ctx, conf)
	if err != nil {
		logger.Fatal("setting up ai gateway", err)
	}
	defer func() { _ = closeGateway() }()

	// set up services
	mailSvc := emailsvc.New(conf, logger)
	usrSvc := user.NewService(store.usrRepo, sessions, mailSvc, logger, validate, conf)
	profSvc := profile.NewService(store.profRepo, validate)
	notifier := emailsvc.NewStatusNotifier(mailSvc, emailsvc.IndiaLocation())
	appSvc := application.NewService(store.appRepo, profSvc, usrSvc, docStore, store.tx, validate, logger)
	reviewSvc := application.NewReviewService(store.appRepo, usrSvc, notifier, docStore, store.tx, validate, logger, conf)
	chatSvc := chat.NewService(gateway, validate, logger, conf)

	agg := stats.NewAggregator(store.appRepo, store.feed, logger, emailsvc.IndiaLocation())
	if err = agg.Start(ctx); err != nil {
		logger.Fatal("starting stats aggregator", err)
	}
	defer agg.Stop()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Address,
		SignalShutdown: func() {
			select {
			case shutdown <- syscall.SIGTERM:
			default:
			}
		},
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		Limiter:        limiter,
		UserSvc:        usrSvc,
		ProfileSvc:     profSvc,
		AppSvc:         appSvc,
		ReviewSvc:      reviewSvc,
		ChatSvc:        chatSvc,
		Stats:          agg,
	})
	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	sctx, scancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer scancel()
	if err = server.Stop(sctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpStorage(ctx context.Context, conf *core.Config, logger core.Logger) (*storage, error) {
	if conf.Database.Engine == "memory" {
		db := inmemdb.Open()
		feed := changefeed.NewBroker()
		db.OnChange(feed.Publish)
		return &storage{
			usrRepo:  inmemdb.NewUserRepository(db),
			profRepo: inmemdb.NewProfileRepository(db),
			appRepo:  inmemdb.NewApplicationRepository(db),
			tx:       db,
			feed:     feed,
			close:    func() error { return nil },
		}, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}

	listener, err := changefeed.NewListener(database.ConnString(conf), logger)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "starting change feed")
	}
	go func() {
		if err := listener.Run(ctx); err != nil {
			logger.Error("change feed stopped", err)
		}
	}()

	return &storage{
		usrRepo:  sqlxrepos.NewUserRepository(db),
		profRepo: sqlxrepos.NewProfileRepository(db),
		appRepo:  sqlxrepos.NewApplicationRepository(db),
		tx:       database.NewTransactor(db),
		feed:     listener,
		close:    db.Close,
	}, nil
}

func setUpObjectStore(ctx context.Context, conf *core.Config) (core.ObjectStore, error) {
	if conf.Storage.Backend == "s3" {
		return objectstore.NewS3Store(ctx, conf)
	}
	return objectstore.NewMemoryStore(conf.Storage.Bucket), nil
}

func setUpChatGateway(ctx context.Context, conf *core.Config) (chat.Gateway, func() error, error) {
	if conf.Chat.Provider == "gemini" {
		gw, err := llm.NewGeminiGateway(ctx, conf)
		if err != nil {
			return nil, nil, err
		}
		return gw, gw.Close, nil
	}
	return llm.NewHTTPGateway(conf, nil), func() error { return nil }, nil
}
