package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	serverConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		AllowedOrigins            []string
	}

	dbConfig struct {
		Engine        string // postgres, memory
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	smtpConfig struct {
		Host          string
		Port          int
		User          string
		Password      string
		SkipTLSVerify bool
	}

	emailConfig struct {
		Backend        string // console, sendgrid, smtp
		SendgridAPIKey string
		SMTP           smtpConfig
	}

	storageConfig struct {
		Backend      string // s3, memory
		Bucket       string
		Region       string
		Endpoint     string
		SignedURLTTL time.Duration
	}

	redisConfig struct {
		URL string
	}

	rateLimitConfig struct {
		ChatLimit    int
		ChatWindow   time.Duration
		NotifyLimit  int
		NotifyWindow time.Duration
	}

	chatConfig struct {
		Provider     string // gateway, gemini
		GatewayURL   string
		APIKey       string
		Model        string
		GeminiAPIKey string
		GeminiModel  string
		MaxHistory   int
	}

	Config struct {
		Env                       string
		Build                     string
		Debug                     bool
		TestMode                  bool
		WorkDir                   string
		AppName                   string
		SecretKey                 string
		FrontendBaseURL           string
		PasswordResetTimeoutDelta time.Duration
		RollbarToken              string

		Server    serverConfig
		Database  dbConfig
		Email     emailConfig
		Storage   storageConfig
		Redis     redisConfig
		RateLimit rateLimitConfig
		Chat      chatConfig

		defaultFromEmail string
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	return *addr
}

func (db dbConfig) Address() string {
	return db.Host + ":" + db.Port
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Smart Admission")
	conf.SetDefault("secretKey", "0f$wq6-l2!adm1ss10n+k8x@zu^c3t7v(9j=p5yq*e4h_0mrb")
	conf.SetDefault("frontendBaseURL", "http://localhost:5173")
	conf.SetDefault("defaultFromEmail", "Admissions <noreply@localhost>")
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddress", ":8000")
	conf.SetDefault("serverDebugHost", ":4000")
	conf.SetDefault("serverReadTimeout", 10*time.Second)
	conf.SetDefault("serverWriteTimeout", 0) // SSE streams
	conf.SetDefault("serverShutdownTimeout", 10*time.Second)
	conf.SetDefault("jwtExpirationDelta", 24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("allowedOrigins", "*")

	conf.SetDefault("dbEngine", "postgres")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", "5432")
	conf.SetDefault("dbName", "admissions")
	conf.SetDefault("dbUser", "admissions")
	conf.SetDefault("dbPassword", "admissions")
	conf.SetDefault("dbAdminUser", "postgres")
	conf.SetDefault("dbDisableTLS", true)

	conf.SetDefault("emailBackend", "console")
	conf.SetDefault("smtpPort", 587)

	conf.SetDefault("storageBackend", "memory")
	conf.SetDefault("storageBucket", "documents")
	conf.SetDefault("storageRegion", "ap-south-1")
	conf.SetDefault("signedURLTTL", time.Hour)

	conf.SetDefault("chatRateLimit", 20)
	conf.SetDefault("chatRateWindow", time.Minute)
	conf.SetDefault("notifyRateLimit", 30)
	conf.SetDefault("notifyRateWindow", time.Minute)

	conf.SetDefault("chatProvider", "gateway")
	conf.SetDefault("chatGatewayURL", "https://ai.gateway.lovable.dev/v1/chat/completions")
	conf.SetDefault("chatModel", "google/gemini-3-flash-preview")
	conf.SetDefault("geminiModel", "gemini-1.5-flash")
	conf.SetDefault("chatMaxHistory", 10)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:                       env,
		Build:                     conf.GetString("build"),
		Debug:                     conf.GetBool("debug"),
		TestMode:                  conf.GetBool("testMode"),
		WorkDir:                   wd,
		AppName:                   conf.GetString("appName"),
		SecretKey:                 conf.GetString("secretKey"),
		FrontendBaseURL:           conf.GetString("frontendBaseURL"),
		PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),
		RollbarToken:              conf.GetString("rollbarToken"),
		Server: serverConfig{
			Host:                      conf.GetString("serverHost"),
			Address:                   conf.GetString("serverAddress"),
			DebugHost:                 conf.GetString("serverDebugHost"),
			ReadTimeout:               conf.GetDuration("serverReadTimeout"),
			WriteTimeout:              conf.GetDuration("serverWriteTimeout"),
			ShutdownTimeout:           conf.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
			AllowedOrigins:            splitList(conf.GetString("allowedOrigins")),
		},
		Database: dbConfig{
			Engine:        conf.GetString("dbEngine"),
			Host:          conf.GetString("dbHost"),
			Port:          conf.GetString("dbPort"),
			Name:          conf.GetString("dbName"),
			User:          conf.GetString("dbUser"),
			Password:      conf.GetString("dbPassword"),
			AdminUser:     conf.GetString("dbAdminUser"),
			AdminPassword: conf.GetString("dbAdminPassword"),
			DisableTLS:    conf.GetBool("dbDisableTLS"),
		},
		Email: emailConfig{
			Backend:        conf.GetString("emailBackend"),
			SendgridAPIKey: conf.GetString("sendgridApiKey"),
			SMTP: smtpConfig{
				Host:          conf.GetString("smtpHost"),
				Port:          conf.GetInt("smtpPort"),
				User:          conf.GetString("smtpUser"),
				Password:      conf.GetString("smtpPassword"),
				SkipTLSVerify: conf.GetBool("smtpSkipTLSVerify"),
			},
		},
		Storage: storageConfig{
			Backend:      conf.GetString("storageBackend"),
			Bucket:       conf.GetString("storageBucket"),
			Region:       conf.GetString("storageRegion"),
			Endpoint:     conf.GetString("storageEndpoint"),
			SignedURLTTL: conf.GetDuration("signedURLTTL"),
		},
		Redis: redisConfig{
			URL: conf.GetString("redisURL"),
		},
		RateLimit: rateLimitConfig{
			ChatLimit:    conf.GetInt("chatRateLimit"),
			ChatWindow:   conf.GetDuration("chatRateWindow"),
			NotifyLimit:  conf.GetInt("notifyRateLimit"),
			NotifyWindow: conf.GetDuration("notifyRateWindow"),
		},
		Chat: chatConfig{
			Provider:     conf.GetString("chatProvider"),
			GatewayURL:   conf.GetString("chatGatewayURL"),
			APIKey:       conf.GetString("chatApiKey"),
			Model:        conf.GetString("chatModel"),
			GeminiAPIKey: conf.GetString("geminiApiKey"),
			GeminiModel:  conf.GetString("geminiModel"),
			MaxHistory:   conf.GetInt("chatMaxHistory"),
		},
		defaultFromEmail: conf.GetString("defaultFromEmail"),
	}
}

// NewTestConfig returns a Config suited for unit tests; it never reads the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:                       "TEST",
		Build:                     "test",
		TestMode:                  true,
		AppName:                   "Smart Admission",
		SecretKey:                 "test-secret-key",
		FrontendBaseURL:           "http://localhost:5173",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: serverConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
			ShutdownTimeout:           time.Second,
		},
		Storage:   storageConfig{Backend: "memory", Bucket: "documents", SignedURLTTL: time.Hour},
		RateLimit: rateLimitConfig{ChatLimit: 3, ChatWindow: time.Minute, NotifyLimit: 3, NotifyWindow: time.Minute},
		Chat:      chatConfig{MaxHistory: 10},

		defaultFromEmail: "Admissions <noreply@test.local>",
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
