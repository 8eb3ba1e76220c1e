package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hireloop-ai/hireloop/internal/agent"
	"github.com/hireloop-ai/hireloop/internal/api"
	"github.com/hireloop-ai/hireloop/internal/auth"
	"github.com/hireloop-ai/hireloop/internal/cache"
	"github.com/hireloop-ai/hireloop/internal/dashboard"
	"github.com/hireloop-ai/hireloop/internal/interview"
	"github.com/hireloop-ai/hireloop/internal/lockfile"
	"github.com/hireloop-ai/hireloop/internal/store"
	"github.com/hireloop-ai/hireloop/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Hireloop state data
	DefaultStateDir = "/var/lib/hireloop"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "hireloop.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the service
	slog.Info("Bootstrapping Hireloop with configured modules")
	slog.Debug("Final configuration", "dsn_set", *flags.dbDSN != "", "redis_set", *flags.redisURL != "", "api_addr", *flags.apiAddr)
	if err := run(ctx, flags); err != nil {
		slog.Error("Hireloop failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Hireloop exited successfully")
}

func run(ctx context.Context, flags Flags) error {
	// SQLite shares no server, so guard the state directory against a second instance.
	if dsn := *flags.dbDSN; dsn != "" && store.DetectDSNType(dsn) != "postgres" {
		lock, err := lockfile.AcquireLock(filepath.Dir(dsn))
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	st, err := buildStore(flags)
	if err != nil {
		return err
	}
	defer st.Close()

	kv, err := cache.NewClient(ctx, cache.WithURL(*flags.redisURL))
	if err != nil {
		return err
	}
	defer kv.Close()

	provider, err := agent.NewOpenAIProvider(buildAgentOptions(flags)...)
	if err != nil {
		return err
	}

	authSvc, err := auth.NewService(auth.WithSecret(*flags.authSecret))
	if err != nil {
		return err
	}

	ctrl := interview.NewController(st, kv, provider, buildInterviewOptions(flags)...)
	dash := dashboard.NewService(st, kv)

	srv := api.NewServer(st, kv, ctrl, dash, authSvc, buildAPIOptions(flags)...)
	return srv.Run(ctx)
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	RedisURL    string
	StateDir    string
	OpenAIKey   string
	OpenAIModel string
	AuthSecret  string
	APIAddr     string
	AgentID     string
	AgentVer    string
}

// Flags holds command line flag values
type Flags struct {
	dbDSN      *string
	redisURL   *string
	openaiKey  *string
	model      *string
	authSecret *string
	apiAddr    *string
	agentID    *string
	agentVer   *string
	turnLimit  *int
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		StateDir:    os.Getenv("HIRELOOP_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),
		AuthSecret:  os.Getenv("AUTH_SECRET"),
		APIAddr:     os.Getenv("API_ADDR"),
		AgentID:     os.Getenv("AGENT_ID"),
		AgentVer:    os.Getenv("AGENT_VERSION"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No HIRELOOP_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	if config.RedisURL == "" {
		config.RedisURL = "redis://localhost:6379/0"
		slog.Debug("No REDIS_URL set, using local default")
	}

	// An unset secret invalidates every token at restart; fine for local
	// development, unacceptable in production.
	if config.AuthSecret == "" {
		secret, err := util.GenerateSecureHex(64)
		if err != nil {
			slog.Error("Failed to generate ephemeral auth secret", "error", err)
			os.Exit(1)
		}
		config.AuthSecret = secret
		slog.Warn("No AUTH_SECRET set, generated an ephemeral one; sessions will not survive a restart")
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"REDIS_URL_SET", config.RedisURL != "",
		"HIRELOOP_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"AUTH_SECRET_SET", config.AuthSecret != "",
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		dbDSN:      flag.String("db-dsn", config.DatabaseURL, "database DSN: SQLite path or Postgres URL (overrides $DATABASE_URL)"),
		redisURL:   flag.String("redis-url", config.RedisURL, "Redis connection URL (overrides $REDIS_URL)"),
		openaiKey:  flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		model:      flag.String("openai-model", config.OpenAIModel, "OpenAI chat model (overrides $OPENAI_MODEL)"),
		authSecret: flag.String("auth-secret", config.AuthSecret, "JWT signing secret (overrides $AUTH_SECRET)"),
		apiAddr:    flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		agentID:    flag.String("agent-id", config.AgentID, "interviewer agent profile id (overrides $AGENT_ID)"),
		agentVer:   flag.String("agent-version", config.AgentVer, "interviewer agent version (overrides $AGENT_VERSION)"),
		turnLimit:  flag.Int("turn-limit", 0, "question/answer turns per interview (0 = default)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"dbDSN_set", *flags.dbDSN != "",
		"redisURL_set", *flags.redisURL != "",
		"openaiKeySet", *flags.openaiKey != "",
		"model", *flags.model,
		"apiAddr", *flags.apiAddr,
		"turnLimit", *flags.turnLimit)

	return flags
}

// buildStore selects a durable-store backend from the DSN.
func buildStore(flags Flags) (store.Store, error) {
	if *flags.dbDSN == "" {
		slog.Warn("No database DSN provided, using in-memory store; records will not survive a restart")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(store.WithDSN(*flags.dbDSN))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", *flags.dbDSN)
	return store.NewSQLiteStore(store.WithDSN(*flags.dbDSN))
}

// buildAgentOptions constructs chat provider configuration options
func buildAgentOptions(flags Flags) []agent.Option {
	var opts []agent.Option
	if *flags.openaiKey != "" {
		opts = append(opts, agent.WithAPIKey(*flags.openaiKey))
	}
	if *flags.model != "" {
		opts = append(opts, agent.WithModel(*flags.model))
	}
	return opts
}

// buildInterviewOptions constructs interview controller configuration options
func buildInterviewOptions(flags Flags) []interview.Option {
	var opts []interview.Option
	if *flags.turnLimit > 0 {
		opts = append(opts, interview.WithTurnLimit(*flags.turnLimit))
	}
	if *flags.agentID != "" || *flags.agentVer != "" {
		opts = append(opts, interview.WithAgent(*flags.agentID, *flags.agentVer))
	}
	return opts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var opts []api.Option
	if *flags.apiAddr != "" {
		opts = append(opts, api.WithAddr(*flags.apiAddr))
	}
	return opts
}
