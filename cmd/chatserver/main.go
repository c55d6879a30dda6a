// Command chatserver is the entry point for the multi-tenant chat
// backend's HTTP API, grounded on the teacher's
// cmd/opencode-server/main.go bootstrap shape: load config, wire
// storage, wire the domain layer, start the server, wait for a signal,
// shut down gracefully.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sorriso/simplehybridchat/internal/account"
	"github.com/sorriso/simplehybridchat/internal/authz"
	"github.com/sorriso/simplehybridchat/internal/chatengine"
	"github.com/sorriso/simplehybridchat/internal/config"
	"github.com/sorriso/simplehybridchat/internal/conversation"
	"github.com/sorriso/simplehybridchat/internal/docstore/mongoadapter"
	"github.com/sorriso/simplehybridchat/internal/filecatalog"
	"github.com/sorriso/simplehybridchat/internal/llm"
	"github.com/sorriso/simplehybridchat/internal/llm/claudeprovider"
	"github.com/sorriso/simplehybridchat/internal/llm/geminiprovider"
	"github.com/sorriso/simplehybridchat/internal/llm/ollamaprovider"
	"github.com/sorriso/simplehybridchat/internal/llm/openaiprovider"
	"github.com/sorriso/simplehybridchat/internal/logging"
	"github.com/sorriso/simplehybridchat/internal/maintenance"
	"github.com/sorriso/simplehybridchat/internal/model"
	"github.com/sorriso/simplehybridchat/internal/objectstore/s3adapter"
	"github.com/sorriso/simplehybridchat/internal/principal"
	"github.com/sorriso/simplehybridchat/internal/server"
	"github.com/sorriso/simplehybridchat/internal/settings"
)

var (
	port     = flag.Int("port", 8080, "HTTP listen port")
	mongoURI = flag.String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	mongoDB  = flag.String("mongo-db", "simplehybridchat", "MongoDB database name")
)

func main() {
	flag.Parse()

	logging.Init(logging.Config{
		Level:  logging.ParseLevel(os.Getenv("LOG_LEVEL")),
		Output: os.Stderr,
		Pretty: os.Getenv("LOG_PRETTY") == "true",
	})

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	store, err := mongoadapter.Connect(ctx, *mongoURI, *mongoDB)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to document store")
	}

	objStore, err := s3adapter.Connect(ctx, s3adapter.Config{
		Endpoint:  cfg.ObjectStore.Endpoint,
		AccessKey: cfg.ObjectStore.AccessKey,
		SecretKey: cfg.ObjectStore.SecretKey,
		UseTLS:    cfg.ObjectStore.UseTLS,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to object store")
	}
	if exists, err := objStore.BucketExists(ctx, cfg.ObjectStore.DefaultBucket); err == nil && !exists {
		if err := objStore.CreateBucket(ctx, cfg.ObjectStore.DefaultBucket); err != nil {
			logging.Fatal().Err(err).Msg("failed to create object store bucket")
		}
	}

	accounts := account.New(store)
	conversations := conversation.NewConversationRepo(store)
	messages := conversation.NewMessageRepo(store)
	convGroups := conversation.NewConversationGroupRepo(store)
	settingsRepo := settings.New(store)
	fileRepo := filecatalog.NewFileRepo(store)
	queueRepo := filecatalog.NewQueueRepo(store)

	if err := accounts.EnsureIndexes(ctx); err != nil {
		logging.Fatal().Err(err).Msg("failed to ensure account indexes")
	}
	if err := conversation.EnsureIndexes(ctx, store); err != nil {
		logging.Fatal().Err(err).Msg("failed to ensure conversation indexes")
	}
	if err := settings.EnsureIndexes(ctx, store); err != nil {
		logging.Fatal().Err(err).Msg("failed to ensure settings indexes")
	}
	if err := filecatalog.EnsureIndexes(ctx, store); err != nil {
		logging.Fatal().Err(err).Msg("failed to ensure file catalog indexes")
	}

	filesService := filecatalog.NewService(fileRepo, queueRepo, objStore, cfg.ObjectStore.DefaultBucket)

	registry := llm.NewRegistry()
	registerProviders(registry, cfg)

	policy := authz.New()
	resolver := principal.New(cfg, accounts)
	maintFlag := maintenance.New(cfg.MaintenanceMode, cfg.MaintenanceMessage)

	engine := chatengine.New(conversations, messages, settingsRepo, registry, string(cfg.LLMProvider), policy)

	if err := bootstrapRootUser(ctx, accounts, cfg.RootUser); err != nil {
		logging.Fatal().Err(err).Msg("failed to bootstrap root user")
	}

	srvConfig := server.DefaultConfig()
	srvConfig.Port = *port

	srv := server.New(srvConfig, server.Deps{
		AppConfig:     cfg,
		Resolver:      resolver,
		Policy:        policy,
		Maintenance:   maintFlag,
		Accounts:      accounts,
		Conversations: conversations,
		Messages:      messages,
		ConvGroups:    convGroups,
		Settings:      settingsRepo,
		Files:         filesService,
		FileRepo:      fileRepo,
		Engine:        engine,
	})

	go func() {
		logging.Info().Int("port", *port).Msg("chatserver listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}
}

// registerProviders wires exactly the factories a deployment might
// select via LLM_PROVIDER. openaiprovider backs three distinct names
// since "openai", "databricks", and "openrouter" all speak the same
// OpenAI-compatible wire protocol (see internal/llm/openaiprovider's
// package doc).
func registerProviders(registry *llm.Registry, cfg config.Config) {
	registry.Register(string(config.ProviderOpenAI), func(context.Context) (llm.Provider, error) {
		return openaiprovider.New(string(config.ProviderOpenAI), cfg.Provider), nil
	})
	registry.Register(string(config.ProviderDatabricks), func(context.Context) (llm.Provider, error) {
		return openaiprovider.New(string(config.ProviderDatabricks), cfg.Provider), nil
	})
	registry.Register(string(config.ProviderOpenRouter), func(context.Context) (llm.Provider, error) {
		return openaiprovider.New(string(config.ProviderOpenRouter), cfg.Provider), nil
	})
	registry.Register(string(config.ProviderClaude), func(context.Context) (llm.Provider, error) {
		return claudeprovider.New(cfg.Provider), nil
	})
	registry.Register(string(config.ProviderGemini), func(context.Context) (llm.Provider, error) {
		return geminiprovider.New(cfg.Provider), nil
	})
	registry.Register(string(config.ProviderOllama), func(context.Context) (llm.Provider, error) {
		return ollamaprovider.New(cfg.Provider), nil
	})
}

// bootstrapRootUser creates the configured root principal if no user
// with that email exists yet, so a fresh deployment always has one
// privileged account to administer the rest through.
func bootstrapRootUser(ctx context.Context, accounts *account.Repository, rootCfg config.RootUserConfig) error {
	if rootCfg.Email == "" || rootCfg.Password == "" {
		return nil
	}
	if _, err := accounts.FindByEmail(ctx, rootCfg.Email); err == nil {
		return nil
	}
	hash, err := principal.HashPassword(rootCfg.Password)
	if err != nil {
		return err
	}
	_, err = accounts.CreateUser(ctx, rootCfg.Name, rootCfg.Email, hash, model.RoleRoot)
	return err
}
