package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/trooptools/shiftwise/internal/api"
	"github.com/trooptools/shiftwise/internal/config"
	"github.com/trooptools/shiftwise/pkg/clients/mailclient"
	"github.com/trooptools/shiftwise/pkg/core/model"
	"github.com/trooptools/shiftwise/pkg/db"
	"github.com/trooptools/shiftwise/pkg/postgres"
	"github.com/trooptools/shiftwise/pkg/utils"
	"github.com/trooptools/shiftwise/pkg/utils/logging"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "Path to shiftwise.yaml (defaults to current or home directory)")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx := context.Background()

	logger, err := logging.InitLogger("server")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwtSecret must be set to run the server")
	}

	logger.Info("Connecting to database")
	database, err := postgres.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	messenger := initMessenger(ctx, database, logger)

	server := api.NewServer(database, database, database, database, database, messenger,
		logger, cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("Server starting", zap.String("addr", addr))
	return server.Router().Run(addr)
}

// initMessenger builds the Gmail broadcast client. Without OAuth credentials
// the server still runs; broadcasts then surface as delivery failures.
func initMessenger(ctx context.Context, database *postgres.DB, logger *zap.Logger) db.MessagingService {
	oauthCfg, err := config.LoadOAuthClient()
	if err != nil {
		logger.Warn("Mail client disabled", zap.Error(err))
		return unconfiguredMessenger{}
	}

	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		logger.Warn("Mail client disabled", zap.Error(err))
		return unconfiguredMessenger{}
	}

	token, err := utils.GetTokenWithFlow(ctx, oauthConfig)
	if err != nil {
		logger.Warn("Mail client disabled", zap.Error(err))
		return unconfiguredMessenger{}
	}

	client, err := mailclient.NewClient(ctx, oauthCfg, token, database, database, logger)
	if err != nil {
		logger.Warn("Mail client disabled", zap.Error(err))
		return unconfiguredMessenger{}
	}

	logger.Info("Mail client ready")
	return client
}

type unconfiguredMessenger struct{}

func (unconfiguredMessenger) SendMessage(ctx context.Context, title, body, targetAudience, priority string) error {
	return model.NewDomainError(model.ErrNetwork, "mail client is not configured")
}
