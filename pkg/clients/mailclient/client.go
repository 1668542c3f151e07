package mailclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/trooptools/shiftwise/internal/config"
	"github.com/trooptools/shiftwise/pkg/db"
	"github.com/trooptools/shiftwise/pkg/utils"
)

// Client broadcasts troop announcements over the Gmail API and records each
// broadcast as a message
type Client struct {
	service      *gmail.Service
	users        db.UserStore
	messages     db.MessageStore
	logger       *zap.Logger
	lastSendTime time.Time
	sendMutex    sync.Mutex
}

// NewClient creates a new Gmail-backed broadcast client using an existing
// OAuth token
func NewClient(ctx context.Context, oauthCfg *config.OAuthClientConfig, token *oauth2.Token, users db.UserStore, messages db.MessageStore, logger *zap.Logger) (*Client, error) {
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	httpClient := oauthConfig.Client(ctx, token)

	service, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Client{
		service:  service,
		users:    users,
		messages: messages,
		logger:   logger,
	}, nil
}
