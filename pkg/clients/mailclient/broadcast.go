package mailclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

const emailInterval = 3 * time.Second

// SendMessage emails every recipient matching the target audience and records
// the broadcast. A partial delivery still records the message but returns an
// error naming the failed count.
func (c *Client) SendMessage(ctx context.Context, title, body, targetAudience, priority string) error {
	users, err := c.users.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch recipients: %w", err)
	}

	var sent, failed int
	for _, user := range users {
		if !user.Active || user.Email == "" || !audienceMatches(targetAudience, user.Role) {
			continue
		}
		if err := c.sendEmail(user.Email, title, body); err != nil {
			c.logger.Warn("Failed to send broadcast email",
				zap.String("userId", user.ID),
				zap.Error(err))
			failed++
			continue
		}
		sent++
	}

	c.logger.Info("Broadcast sent",
		zap.String("title", title),
		zap.String("audience", targetAudience),
		zap.Int("sent", sent),
		zap.Int("failed", failed))

	message := &model.Message{
		ID:       uuid.New().String(),
		Title:    title,
		Body:     body,
		Audience: targetAudience,
		Priority: priority,
		SentAt:   time.Now().UTC(),
	}
	if err := c.messages.InsertMessage(ctx, message); err != nil {
		return fmt.Errorf("failed to record broadcast message: %w", err)
	}

	if failed > 0 {
		return model.NewDomainError(model.ErrNetwork, "failed to deliver to %d of %d recipients", failed, sent+failed)
	}

	return nil
}

func audienceMatches(audience string, role model.UserRole) bool {
	switch audience {
	case model.AudienceAll, "":
		return true
	case "scouts":
		return role == model.RoleScout
	case "parents":
		return role == model.RoleParent
	case "leadership":
		return role.IsLeadership()
	}
	return false
}

// sendEmail sends one email, throttled to respect Gmail API rate limits
func (c *Client) sendEmail(to, subject, body string) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if !c.lastSendTime.IsZero() {
		elapsed := time.Since(c.lastSendTime)
		if elapsed < emailInterval {
			time.Sleep(emailInterval - elapsed)
		}
	}

	raw := fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s", to, subject, body)
	gmailMessage := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}

	if _, err := c.service.Users.Messages.Send("me", gmailMessage).Do(); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	c.lastSendTime = time.Now()
	return nil
}
