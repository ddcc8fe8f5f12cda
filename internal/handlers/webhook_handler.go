package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	svix "github.com/svix/svix-webhooks/go"

	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/repositories"
)

// WebhookHandler keeps the users table in step with Clerk user events.
type WebhookHandler struct {
	webhook  *svix.Webhook
	userRepo repositories.UserRepository
	logger   *slog.Logger
}

// NewWebhookHandler builds the handler. An empty or malformed secret leaves
// the endpoint answering "not configured".
func NewWebhookHandler(secret string, userRepo repositories.UserRepository, logger *slog.Logger) *WebhookHandler {
	h := &WebhookHandler{userRepo: userRepo, logger: logger}
	if secret == "" {
		return h
	}

	wh, err := svix.NewWebhook(secret)
	if err != nil {
		logger.Error("invalid webhook secret, webhooks disabled", "error", err)
		return h
	}
	h.webhook = wh
	return h
}

func (h *WebhookHandler) HandleClerkWebhook(c *fiber.Ctx) error {
	if h.webhook == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "Webhook secret not configured"})
	}

	headers := http.Header{}
	for key, values := range c.GetReqHeaders() {
		for _, v := range values {
			headers.Add(key, v)
		}
	}

	payload := c.Body()
	if err := h.webhook.Verify(payload, headers); err != nil {
		h.logger.Warn("webhook verification failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Webhook verification failed"})
	}

	var event models.ClerkWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Warn("webhook payload is not a user event", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid webhook payload"})
	}

	h.apply(c, event)
	return c.JSON(fiber.Map{"received": true})
}

func (h *WebhookHandler) apply(c *fiber.Ctx, event models.ClerkWebhookEvent) {
	ctx := c.UserContext()
	user := event.Data

	var err error
	switch event.Type {
	case "user.created":
		err = h.userRepo.EnsureUser(ctx, user.ID, user.DisplayName())
	case "user.updated":
		err = h.userRepo.UpdateUsername(ctx, user.ID, user.DisplayName())
	case "user.deleted":
		err = h.userRepo.DeleteByClerkID(ctx, user.ID)
	default:
		h.logger.Info("ignoring webhook event", "type", event.Type)
		return
	}

	if err != nil {
		h.logger.Error("failed to apply webhook event", "type", event.Type, "subject", user.ID, "error", err)
		return
	}
	h.logger.Info("applied webhook event", "type", event.Type, "subject", user.ID)
}
