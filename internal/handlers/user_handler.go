package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-analyzer/internal/auth"
	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/repositories"
)

// premiumRemaining is reported for premium users, who have no quota.
const premiumRemaining = 999

type UserHandler struct {
	userRepo  repositories.UserRepository
	freeQuota int
	logger    *slog.Logger
}

func NewUserHandler(userRepo repositories.UserRepository, freeQuota int, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userRepo:  userRepo,
		freeQuota: freeQuota,
		logger:    logger,
	}
}

// HandleGetUser returns the caller's bookkeeping record, or a default record
// when none is stored or persistence is unavailable.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	subject := auth.SubjectFrom(c)

	user, err := h.userRepo.FindByClerkID(c.UserContext(), subject)
	if err != nil {
		if !errors.Is(err, repositories.ErrUserNotFound) && !errors.Is(err, repositories.ErrPersistenceUnavailable) {
			h.logger.Error("failed to load user, serving default record", "subject", subject, "error", err)
		}
		return c.JSON(h.defaultRecord(subject))
	}

	return c.JSON(models.UserResponse{
		User:          user,
		AnalysisCount: user.AnalysisCount,
		IsPremium:     user.IsPremium,
		Remaining:     h.remaining(user),
	})
}

func (h *UserHandler) remaining(user *models.User) int {
	if user.IsPremium {
		return premiumRemaining
	}
	return max(0, h.freeQuota-user.AnalysisCount)
}

func (h *UserHandler) defaultRecord(subject string) models.UserResponse {
	return models.UserResponse{
		User: models.UserSummary{
			ID:       subject,
			Username: models.DefaultUsername(subject),
		},
		AnalysisCount: 0,
		IsPremium:     false,
		Remaining:     h.freeQuota,
	}
}
