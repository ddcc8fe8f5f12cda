package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-analyzer/internal/models"
)

// DevSubject is the identity used when no identity provider is configured.
const DevSubject = "dev_user"

const subjectLocal = "auth_subject"

var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves a bearer token to the caller's subject id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// StaticAuthenticator accepts every request as one fixed subject.
type StaticAuthenticator struct {
	Subject string
}

func NewStaticAuthenticator() *StaticAuthenticator {
	return &StaticAuthenticator{Subject: DevSubject}
}

// Authenticate implements Authenticator.
func (s *StaticAuthenticator) Authenticate(context.Context, string) (string, error) {
	return s.Subject, nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's subject for SubjectFrom.
func RequireAuth(authn Authenticator, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))

		subject, err := authn.Authenticate(c.UserContext(), token)
		if err != nil || subject == "" {
			logger.Debug("rejecting unauthenticated request", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{Error: "Unauthorized"})
		}

		c.Locals(subjectLocal, subject)
		return c.Next()
	}
}

// SubjectFrom returns the subject stored by RequireAuth, or "".
func SubjectFrom(c *fiber.Ctx) string {
	subject, _ := c.Locals(subjectLocal).(string)
	return subject
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
