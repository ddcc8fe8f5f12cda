package repositories

import (
	"context"

	"alfredoptarigan/resume-analyzer/internal/models"
)

// nopUserRepository stands in when no database is configured. Writes succeed
// without effect; reads report ErrPersistenceUnavailable so callers can fall back.
type nopUserRepository struct{}

func NewNopUserRepository() UserRepository {
	return nopUserRepository{}
}

func (nopUserRepository) FindByClerkID(context.Context, string) (*models.User, error) {
	return nil, ErrPersistenceUnavailable
}

func (nopUserRepository) EnsureUser(context.Context, string, string) error { return nil }

func (nopUserRepository) IncrementAnalysisCount(context.Context, string) error { return nil }

func (nopUserRepository) UpdateUsername(context.Context, string, string) error { return nil }

func (nopUserRepository) DeleteByClerkID(context.Context, string) error { return nil }
