package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/resume-analyzer/internal/models"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrPersistenceUnavailable = errors.New("persistence is not configured")
)

type UserRepository interface {
	FindByClerkID(ctx context.Context, clerkID string) (*models.User, error)
	EnsureUser(ctx context.Context, clerkID, username string) error
	IncrementAnalysisCount(ctx context.Context, clerkID string) error
	UpdateUsername(ctx context.Context, clerkID, username string) error
	DeleteByClerkID(ctx context.Context, clerkID string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByClerkID implements UserRepository.
func (r *userRepository) FindByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("clerk_id = ?", clerkID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// EnsureUser implements UserRepository. An existing row is left untouched.
func (r *userRepository) EnsureUser(ctx context.Context, clerkID, username string) error {
	user := &models.User{
		ClerkID:  clerkID,
		Username: username,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit("ID").
		Create(user).Error
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// IncrementAnalysisCount implements UserRepository.
func (r *userRepository) IncrementAnalysisCount(ctx context.Context, clerkID string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("clerk_id = ?", clerkID).
		Updates(map[string]interface{}{
			"analysis_count": gorm.Expr("analysis_count + ?", 1),
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to increment analysis count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUsername implements UserRepository.
func (r *userRepository) UpdateUsername(ctx context.Context, clerkID, username string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("clerk_id = ?", clerkID).
		Updates(map[string]interface{}{
			"username":   username,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update username: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteByClerkID implements UserRepository.
func (r *userRepository) DeleteByClerkID(ctx context.Context, clerkID string) error {
	if err := r.db.WithContext(ctx).Where("clerk_id = ?", clerkID).Delete(&models.User{}).Error; err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
