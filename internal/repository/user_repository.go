package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"

	"github.com/aimd54/workout-achievements/internal/models"
)

var goalValidator = validator.New()

// UserRepository handles user profile reads.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by id %s: %w", id, err)
	}
	return &user, nil
}

// SetWeeklyGoals validates and stores a user's goal configuration.
func (r *UserRepository) SetWeeklyGoals(ctx context.Context, userID string, goals *models.WeeklyGoals) error {
	if err := ValidateWeeklyGoals(goals); err != nil {
		return err
	}
	raw, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("failed to encode weekly goals: %w", err)
	}
	err = r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("weekly_goals", datatypes.JSON(raw)).Error
	if err != nil {
		return fmt.Errorf("failed to update weekly goals for user %s: %w", userID, err)
	}
	return nil
}

// ListProfiles returns every user with parsed goals, ordered by ID. A stored goal
// document that fails validation yields a nil Goals and is reported in GoalsErr.
func (r *UserRepository) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	profiles := make([]models.Profile, 0, len(users))
	for _, user := range users {
		goals, err := ParseWeeklyGoals(user.WeeklyGoals)
		profiles = append(profiles, models.Profile{User: user, Goals: goals, GoalsErr: err})
	}
	return profiles, nil
}

// ParseWeeklyGoals decodes and validates a stored goal document. Empty documents
// return nil goals.
func ParseWeeklyGoals(raw []byte) (*models.WeeklyGoals, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var goals models.WeeklyGoals
	if err := json.Unmarshal(raw, &goals); err != nil {
		return nil, fmt.Errorf("failed to decode weekly goals: %w", err)
	}
	if err := ValidateWeeklyGoals(&goals); err != nil {
		return nil, err
	}
	return &goals, nil
}

// ValidateWeeklyGoals checks target ranges and the exercise goal limit.
func ValidateWeeklyGoals(goals *models.WeeklyGoals) error {
	if goals == nil {
		return nil
	}
	if err := goalValidator.Struct(goals); err != nil {
		return fmt.Errorf("invalid weekly goals: %w", err)
	}
	return nil
}
