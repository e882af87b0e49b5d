package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bizcards/internal/model"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdateBusinessStatus(ctx context.Context, id uuid.UUID, isBusiness bool) error
	Promote(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	WithTransaction(ctx context.Context, fn func(ctx context.Context, users UserRepository, cards CardRepository) error) error
}

type userRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB, logger *slog.Logger) UserRepository {
	return &userRepository{db: db, logger: loggerOrDefault(logger)}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	return translate(r.logger, "user_create_failed", err, "email", user.Email)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(r.logger, "user_find_by_id_failed", err, "user_id", id.String())
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(r.logger, "user_find_by_email_failed", err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, translate(r.logger, "user_list_failed", err)
	}
	return users, nil
}

// UpdateProfile replaces the profile columns of user, leaving roles and the
// password hash untouched.
func (r *userRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	res := r.db.WithContext(ctx).Model(&model.User{ID: user.ID}).
		Select(model.ProfileColumns).
		Updates(user)
	if res.Error != nil {
		return translate(r.logger, "user_update_profile_failed", res.Error, "user_id", user.ID.String())
	}
	if res.RowsAffected == 0 {
		return r.ensureExists(ctx, user.ID)
	}
	return nil
}

func (r *userRepository) UpdateBusinessStatus(ctx context.Context, id uuid.UUID, isBusiness bool) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("is_business", isBusiness)
	if res.Error != nil {
		return translate(r.logger, "user_update_business_failed", res.Error, "user_id", id.String())
	}
	if res.RowsAffected == 0 {
		return r.ensureExists(ctx, id)
	}
	return nil
}

func (r *userRepository) Promote(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("is_admin", true).Error
	return translate(r.logger, "user_promote_failed", err, "user_id", id.String())
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return translate(r.logger, "user_delete_failed", res.Error, "user_id", id.String())
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ensureExists distinguishes "no such row" from "nothing changed", since
// MySQL reports zero affected rows for an update that writes identical values.
func (r *userRepository) ensureExists(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translate(r.logger, "user_exists_failed", err, "user_id", id.String())
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// WithTransaction executes fn within a database transaction. The user and card
// repositories handed to fn share that transaction; an error from fn rolls
// both back.
func (r *userRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, users UserRepository, cards CardRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx,
			&userRepository{db: tx, logger: r.logger},
			&cardRepository{db: tx, logger: r.logger},
		)
	})
}
