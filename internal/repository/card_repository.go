package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bizcards/internal/model"
)

// CardRepository defines card persistence operations.
type CardRepository interface {
	Create(ctx context.Context, card *model.Card) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Card, error)
	FindByEmail(ctx context.Context, email string) (*model.Card, error)
	FindByBizNumber(ctx context.Context, bizNumber string) (*model.Card, error)
	List(ctx context.Context) ([]model.Card, error)
	ListByCreator(ctx context.Context, email string) ([]model.Card, error)
	UpdateDetails(ctx context.Context, card *model.Card) error
	ReassignCreator(ctx context.Context, from, to string) error
	// Conditional updates: applied only while the stored version still equals
	// expectedVersion. ok is false when another writer got there first.
	UpdateLikes(ctx context.Context, id uuid.UUID, expectedVersion uint, likes []string) (ok bool, err error)
	UpdateBizNumber(ctx context.Context, id uuid.UUID, expectedVersion uint, bizNumber string) (ok bool, err error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type cardRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewCardRepository creates a new card repository.
func NewCardRepository(db *gorm.DB, logger *slog.Logger) CardRepository {
	return &cardRepository{db: db, logger: loggerOrDefault(logger)}
}

// Create creates a new card.
func (r *cardRepository) Create(ctx context.Context, card *model.Card) error {
	err := r.db.WithContext(ctx).Create(card).Error
	return translate(r.logger, "card_create_failed", err, "created_by", card.CreatedBy)
}

// FindByID finds a card by ID.
func (r *cardRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	var card model.Card
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&card).Error; err != nil {
		return nil, translate(r.logger, "card_find_by_id_failed", err, "card_id", id.String())
	}
	return &card, nil
}

// FindByEmail finds the card published under email.
func (r *cardRepository) FindByEmail(ctx context.Context, email string) (*model.Card, error) {
	var card model.Card
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&card).Error; err != nil {
		return nil, translate(r.logger, "card_find_by_email_failed", err)
	}
	return &card, nil
}

// FindByBizNumber finds the card holding bizNumber.
func (r *cardRepository) FindByBizNumber(ctx context.Context, bizNumber string) (*model.Card, error) {
	var card model.Card
	if err := r.db.WithContext(ctx).Where("biz_number = ?", bizNumber).First(&card).Error; err != nil {
		return nil, translate(r.logger, "card_find_by_biz_number_failed", err, "biz_number", bizNumber)
	}
	return &card, nil
}

// List returns every card, oldest first.
func (r *cardRepository) List(ctx context.Context) ([]model.Card, error) {
	var cards []model.Card
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&cards).Error; err != nil {
		return nil, translate(r.logger, "card_list_failed", err)
	}
	return cards, nil
}

// ListByCreator returns the cards created by email.
func (r *cardRepository) ListByCreator(ctx context.Context, email string) ([]model.Card, error) {
	var cards []model.Card
	if err := r.db.WithContext(ctx).
		Where("created_by = ?", email).
		Order("created_at ASC").
		Find(&cards).Error; err != nil {
		return nil, translate(r.logger, "card_list_by_creator_failed", err)
	}
	return cards, nil
}

// UpdateDetails replaces the editable columns of card.
func (r *cardRepository) UpdateDetails(ctx context.Context, card *model.Card) error {
	res := r.db.WithContext(ctx).Model(&model.Card{ID: card.ID}).
		Select(model.DetailColumns).
		Updates(card)
	if res.Error != nil {
		return translate(r.logger, "card_update_details_failed", res.Error, "card_id", card.ID.String())
	}
	if res.RowsAffected == 0 {
		return r.ensureExists(ctx, card.ID)
	}
	return nil
}

// ReassignCreator moves every card created by from over to to, following a
// change of the creator's email.
func (r *cardRepository) ReassignCreator(ctx context.Context, from, to string) error {
	err := r.db.WithContext(ctx).Model(&model.Card{}).
		Where("created_by = ?", from).
		Update("created_by", to).Error
	return translate(r.logger, "card_reassign_creator_failed", err, "from", from, "to", to)
}

// UpdateLikes swaps in a new like set if the card is still at expectedVersion.
func (r *cardRepository) UpdateLikes(ctx context.Context, id uuid.UUID, expectedVersion uint, likes []string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Card{ID: id}).
		Where("version = ?", expectedVersion).
		Select("likes", "version").
		Updates(&model.Card{Likes: likes, Version: expectedVersion + 1})
	if res.Error != nil {
		return false, translate(r.logger, "card_update_likes_failed", res.Error, "card_id", id.String())
	}
	return res.RowsAffected == 1, nil
}

// UpdateBizNumber assigns bizNumber if the card is still at expectedVersion.
// The unique index on biz_number rejects a value claimed in the meantime.
func (r *cardRepository) UpdateBizNumber(ctx context.Context, id uuid.UUID, expectedVersion uint, bizNumber string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Card{ID: id}).
		Where("version = ?", expectedVersion).
		Select("biz_number", "version").
		Updates(&model.Card{BizNumber: &bizNumber, Version: expectedVersion + 1})
	if res.Error != nil {
		return false, translate(r.logger, "card_update_biz_number_failed", res.Error,
			"card_id", id.String(),
			"biz_number", bizNumber,
		)
	}
	return res.RowsAffected == 1, nil
}

// Delete removes a card.
func (r *cardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Card{})
	if res.Error != nil {
		return translate(r.logger, "card_delete_failed", res.Error, "card_id", id.String())
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cardRepository) ensureExists(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Card{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translate(r.logger, "card_exists_failed", err, "card_id", id.String())
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
