package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bizcards/internal/auth"
	"bizcards/internal/cache"
	apperrors "bizcards/internal/errors"
	"bizcards/internal/model"
	"bizcards/internal/policy"
	"bizcards/internal/repository"
)

// maxUpdateAttempts bounds the read, compare and swap loop of the like toggle
// and bizNumber reassignment.
const maxUpdateAttempts = 3

// CardService handles card lifecycle operations.
type CardService interface {
	CreateCard(ctx context.Context, claims *auth.Claims, cmd CardCommand) (*model.Card, error)
	ListCards(ctx context.Context) ([]model.Card, error)
	ListMyCards(ctx context.Context, claims *auth.Claims) ([]model.Card, error)
	GetCard(ctx context.Context, id uuid.UUID) (*model.Card, error)
	EditCard(ctx context.Context, claims *auth.Claims, id uuid.UUID, cmd CardCommand) (*model.Card, error)
	ToggleLike(ctx context.Context, claims *auth.Claims, id uuid.UUID) (*model.Card, error)
	ReassignBizNumber(ctx context.Context, claims *auth.Claims, id uuid.UUID, bizNumber string) (*model.Card, error)
	DeleteCard(ctx context.Context, claims *auth.Claims, id uuid.UUID) (*model.Card, error)
}

type cardService struct {
	cards  repository.CardRepository
	policy *policy.Engine
	cache  *cache.Client
}

// NewCardService creates a new card service. cache may be nil.
func NewCardService(cards repository.CardRepository, engine *policy.Engine, cache *cache.Client) CardService {
	return &cardService{
		cards:  cards,
		policy: engine,
		cache:  cache,
	}
}

// CreateCard stores a new card owned by the caller. createdBy always comes
// from the verified claims.
func (s *cardService) CreateCard(ctx context.Context, claims *auth.Claims, cmd CardCommand) (*model.Card, error) {
	if err := s.policy.Decide(claims, policy.CreateCard, nil).Err(); err != nil {
		return nil, err
	}

	card := &model.Card{
		ID:        uuid.New(),
		CreatedBy: claims.Email,
		BizNumber: optional(cmd.BizNumber),
	}
	cmd.applyTo(card)

	if err := s.ensureEmailFree(ctx, card); err != nil {
		return nil, err
	}
	if card.BizNumber != nil {
		if err := s.ensureBizNumberFree(ctx, *card.BizNumber, uuid.Nil); err != nil {
			return nil, err
		}
	}

	if err := s.cards.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	return card, nil
}

func (s *cardService) ListCards(ctx context.Context) ([]model.Card, error) {
	if err := s.policy.Decide(nil, policy.ListCards, nil).Err(); err != nil {
		return nil, err
	}

	cards, err := s.cards.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

func (s *cardService) ListMyCards(ctx context.Context, claims *auth.Claims) ([]model.Card, error) {
	if err := s.policy.Decide(claims, policy.ListMyCards, nil).Err(); err != nil {
		return nil, err
	}

	cards, err := s.cards.ListByCreator(ctx, policy.MyCardsCreator(claims))
	if err != nil {
		return nil, fmt.Errorf("list my cards: %w", err)
	}
	return cards, nil
}

// GetCard reads through the card cache.
func (s *cardService) GetCard(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	if err := s.policy.Decide(nil, policy.GetCard, nil).Err(); err != nil {
		return nil, err
	}

	var cached model.Card
	if s.cache.GetJSON(ctx, cache.CardKey(id.String()), &cached) {
		return &cached, nil
	}

	card, err := s.findCard(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, cache.CardKey(id.String()), card)
	return card, nil
}

// EditCard replaces the card details. Ownership is checked against the stored
// card, never the request.
func (s *cardService) EditCard(ctx context.Context, claims *auth.Claims, id uuid.UUID, cmd CardCommand) (*model.Card, error) {
	card, err := s.findCard(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Decide(claims, policy.EditCard, policy.CardTarget(card)).Err(); err != nil {
		return nil, err
	}

	cmd.applyTo(card)
	if err := s.ensureEmailFree(ctx, card); err != nil {
		return nil, err
	}

	if err := s.cards.UpdateDetails(ctx, card); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCardNotFound
		}
		return nil, fmt.Errorf("update card: %w", err)
	}

	s.invalidate(ctx, id)
	return card, nil
}

// ToggleLike adds the caller to the card's likes, or removes them if present.
// The write only lands if the card is unchanged since it was read.
func (s *cardService) ToggleLike(ctx context.Context, claims *auth.Claims, id uuid.UUID) (*model.Card, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		card, err := s.findCard(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.policy.Decide(claims, policy.ToggleCardLike, policy.CardTarget(card)).Err(); err != nil {
			return nil, err
		}

		likes := card.ToggledLikes(claims.SubjectID)
		ok, err := s.cards.UpdateLikes(ctx, id, card.Version, likes)
		if err != nil {
			return nil, fmt.Errorf("update likes: %w", err)
		}
		if ok {
			card.Likes = likes
			card.Version++
			s.invalidate(ctx, id)
			return card, nil
		}
	}
	return nil, apperrors.ErrUpdateConflict
}

// ReassignBizNumber gives the card a new business number provided no other
// card holds it. Assigning a card its current number is a no-op. The number is
// trimmed the same way card creation trims it.
func (s *cardService) ReassignBizNumber(ctx context.Context, claims *auth.Claims, id uuid.UUID, bizNumber string) (*model.Card, error) {
	bizNumber = strings.TrimSpace(bizNumber)
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		card, err := s.findCard(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.policy.Decide(claims, policy.ReassignBizNumber, policy.CardTarget(card)).Err(); err != nil {
			return nil, err
		}
		if bizNumber == "" {
			return nil, fmt.Errorf("%w: bizNumber is blank", apperrors.ErrValidation)
		}
		if card.HoldsBizNumber(bizNumber) {
			return card, nil
		}
		if err := s.ensureBizNumberFree(ctx, bizNumber, card.ID); err != nil {
			return nil, err
		}

		ok, err := s.cards.UpdateBizNumber(ctx, id, card.Version, bizNumber)
		if err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return nil, apperrors.ErrBizNumberTaken
			}
			return nil, fmt.Errorf("update bizNumber: %w", err)
		}
		if ok {
			card.BizNumber = &bizNumber
			card.Version++
			s.invalidate(ctx, id)
			return card, nil
		}
	}
	return nil, apperrors.ErrUpdateConflict
}

// DeleteCard removes the card and returns the deleted snapshot.
func (s *cardService) DeleteCard(ctx context.Context, claims *auth.Claims, id uuid.UUID) (*model.Card, error) {
	card, err := s.findCard(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Decide(claims, policy.DeleteCard, policy.CardTarget(card)).Err(); err != nil {
		return nil, err
	}

	if err := s.cards.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCardNotFound
		}
		return nil, fmt.Errorf("delete card: %w", err)
	}

	s.invalidate(ctx, id)
	return card, nil
}

func (s *cardService) findCard(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	card, err := s.cards.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCardNotFound
		}
		return nil, fmt.Errorf("find card: %w", err)
	}
	return card, nil
}

// ensureEmailFree rejects a card email already published by another card.
func (s *cardService) ensureEmailFree(ctx context.Context, card *model.Card) error {
	if card.Email == nil {
		return nil
	}
	holder, err := s.cards.FindByEmail(ctx, *card.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("check card email: %w", err)
	}
	if holder.ID != card.ID {
		return fmt.Errorf("%w: card email already in use", apperrors.ErrConflict)
	}
	return nil
}

// ensureBizNumberFree fails with ErrBizNumberTaken when a card other than self
// holds bizNumber.
func (s *cardService) ensureBizNumberFree(ctx context.Context, bizNumber string, self uuid.UUID) error {
	holder, err := s.cards.FindByBizNumber(ctx, bizNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("check bizNumber: %w", err)
	}
	if holder.ID != self {
		return apperrors.ErrBizNumberTaken
	}
	return nil
}

func (s *cardService) invalidate(ctx context.Context, id uuid.UUID) {
	_ = s.cache.Delete(ctx, cache.CardKey(id.String()))
}
