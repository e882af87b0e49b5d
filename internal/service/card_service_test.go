package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bizcards/internal/auth"
	apperrors "bizcards/internal/errors"
	"bizcards/internal/model"
	"bizcards/internal/policy"
)

func newCardService(repo *MockCardRepository) CardService {
	return NewCardService(repo, policy.NewEngine(policy.Options{}), nil)
}

func claimsFor(email string, admin, business bool) *auth.Claims {
	return &auth.Claims{Identity: auth.Identity{
		SubjectID:  uuid.NewString(),
		Email:      email,
		IsAdmin:    admin,
		IsBusiness: business,
	}}
}

func storedCard(owner string, likes ...string) *model.Card {
	if likes == nil {
		likes = []string{}
	}
	return &model.Card{
		ID:        uuid.New(),
		Title:     "C",
		Subtitle:  "S",
		CreatedBy: owner,
		Likes:     likes,
		Version:   1,
	}
}

func strPtr(s string) *string { return &s }

func TestCardService_CreateCard(t *testing.T) {
	tests := []struct {
		name          string
		claims        *auth.Claims
		cmd           CardCommand
		setupMock     func(*MockCardRepository)
		expectedError error
	}{
		{
			name:   "createdBy comes from the claims",
			claims: claimsFor("a@x.com", false, true),
			cmd:    CardCommand{Title: "C", Subtitle: "S"},
			setupMock: func(m *MockCardRepository) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Card) bool {
					return c.CreatedBy == "a@x.com" && c.Title == "C" && c.BizNumber == nil
				})).Return(nil)
			},
		},
		{
			name:          "non business account",
			claims:        claimsFor("a@x.com", true, false),
			cmd:           CardCommand{Title: "C", Subtitle: "S"},
			setupMock:     func(m *MockCardRepository) {},
			expectedError: apperrors.ErrUnauthorized,
		},
		{
			name:          "anonymous",
			cmd:           CardCommand{Title: "C", Subtitle: "S"},
			setupMock:     func(m *MockCardRepository) {},
			expectedError: apperrors.ErrUnauthorized,
		},
		{
			name:   "card email in use",
			claims: claimsFor("a@x.com", false, true),
			cmd:    CardCommand{Title: "C", Subtitle: "S", Email: "shop@x.com"},
			setupMock: func(m *MockCardRepository) {
				m.On("FindByEmail", mock.Anything, "shop@x.com").Return(storedCard("b@x.com"), nil)
			},
			expectedError: apperrors.ErrConflict,
		},
		{
			name:   "initial bizNumber taken",
			claims: claimsFor("a@x.com", false, true),
			cmd:    CardCommand{Title: "C", Subtitle: "S", BizNumber: "1000001"},
			setupMock: func(m *MockCardRepository) {
				m.On("FindByBizNumber", mock.Anything, "1000001").Return(storedCard("b@x.com"), nil)
			},
			expectedError: apperrors.ErrBizNumberTaken,
		},
		{
			name:   "initial bizNumber free",
			claims: claimsFor("a@x.com", false, true),
			cmd:    CardCommand{Title: "C", Subtitle: "S", BizNumber: "1000001", Email: "shop@x.com"},
			setupMock: func(m *MockCardRepository) {
				m.On("FindByEmail", mock.Anything, "shop@x.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("FindByBizNumber", mock.Anything, "1000001").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Card) bool {
					return c.HoldsBizNumber("1000001") && *c.Email == "shop@x.com"
				})).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockCardRepository)
			tt.setupMock(repo)

			card, err := newCardService(repo).CreateCard(context.Background(), tt.claims, tt.cmd)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, card)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.claims.Email, card.CreatedBy)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestCardService_EditCard(t *testing.T) {
	owner := claimsFor("a@x.com", false, true)
	admin := claimsFor("admin@x.com", true, false)
	stranger := claimsFor("b@x.com", false, false)
	update := CardCommand{Title: "New", Subtitle: "S", BizNumber: "ignored"}

	t.Run("owner edits", func(t *testing.T) {
		repo := new(MockCardRepository)
		card := storedCard("a@x.com", "u1")
		card.BizNumber = strPtr("1000001")
		repo.On("FindByID", mock.Anything, card.ID).Return(card, nil)
		repo.On("UpdateDetails", mock.Anything, mock.AnythingOfType("*model.Card")).Return(nil)

		edited, err := newCardService(repo).EditCard(context.Background(), owner, card.ID, update)
		require.NoError(t, err)
		assert.Equal(t, "New", edited.Title)
		assert.Equal(t, "a@x.com", edited.CreatedBy)
		assert.True(t, edited.HoldsBizNumber("1000001"))
		assert.Equal(t, []string{"u1"}, edited.Likes)
	})

	for name, claims := range map[string]*auth.Claims{"non owner": stranger, "admin non owner": admin} {
		t.Run(name, func(t *testing.T) {
			repo := new(MockCardRepository)
			card := storedCard("a@x.com")
			repo.On("FindByID", mock.Anything, card.ID).Return(card, nil)

			_, err := newCardService(repo).EditCard(context.Background(), claims, card.ID, update)
			assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
			repo.AssertNotCalled(t, "UpdateDetails", mock.Anything, mock.Anything)
		})
	}

	t.Run("missing card", func(t *testing.T) {
		repo := new(MockCardRepository)
		id := uuid.New()
		repo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

		_, err := newCardService(repo).EditCard(context.Background(), owner, id, update)
		assert.ErrorIs(t, err, apperrors.ErrCardNotFound)
	})

	t.Run("keeping its own email is not a conflict", func(t *testing.T) {
		repo := new(MockCardRepository)
		card := storedCard("a@x.com")
		card.Email = strPtr("shop@x.com")
		repo.On("FindByID", mock.Anything, card.ID).Return(card, nil)
		repo.On("FindByEmail", mock.Anything, "shop@x.com").Return(card, nil)
		repo.On("UpdateDetails", mock.Anything, mock.AnythingOfType("*model.Card")).Return(nil)

		cmd := update
		cmd.Email = "shop@x.com"
		_, err := newCardService(repo).EditCard(context.Background(), owner, card.ID, cmd)
		assert.NoError(t, err)
	})
}

func TestCardService_DeleteCard(t *testing.T) {
	tests := []struct {
		name          string
		claims        *auth.Claims
		expectedError error
	}{
		{"owner who is admin", claimsFor("a@x.com", true, true), nil},
		{"owner who is not admin", claimsFor("a@x.com", false, true), apperrors.ErrUnauthorized},
		{"admin who is not owner", claimsFor("admin@x.com", true, false), apperrors.ErrUnauthorized},
		{"stranger", claimsFor("b@x.com", false, false), apperrors.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockCardRepository)
			card := storedCard("a@x.com")
			repo.On("FindByID", mock.Anything, card.ID).Return(card, nil)
			if tt.expectedError == nil {
				repo.On("Delete", mock.Anything, card.ID).Return(nil)
			}

			deleted, err := newCardService(repo).DeleteCard(context.Background(), tt.claims, card.ID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, card.ID, deleted.ID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestCardService_ToggleLike(t *testing.T) {
	liker := claimsFor("b@x.com", false, false)

	t.Run("toggling twice restores the like set", func(t *testing.T) {
		repo := new(MockCardRepository)
		card := storedCard("a@x.com", "u1")
		repo.On("FindByID", mock.Anything, card.ID).Return(func(context.Context, uuid.UUID) *model.Card {
			snapshot := *card
			snapshot.Likes = append([]string(nil), card.Likes...)
			return &snapshot
		}, nil)
		repo.On("UpdateLikes", mock.Anything, card.ID, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				card.Likes = args.Get(3).([]string)
				card.Version++
			}).
			Return(true, nil)

		svc := newCardService(repo)

		liked, err := svc.ToggleLike(context.Background(), liker, card.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"u1", liker.SubjectID}, liked.Likes)

		unliked, err := svc.ToggleLike(context.Background(), liker, card.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"u1"}, unliked.Likes)
		assert.Equal(t, uint(3), card.Version)
	})

	t.Run("retries after losing a race", func(t *testing.T) {
		repo := new(MockCardRepository)
		card := storedCard("a@x.com")
		repo.On("FindByID", mock.Anything, card.ID).Return(card, nil)
		repo.On("UpdateLikes", mock.Anything, card.ID, uint(1), []string{liker.SubjectID}).Return(false, nil).Once()
		repo.On("UpdateLikes", mock.Anything, card.ID, uint(1), []string{liker.SubjectID}).Return(true, nil).Once()

		liked, err := newCardService(repo).ToggleLike(context.Background(), liker, card.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{liker.SubjectID}, liked.Likes)
		repo.AssertNumberOfCalls(t, "FindByID", 2)
	})

	t.Run("gives up after bounded attempts", func(t *testing.T) {
		repo := new(MockCardRepository)
		card := storedCard("a@x.com")
		repo.On("FindByID", mock.Anything, card.ID).Return(card, nil)
		repo.On("UpdateLikes", mock.Anything, card.ID, mock.Anything, mock.Anything).Return(false, nil)

		_, err := newCardService(repo).ToggleLike(context.Background(), liker, card.ID)
		assert.ErrorIs(t, err, apperrors.ErrUpdateConflict)
		repo.AssertNumberOfCalls(t, "UpdateLikes", maxUpdateAttempts)
	})

	t.Run("anonymous", func(t *testing.T) {
		repo := new(MockCardRepository)
		card := storedCard("a@x.com")
		repo.On("FindByID", mock.Anything, card.ID).Return(card, nil)

		_, err := newCardService(repo).ToggleLike(context.Background(), nil, card.ID)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func TestCardService_ReassignBizNumber(t *testing.T) {
	admin := claimsFor("admin@x.com", true, false)

	t.Run("value held by another card", func(t *testing.T) {
		repo := new(MockCardRepository)
		x := storedCard("a@x.com")
		x.BizNumber = strPtr("1000001")
		y := storedCard("b@x.com")
		y.BizNumber = strPtr("2000002")
		repo.On("FindByID", mock.Anything, x.ID).Return(x, nil)
		repo.On("FindByBizNumber", mock.Anything, "2000002").Return(y, nil)

		_, err := newCardService(repo).ReassignBizNumber(context.Background(), admin, x.ID, "2000002")
		assert.ErrorIs(t, err, apperrors.ErrBizNumberTaken)
		assert.True(t, x.HoldsBizNumber("1000001"))
		repo.AssertNotCalled(t, "UpdateBizNumber", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("own current value is not a conflict", func(t *testing.T) {
		repo := new(MockCardRepository)
		x := storedCard("a@x.com")
		x.BizNumber = strPtr("1000001")
		repo.On("FindByID", mock.Anything, x.ID).Return(x, nil)

		card, err := newCardService(repo).ReassignBizNumber(context.Background(), admin, x.ID, "1000001")
		require.NoError(t, err)
		assert.True(t, card.HoldsBizNumber("1000001"))
	})

	t.Run("free value", func(t *testing.T) {
		repo := new(MockCardRepository)
		x := storedCard("a@x.com")
		repo.On("FindByID", mock.Anything, x.ID).Return(x, nil)
		repo.On("FindByBizNumber", mock.Anything, "3000003").Return(nil, gorm.ErrRecordNotFound)
		repo.On("UpdateBizNumber", mock.Anything, x.ID, uint(1), "3000003").Return(true, nil)

		card, err := newCardService(repo).ReassignBizNumber(context.Background(), admin, x.ID, "3000003")
		require.NoError(t, err)
		assert.True(t, card.HoldsBizNumber("3000003"))
		assert.Equal(t, uint(2), card.Version)
	})

	t.Run("surrounding whitespace is trimmed", func(t *testing.T) {
		repo := new(MockCardRepository)
		x := storedCard("a@x.com")
		y := storedCard("b@x.com")
		y.BizNumber = strPtr("3000003")
		repo.On("FindByID", mock.Anything, x.ID).Return(x, nil)
		repo.On("FindByBizNumber", mock.Anything, "3000003").Return(y, nil)

		_, err := newCardService(repo).ReassignBizNumber(context.Background(), admin, x.ID, " 3000003 ")
		assert.ErrorIs(t, err, apperrors.ErrBizNumberTaken)
		repo.AssertNotCalled(t, "UpdateBizNumber", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("blank value", func(t *testing.T) {
		repo := new(MockCardRepository)
		x := storedCard("a@x.com")
		repo.On("FindByID", mock.Anything, x.ID).Return(x, nil)

		_, err := newCardService(repo).ReassignBizNumber(context.Background(), admin, x.ID, "   ")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		repo.AssertNotCalled(t, "FindByBizNumber", mock.Anything, mock.Anything)
	})

	t.Run("claimed between check and write", func(t *testing.T) {
		repo := new(MockCardRepository)
		x := storedCard("a@x.com")
		repo.On("FindByID", mock.Anything, x.ID).Return(x, nil)
		repo.On("FindByBizNumber", mock.Anything, "3000003").Return(nil, gorm.ErrRecordNotFound)
		repo.On("UpdateBizNumber", mock.Anything, x.ID, uint(1), "3000003").
			Return(false, fmt.Errorf("%w: duplicate", apperrors.ErrConflict))

		_, err := newCardService(repo).ReassignBizNumber(context.Background(), admin, x.ID, "3000003")
		assert.ErrorIs(t, err, apperrors.ErrBizNumberTaken)
	})

	t.Run("non admin", func(t *testing.T) {
		repo := new(MockCardRepository)
		x := storedCard("a@x.com")
		repo.On("FindByID", mock.Anything, x.ID).Return(x, nil)

		_, err := newCardService(repo).ReassignBizNumber(context.Background(), claimsFor("a@x.com", false, true), x.ID, "3000003")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func TestCardService_ListMyCards(t *testing.T) {
	repo := new(MockCardRepository)
	repo.On("ListByCreator", mock.Anything, "a@x.com").Return([]model.Card{*storedCard("a@x.com")}, nil)

	cards, err := newCardService(repo).ListMyCards(context.Background(), claimsFor("a@x.com", false, false))
	require.NoError(t, err)
	assert.Len(t, cards, 1)

	_, err = newCardService(repo).ListMyCards(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestCardService_GetCard(t *testing.T) {
	repo := new(MockCardRepository)
	card := storedCard("a@x.com")
	missing := uuid.New()
	repo.On("FindByID", mock.Anything, card.ID).Return(card, nil)
	repo.On("FindByID", mock.Anything, missing).Return(nil, gorm.ErrRecordNotFound)

	got, err := newCardService(repo).GetCard(context.Background(), card.ID)
	require.NoError(t, err)
	assert.Equal(t, card.ID, got.ID)

	_, err = newCardService(repo).GetCard(context.Background(), missing)
	assert.ErrorIs(t, err, apperrors.ErrCardNotFound)
}
