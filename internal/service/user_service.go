package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bizcards/internal/auth"
	"bizcards/internal/cache"
	apperrors "bizcards/internal/errors"
	"bizcards/internal/model"
	"bizcards/internal/policy"
	"bizcards/internal/repository"
)

// UserService handles account lifecycle operations. Every user it returns
// has already passed through the mandatory projection.
type UserService interface {
	Register(ctx context.Context, cmd RegisterCommand) (token string, err error)
	Login(ctx context.Context, cmd LoginCommand) (token string, err error)
	ListUsers(ctx context.Context, claims *auth.Claims) ([]policy.UserView, error)
	GetUser(ctx context.Context, claims *auth.Claims, id uuid.UUID) (*policy.UserView, error)
	EditUser(ctx context.Context, claims *auth.Claims, id uuid.UUID, cmd EditUserCommand) (*policy.UserView, error)
	SetBusinessStatus(ctx context.Context, claims *auth.Claims, id uuid.UUID, isBusiness bool) (*policy.UserView, error)
	DeleteUser(ctx context.Context, claims *auth.Claims, id uuid.UUID) (*policy.UserView, error)
}

type userService struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	codec  *auth.TokenCodec
	policy *policy.Engine
	cache  *cache.Client
}

// NewUserService builds a UserService. cache may be nil.
func NewUserService(
	users repository.UserRepository,
	hasher *auth.PasswordHasher,
	codec *auth.TokenCodec,
	engine *policy.Engine,
	cache *cache.Client,
) UserService {
	return &userService{
		users:  users,
		hasher: hasher,
		codec:  codec,
		policy: engine,
		cache:  cache,
	}
}

// Register creates an account with a hashed password and returns a token for it.
func (s *userService) Register(ctx context.Context, cmd RegisterCommand) (string, error) {
	target := &policy.Target{GrantsAdmin: cmd.IsAdmin}
	if err := s.policy.Decide(nil, policy.RegisterAccount, target).Err(); err != nil {
		return "", err
	}

	email := normalizeEmail(cmd.Email)
	if err := s.ensureEmailFree(ctx, email, uuid.Nil); err != nil {
		return "", err
	}

	hashed, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return "", err
	}

	user := &model.User{
		ID:           uuid.New(),
		Name:         cmd.Name,
		Phone:        cmd.Phone,
		Email:        email,
		PasswordHash: hashed,
		Image:        cmd.Image,
		Address:      cmd.Address,
		IsAdmin:      cmd.IsAdmin,
		IsBusiness:   cmd.IsBusiness,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return "", apperrors.ErrEmailTaken
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	return s.codec.Mint(identityOf(user))
}

// Login checks credentials and returns a fresh token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *userService) Login(ctx context.Context, cmd LoginCommand) (string, error) {
	if err := s.policy.Decide(nil, policy.Login, nil).Err(); err != nil {
		return "", err
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(cmd.Email))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("find user: %w", err)
		}
		// pay for a comparison anyway so timing does not reveal the miss
		s.hasher.Verify(cmd.Password, "")
		return "", apperrors.ErrInvalidCredentials
	}
	if !s.hasher.Verify(cmd.Password, user.PasswordHash) {
		return "", apperrors.ErrInvalidCredentials
	}

	return s.codec.Mint(identityOf(user))
}

func (s *userService) ListUsers(ctx context.Context, claims *auth.Claims) ([]policy.UserView, error) {
	if err := s.policy.Decide(claims, policy.ListUsers, nil).Err(); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return policy.ProjectUsers(users), nil
}

// GetUser reads through the projection cache.
func (s *userService) GetUser(ctx context.Context, claims *auth.Claims, id uuid.UUID) (*policy.UserView, error) {
	if err := s.policy.Decide(claims, policy.GetUser, policy.UserTarget(id)).Err(); err != nil {
		return nil, err
	}

	var cached policy.UserView
	if s.cache.GetJSON(ctx, cache.UserKey(id.String()), &cached) {
		return &cached, nil
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	view := policy.ProjectUser(user)
	s.cache.SetJSON(ctx, cache.UserKey(id.String()), view)
	return &view, nil
}

// EditUser replaces the profile fields of the caller's own account. Roles and
// the password are not editable here.
func (s *userService) EditUser(ctx context.Context, claims *auth.Claims, id uuid.UUID, cmd EditUserCommand) (*policy.UserView, error) {
	if err := s.policy.Decide(claims, policy.EditUser, policy.UserTarget(id)).Err(); err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	previousEmail := user.Email
	email := normalizeEmail(cmd.Email)
	if email != previousEmail {
		if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
			return nil, err
		}
	}

	user.Name = cmd.Name
	user.Phone = cmd.Phone
	user.Email = email
	user.Image = cmd.Image
	user.Address = cmd.Address

	err = s.users.WithTransaction(ctx, func(ctx context.Context, users repository.UserRepository, cards repository.CardRepository) error {
		if err := users.UpdateProfile(ctx, user); err != nil {
			return s.userWriteError("update user", err)
		}
		if email == previousEmail {
			return nil
		}
		// cards are owned by creator email, so ownership follows the change
		if err := cards.ReassignCreator(ctx, previousEmail, email); err != nil {
			return fmt.Errorf("reassign cards: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	view := policy.ProjectUser(user)
	return &view, nil
}

// SetBusinessStatus flips the caller's own isBusiness flag. Tokens minted
// before the change keep the old flag until they are replaced.
func (s *userService) SetBusinessStatus(ctx context.Context, claims *auth.Claims, id uuid.UUID, isBusiness bool) (*policy.UserView, error) {
	if err := s.policy.Decide(claims, policy.PatchBusinessStatus, policy.UserTarget(id)).Err(); err != nil {
		return nil, err
	}

	if err := s.users.UpdateBusinessStatus(ctx, id, isBusiness); err != nil {
		return nil, s.userWriteError("update business status", err)
	}
	s.invalidate(ctx, id)

	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	view := policy.ProjectUser(user)
	return &view, nil
}

// DeleteUser removes an account and returns its projected snapshot.
func (s *userService) DeleteUser(ctx context.Context, claims *auth.Claims, id uuid.UUID) (*policy.UserView, error) {
	if err := s.policy.Decide(claims, policy.DeleteUser, policy.UserTarget(id)).Err(); err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return nil, s.userWriteError("delete user", err)
	}

	s.invalidate(ctx, id)
	view := policy.ProjectUser(user)
	return &view, nil
}

func (s *userService) findUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// ensureEmailFree fails with ErrEmailTaken when email belongs to an account
// other than self.
func (s *userService) ensureEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("check email: %w", err)
	}
	if existing.ID != self {
		return apperrors.ErrEmailTaken
	}
	return nil
}

func (s *userService) userWriteError(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrUserNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return apperrors.ErrEmailTaken
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *userService) invalidate(ctx context.Context, id uuid.UUID) {
	_ = s.cache.Delete(ctx, cache.UserKey(id.String()))
}

func identityOf(user *model.User) auth.Identity {
	return auth.Identity{
		SubjectID:  user.ID.String(),
		Email:      user.Email,
		IsAdmin:    user.IsAdmin,
		IsBusiness: user.IsBusiness,
	}
}
