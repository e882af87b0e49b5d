// Package policy is the single place where role and ownership facts are
// turned into access decisions and response projections.
package policy

import (
	"fmt"

	"github.com/google/uuid"

	"bizcards/internal/auth"
	apperrors "bizcards/internal/errors"
	"bizcards/internal/model"
)

// Operation names an access-controlled action.
type Operation string

const (
	RegisterAccount     Operation = "account.register"
	Login               Operation = "account.login"
	ListCards           Operation = "card.list"
	GetCard             Operation = "card.get"
	CreateCard          Operation = "card.create"
	ListMyCards         Operation = "card.list_mine"
	EditCard            Operation = "card.edit"
	ToggleCardLike      Operation = "card.like"
	DeleteCard          Operation = "card.delete"
	ReassignBizNumber   Operation = "card.reassign_biz_number"
	ListUsers           Operation = "user.list"
	GetUser             Operation = "user.get"
	EditUser            Operation = "user.edit"
	PatchBusinessStatus Operation = "user.patch_business"
	DeleteUser          Operation = "user.delete"
)

// Target is the snapshot of the resource an operation acts on. Ownership is
// always taken from stored state, never from the request body.
type Target struct {
	// OwnerEmail is the card's stored createdBy.
	OwnerEmail string
	// UserID is the id of the user being read or changed.
	UserID string
	// GrantsAdmin marks a registration asking for the admin role.
	GrantsAdmin bool
}

// CardTarget builds the target for a stored card.
func CardTarget(card *model.Card) *Target {
	return &Target{OwnerEmail: card.CreatedBy}
}

// UserTarget builds the target for a user id.
func UserTarget(id uuid.UUID) *Target {
	return &Target{UserID: id.String()}
}

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Err returns nil for an allow and an ErrUnauthorized carrying the reason otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, d.Reason)
}

// Options tune the few decisions that depend on deployment settings.
type Options struct {
	AllowAdminSignup bool
}

// Engine evaluates the access table. It holds no per-request state.
type Engine struct {
	opts Options
}

// NewEngine creates an engine.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Decide reports whether claims may perform op on target. claims is nil for
// anonymous callers; target is nil when the operation has no single resource.
func (e *Engine) Decide(claims *auth.Claims, op Operation, target *Target) Decision {
	switch op {
	case RegisterAccount:
		if target != nil && target.GrantsAdmin && !e.opts.AllowAdminSignup {
			return deny("admin accounts cannot be self-registered")
		}
		return allow()
	case Login, ListCards, GetCard:
		return allow()
	}

	if claims == nil {
		return deny("authentication required")
	}

	switch op {
	case CreateCard:
		if !claims.IsBusiness {
			return deny("only business accounts can create cards")
		}
		return allow()
	case ListMyCards, ToggleCardLike:
		return allow()
	case EditCard:
		if !ownsCard(claims, target) {
			return deny("not the card owner")
		}
		return allow()
	case DeleteCard:
		if !ownsCard(claims, target) || !claims.IsAdmin {
			return deny("card deletion requires the owner to be an admin")
		}
		return allow()
	case ReassignBizNumber, ListUsers:
		if !claims.IsAdmin {
			return deny("admin only")
		}
		return allow()
	case GetUser, DeleteUser:
		if !isSelf(claims, target) && !claims.IsAdmin {
			return deny("only the account holder or an admin")
		}
		return allow()
	case EditUser, PatchBusinessStatus:
		if !isSelf(claims, target) {
			return deny("only the account holder")
		}
		return allow()
	}
	return deny(fmt.Sprintf("unknown operation %q", op))
}

// MyCardsCreator is the createdBy value that "my cards" is filtered on.
func MyCardsCreator(claims *auth.Claims) string {
	return claims.Email
}

func ownsCard(claims *auth.Claims, target *Target) bool {
	return target != nil && target.OwnerEmail != "" && target.OwnerEmail == claims.Email
}

func isSelf(claims *auth.Claims, target *Target) bool {
	return target != nil && target.UserID != "" && target.UserID == claims.SubjectID
}
