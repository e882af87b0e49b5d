package policy

import (
	"github.com/google/uuid"

	"bizcards/internal/model"
)

// UserView is the only shape in which a user leaves the service.
type UserView struct {
	ID         uuid.UUID  `json:"id"`
	Name       model.Name `json:"name"`
	Email      string     `json:"email"`
	IsAdmin    bool       `json:"isAdmin"`
	IsBusiness bool       `json:"isBusiness"`
}

// ProjectUser strips every field outside the public profile, the password
// hash included, regardless of who is asking.
func ProjectUser(u *model.User) UserView {
	return UserView{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		IsAdmin:    u.IsAdmin,
		IsBusiness: u.IsBusiness,
	}
}

// ProjectUsers projects a list of users.
func ProjectUsers(users []model.User) []UserView {
	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, ProjectUser(&users[i]))
	}
	return views
}
