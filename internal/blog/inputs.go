package blog

import (
	"strings"

	"github.com/google/uuid"
)

// RegisterInput is the payload for self-service sign-up.
type RegisterInput struct {
	Username  string  `json:"username" validate:"required,min=3,max=64,username"`
	Email     string  `json:"email" validate:"required,email,max=120"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	FirstName string  `json:"first_name" validate:"max=64"`
	LastName  string  `json:"last_name" validate:"max=64"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Bio = trimOptional(in.Bio)
}

// CreateUserInput is the admin variant of RegisterInput.
type CreateUserInput struct {
	RegisterInput
	IsAdmin bool `json:"is_admin"`
}

// LoginInput carries credentials. Code is required only for accounts
// with two-factor authentication enabled.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Code     string `json:"code" validate:"omitempty,len=6,numeric"`
}

// UpdateProfileInput replaces the caller's editable profile fields. An
// empty Password keeps the current one.
type UpdateProfileInput struct {
	Email     string  `json:"email" validate:"required,email,max=120"`
	FirstName string  `json:"first_name" validate:"max=64"`
	LastName  string  `json:"last_name" validate:"max=64"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	Password  string  `json:"password" validate:"omitempty,min=8,max=72"`
}

func (in *UpdateProfileInput) normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Bio = trimOptional(in.Bio)
}

// ChangePasswordInput requires the current password before setting a new one.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// CategoryInput is used for both creating and updating a category.
type CategoryInput struct {
	Name        string  `json:"name" validate:"required,min=1,max=50"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Color       *string `json:"color" validate:"omitempty,max=7,hexcolor"`
	// IsActive is only honoured on update; nil keeps the current value.
	IsActive *bool `json:"is_active"`
}

func (in *CategoryInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = trimOptional(in.Description)
	in.Color = trimOptional(in.Color)
}

// CreatePostInput is the payload for a new post. The publication flags
// may be set here; afterwards they change only through the toggles.
type CreatePostInput struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Content     string     `json:"content" validate:"required,min=10"`
	Excerpt     *string    `json:"excerpt" validate:"omitempty,max=500"`
	CategoryID  *uuid.UUID `json:"category_id"`
	IsPublished bool       `json:"is_published"`
	IsFeatured  bool       `json:"is_featured"`
}

func (in *CreatePostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Excerpt = trimOptional(in.Excerpt)
	in.CategoryID = nilIfZero(in.CategoryID)
}

// UpdatePostInput replaces a post's editable fields. It deliberately has
// no publication flags.
type UpdatePostInput struct {
	Title      string     `json:"title" validate:"required,min=1,max=200"`
	Content    string     `json:"content" validate:"required,min=10"`
	Excerpt    *string    `json:"excerpt" validate:"omitempty,max=500"`
	CategoryID *uuid.UUID `json:"category_id"`
}

func (in *UpdatePostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Excerpt = trimOptional(in.Excerpt)
	in.CategoryID = nilIfZero(in.CategoryID)
}

// trimOptional trims s and turns blank strings into nil, so that an
// empty form field stores NULL.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func nilIfZero(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}
