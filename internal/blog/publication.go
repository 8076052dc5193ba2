package blog

import (
	"context"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// Publication state is changed only by flipping a flag in the database,
// never by writing a value read earlier, so two concurrent toggles
// cannot silently overwrite each other.

// TogglePublished publishes a draft or unpublishes a post. The first
// publication stamps published_at; later toggles keep it.
func (s *Service) TogglePublished(ctx context.Context, caller Caller, id uuid.UUID) (*models.Post, error) {
	return s.togglePost(ctx, caller, id, PostRepository.TogglePublished)
}

// ToggleFeatured flips the featured flag. Featuring a draft is allowed
// but has no visible effect until it is published.
func (s *Service) ToggleFeatured(ctx context.Context, caller Caller, id uuid.UUID) (*models.Post, error) {
	return s.togglePost(ctx, caller, id, PostRepository.ToggleFeatured)
}

func (s *Service) togglePost(ctx context.Context, caller Caller, id uuid.UUID,
	flip func(PostRepository, context.Context, uuid.UUID) (*models.Post, error)) (*models.Post, error) {
	if err := caller.requireAuth(); err != nil {
		return nil, err
	}

	var toggled *models.Post
	err := s.store.InTx(ctx, func(r Repositories) error {
		if _, err := ownedPost(ctx, r.Posts(), caller, id, "change"); err != nil {
			return err
		}
		p, err := flip(r.Posts(), ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return NotFoundf("post not found")
		}
		toggled = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toggled, nil
}

// ToggleActive activates or deactivates another user's account.
func (s *Service) ToggleActive(ctx context.Context, caller Caller, id uuid.UUID) (*models.User, error) {
	return s.toggleUser(ctx, caller, id, "active status", UserRepository.ToggleActive)
}

// ToggleAdmin grants or revokes another user's admin rights.
func (s *Service) ToggleAdmin(ctx context.Context, caller Caller, id uuid.UUID) (*models.User, error) {
	return s.toggleUser(ctx, caller, id, "admin status", UserRepository.ToggleAdmin)
}

func (s *Service) toggleUser(ctx context.Context, caller Caller, id uuid.UUID, what string,
	flip func(UserRepository, context.Context, uuid.UUID) (*models.User, error)) (*models.User, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}
	if id == caller.UserID {
		return nil, Forbiddenf("you cannot change your own %s", what)
	}

	var toggled *models.User
	err := s.store.InTx(ctx, func(r Repositories) error {
		u, err := flip(r.Users(), ctx, id)
		if err != nil {
			return err
		}
		if u == nil {
			return NotFoundf("user not found")
		}
		toggled = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toggled, nil
}

// ResetTwoFactor clears a user's TOTP secret so they can sign in with a
// password alone and set up a new authenticator.
func (s *Service) ResetTwoFactor(ctx context.Context, caller Caller, id uuid.UUID) error {
	if err := caller.requireAdmin(); err != nil {
		return err
	}
	return s.store.InTx(ctx, func(r Repositories) error {
		u, err := r.Users().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if u == nil {
			return NotFoundf("user not found")
		}
		return r.Users().ResetTOTP(ctx, id)
	})
}
