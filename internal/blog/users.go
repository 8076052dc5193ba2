package blog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"inkwell/internal/models"
)

// CallerFor returns the capability view of an authenticated user.
func CallerFor(u *models.User) Caller {
	return Caller{UserID: u.ID, IsAdmin: u.IsAdmin}
}

// Register creates a regular, active account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.createUser(ctx, in, false)
}

// CreateUser creates an account on behalf of an admin, optionally with
// admin rights.
func (s *Service) CreateUser(ctx context.Context, caller Caller, in CreateUserInput) (*models.User, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}
	return s.createUser(ctx, in.RegisterInput, in.IsAdmin)
}

func (s *Service) createUser(ctx context.Context, in RegisterInput, isAdmin bool) (*models.User, error) {
	in.normalize()
	if err := check(&in); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var created *models.User
	err = s.store.InTx(ctx, func(r Repositories) error {
		if err := ensureUniqueUser(ctx, r.Users(), in.Username, in.Email, uuid.Nil); err != nil {
			return err
		}
		u, err := r.Users().Create(ctx, &models.User{
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: hash,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Bio:          in.Bio,
			IsActive:     true,
			IsAdmin:      isAdmin,
		})
		created = u
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ensureUniqueUser rejects a username or email already held by a user
// other than self. The unique constraints still catch concurrent inserts.
func ensureUniqueUser(ctx context.Context, users UserRepository, username, email string, self uuid.UUID) error {
	if username != "" {
		existing, err := users.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != self {
			return Conflictf("username %q is already taken", username)
		}
	}
	existing, err := users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != self {
		return Conflictf("email %q is already registered", email)
	}
	return nil
}

// Login checks credentials and, for accounts with two-factor
// authentication, the current TOTP code. On success it stamps last_login.
func (s *Service) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	if err := check(&in); err != nil {
		return nil, err
	}

	u, err := s.store.Users().FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if u == nil || !checkPassword(u.PasswordHash, in.Password) {
		return nil, Unauthenticatedf("invalid username or password")
	}
	if !u.IsActive {
		return nil, Unauthenticatedf("account is deactivated")
	}
	if u.Needs2FACode() {
		if in.Code == "" {
			return nil, Unauthenticatedf("two-factor code required")
		}
		if !totp.Validate(in.Code, *u.TOTPSecret) {
			return nil, Unauthenticatedf("invalid two-factor code")
		}
	}

	now := s.now().UTC()
	if err := s.store.Users().SetLastLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLogin = &now
	return u, nil
}

// Authenticate reloads the user behind a session or token. Missing and
// deactivated accounts are rejected, so changes apply on the next request.
func (s *Service) Authenticate(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

// GetUser returns a user by ID.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NotFoundf("user not found")
	}
	return u, nil
}

// ListUsers returns the public user directory, newest first.
func (s *Service) ListUsers(ctx context.Context, req PageRequest) (Page[models.User], error) {
	return s.listUsers(ctx, req.normalize(DefaultPerPage))
}

// AdminListUsers is ListUsers with the admin page size.
func (s *Service) AdminListUsers(ctx context.Context, caller Caller, req PageRequest) (Page[models.User], error) {
	if err := caller.requireAdmin(); err != nil {
		return Page[models.User]{}, err
	}
	return s.listUsers(ctx, req.normalize(AdminPerPage))
}

func (s *Service) listUsers(ctx context.Context, req PageRequest) (Page[models.User], error) {
	items, total, err := s.store.Users().List(ctx, req.Offset(), req.PerPage)
	if err != nil {
		return Page[models.User]{}, err
	}
	return newPage(items, req, total), nil
}

// UpdateProfile replaces the caller's own profile fields.
func (s *Service) UpdateProfile(ctx context.Context, caller Caller, in UpdateProfileInput) (*models.User, error) {
	if err := caller.requireAuth(); err != nil {
		return nil, err
	}
	in.normalize()
	if err := check(&in); err != nil {
		return nil, err
	}

	var hash string
	if in.Password != "" {
		var err error
		if hash, err = s.hashPassword(in.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	var updated *models.User
	err := s.store.InTx(ctx, func(r Repositories) error {
		u, err := r.Users().FindByID(ctx, caller.UserID)
		if err != nil {
			return err
		}
		if u == nil {
			return NotFoundf("user not found")
		}
		if err := ensureUniqueUser(ctx, r.Users(), "", in.Email, u.ID); err != nil {
			return err
		}

		u.Email = in.Email
		u.FirstName = in.FirstName
		u.LastName = in.LastName
		u.Bio = in.Bio
		if hash != "" {
			u.PasswordHash = hash
		}
		if err := r.Users().Update(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangePassword sets a new password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, caller Caller, in ChangePasswordInput) error {
	if err := caller.requireAuth(); err != nil {
		return err
	}
	if err := check(&in); err != nil {
		return err
	}

	return s.store.InTx(ctx, func(r Repositories) error {
		u, err := r.Users().FindByID(ctx, caller.UserID)
		if err != nil {
			return err
		}
		if u == nil {
			return NotFoundf("user not found")
		}
		if !checkPassword(u.PasswordHash, in.CurrentPassword) {
			return Invalid("current_password", "current password is incorrect")
		}
		hash, err := s.hashPassword(in.NewPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
		return r.Users().Update(ctx, u)
	})
}

// Setup2FA generates and stores a new TOTP secret for the caller. The
// secret takes effect only after Enable2FA confirms a code from it.
func (s *Service) Setup2FA(ctx context.Context, caller Caller) (*otp.Key, error) {
	if err := caller.requireAuth(); err != nil {
		return nil, err
	}
	u, err := s.GetUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if u.TOTPEnabled {
		return nil, Conflictf("two-factor authentication is already enabled")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: u.Username,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp key: %w", err)
	}
	if err := s.store.Users().SetTOTPSecret(ctx, u.ID, key.Secret()); err != nil {
		return nil, err
	}
	return key, nil
}

// Enable2FA turns on two-factor authentication once the caller proves
// their authenticator produces valid codes.
func (s *Service) Enable2FA(ctx context.Context, caller Caller, code string) error {
	if err := caller.requireAuth(); err != nil {
		return err
	}
	u, err := s.GetUser(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if u.TOTPEnabled {
		return Conflictf("two-factor authentication is already enabled")
	}
	if u.TOTPSecret == nil {
		return PreconditionFailedf("two-factor setup has not been started")
	}
	if code == "" {
		return Invalid("code", "code is required")
	}
	if !totp.Validate(code, *u.TOTPSecret) {
		return Invalid("code", "invalid two-factor code")
	}
	return s.store.Users().EnableTOTP(ctx, u.ID)
}

// Dashboard summarizes the site for the admin panel.
type Dashboard struct {
	Users          int
	Posts          int
	PublishedPosts int
	DraftPosts     int
	Categories     int
	RecentPosts    []models.Post
	RecentUsers    []models.User
}

const dashboardRecent = 5

// Dashboard returns content counts and the most recent activity.
func (s *Service) Dashboard(ctx context.Context, caller Caller) (*Dashboard, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}

	var (
		d   Dashboard
		err error
	)
	if d.Users, err = s.store.Users().Count(ctx); err != nil {
		return nil, err
	}
	if d.Posts, err = s.store.Posts().Count(ctx, false); err != nil {
		return nil, err
	}
	if d.PublishedPosts, err = s.store.Posts().Count(ctx, true); err != nil {
		return nil, err
	}
	d.DraftPosts = d.Posts - d.PublishedPosts
	if d.Categories, err = s.store.Categories().Count(ctx); err != nil {
		return nil, err
	}
	if d.RecentPosts, _, err = s.store.Posts().List(ctx, PostQuery{Limit: dashboardRecent}); err != nil {
		return nil, err
	}
	if d.RecentUsers, err = s.store.Users().Recent(ctx, dashboardRecent); err != nil {
		return nil, err
	}
	return &d, nil
}
