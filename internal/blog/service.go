package blog

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Service implements the blog's operations on top of a Store. Every
// mutating method checks authorization first, validates its typed input,
// and then does all of its writes in a single transaction.
type Service struct {
	store      Store
	bcryptCost int
	issuer     string
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost sets the cost used to hash new passwords. Tests use
// bcrypt.MinCost to stay fast.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithIssuer sets the issuer name shown by authenticator apps.
func WithIssuer(issuer string) Option {
	return func(s *Service) { s.issuer = issuer }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service backed by store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		bcryptCost: bcrypt.DefaultCost,
		issuer:     "Inkwell",
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
