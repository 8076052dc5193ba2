package handlers_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"inkwell/internal/auth"
	"inkwell/internal/blog"
	"inkwell/internal/blog/blogtest"
	"inkwell/internal/handlers"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/router"
	"inkwell/internal/session"
)

const testSessionCookie = "test_session"

// memSessions is an in-process stand-in for the Valkey session store.
type memSessions struct {
	mu   sync.Mutex
	data map[string]session.Data
}

func newMemSessions() *memSessions {
	return &memSessions{data: make(map[string]session.Data)}
}

func (m *memSessions) Create(_ context.Context, w http.ResponseWriter, d *session.Data) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	id := hex.EncodeToString(b)
	m.mu.Lock()
	m.data[id] = *d
	m.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: testSessionCookie, Value: id, Path: "/"})
	return id, nil
}

func (m *memSessions) Get(_ context.Context, r *http.Request) (*session.Data, error) {
	c, err := r.Cookie(testSessionCookie)
	if err != nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[c.Value]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *memSessions) Destroy(_ context.Context, w http.ResponseWriter, r *http.Request) error {
	if c, err := r.Cookie(testSessionCookie); err == nil {
		m.mu.Lock()
		delete(m.data, c.Value)
		m.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: testSessionCookie, Value: "", Path: "/", MaxAge: -1})
	return nil
}

// memImages records uploads in memory.
type memImages struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

const imageBaseURL = "https://cdn.example.com/"

func newMemImages() *memImages {
	return &memImages{objects: make(map[string][]byte)}
}

func (m *memImages) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.objects[key] = b
	m.mu.Unlock()
	return imageBaseURL + key, nil
}

func (m *memImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	m.mu.Unlock()
	return nil
}

func (m *memImages) KeyFromURL(rawURL string) (string, bool) {
	key, ok := strings.CutPrefix(rawURL, imageBaseURL)
	return key, ok && key != ""
}

type server struct {
	t        *testing.T
	handler  http.Handler
	svc      *blog.Service
	store    *blogtest.Store
	tokens   *auth.TokenIssuer
	sessions *memSessions
	images   *memImages

	admin *models.User
	alice *models.User
	bob   *models.User
}

type serverOption func(*serverConfig)

type serverConfig struct {
	withoutImages bool
}

func withoutImages() serverOption {
	return func(c *serverConfig) { c.withoutImages = true }
}

// newServer wires the full router over an in-memory store with an admin
// and two regular users, all with password "correct horse".
func newServer(t *testing.T, opts ...serverOption) *server {
	t.Helper()
	var cfg serverConfig
	for _, o := range opts {
		o(&cfg)
	}

	st := blogtest.New()
	svc := blog.New(st, blog.WithBcryptCost(bcrypt.MinCost))
	s := &server{
		t:        t,
		svc:      svc,
		store:    st,
		tokens:   auth.NewTokenIssuer("test-secret", "Inkwell", time.Hour),
		sessions: newMemSessions(),
		images:   newMemImages(),
	}

	var images handlers.ImageStore
	if !cfg.withoutImages {
		images = s.images
	}
	present := handlers.NewPresenter(nil)
	s.handler = router.New(router.Config{
		Auth:          handlers.NewAuth(svc, s.sessions, s.tokens, present),
		Posts:         handlers.NewPosts(svc, images, 1<<20, present),
		Categories:    handlers.NewCategories(svc, present),
		Users:         handlers.NewUsers(svc, present),
		Admin:         handlers.NewAdmin(svc, present),
		Authenticator: middleware.NewAuthenticator(s.sessions, s.tokens, svc),
	})

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	s.admin, err = st.Users().Create(context.Background(), &models.User{
		Username: "admin", Email: "admin@example.com", PasswordHash: string(hash),
		IsActive: true, IsAdmin: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	s.alice = s.register("alice")
	s.bob = s.register("bob")
	return s
}

func (s *server) register(username string) *models.User {
	s.t.Helper()
	u, err := s.svc.Register(context.Background(), blog.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct horse",
	})
	if err != nil {
		s.t.Fatalf("Register(%q): %v", username, err)
	}
	return u
}

func (s *server) token(u *models.User) string {
	s.t.Helper()
	tok, _, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.t.Fatal(err)
	}
	return tok
}

// request describes one call. as is the bearer user; nil is anonymous.
type request struct {
	method  string
	path    string
	body    any
	as      *models.User
	cookies []*http.Cookie
	header  http.Header
}

func (s *server) do(req request) *httptest.ResponseRecorder {
	s.t.Helper()
	var body io.Reader
	switch b := req.body.(type) {
	case nil:
	case string:
		body = strings.NewReader(b)
	case []byte:
		body = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			s.t.Fatal(err)
		}
		body = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(req.method, req.path, body)
	if body != nil && r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range req.header {
		for _, v := range vs {
			r.Header.Set(k, v)
		}
	}
	if req.as != nil {
		r.Header.Set("Authorization", "Bearer "+s.token(req.as))
	}
	for _, c := range req.cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// expect decodes the envelope and fails unless the status matches.
func expect(t *testing.T, w *httptest.ResponseRecorder, status int) envelope {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status: got %d, want %d; body: %s", w.Code, status, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content-type: got %q", ct)
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v; body: %s", err, w.Body.String())
	}
	if want := status < 400; env.Success != want {
		t.Errorf("success: got %v, want %v", env.Success, want)
	}
	return env
}

func data[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data: %v; data: %s", err, env.Data)
	}
	return v
}

type postJSON struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	ContentHTML   string     `json:"content_html"`
	FeaturedImage *string    `json:"featured_image"`
	IsPublished   bool       `json:"is_published"`
	IsFeatured    bool       `json:"is_featured"`
	ViewCount     int        `json:"view_count"`
	WordCount     int        `json:"word_count"`
	ReadingTime   int        `json:"reading_time"`
	PublishedAt   *string    `json:"published_at"`
	Related       []postJSON `json:"related"`
	Author        *struct {
		Username string `json:"username"`
	} `json:"author"`
	Category *struct {
		ID   uuid.UUID `json:"id"`
		Slug string    `json:"slug"`
	} `json:"category"`
}

type paginationJSON struct {
	Page    int  `json:"page"`
	Pages   int  `json:"pages"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

type postsJSON struct {
	Posts      []postJSON     `json:"posts"`
	Pagination paginationJSON `json:"pagination"`
}

type validationJSON struct {
	Errors map[string]string `json:"errors"`
}

// createPost creates a post through the API and returns it.
func (s *server) createPost(as *models.User, title string, published bool) postJSON {
	s.t.Helper()
	w := s.do(request{method: "POST", path: "/api/v1/posts", as: as, body: map[string]any{
		"title":        title,
		"content":      "# " + title + "\n\nSome words about " + title + ".",
		"is_published": published,
	}})
	return data[postJSON](s.t, expect(s.t, w, http.StatusCreated))
}
