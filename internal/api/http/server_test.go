package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/emr-service/internal/api/http"
	"github.com/spec-kit/emr-service/internal/api/http/handlers"
	"github.com/spec-kit/emr-service/internal/auth"
	"github.com/spec-kit/emr-service/internal/config"
	"github.com/spec-kit/emr-service/internal/domain"
	"github.com/spec-kit/emr-service/internal/events"
	"github.com/spec-kit/emr-service/internal/observability"
	"github.com/spec-kit/emr-service/internal/repository"
	"github.com/spec-kit/emr-service/internal/service"
)

type memoryUsers struct {
	mu     sync.Mutex
	byID   map[int64]*domain.User
	nextID int64
	err    error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[int64]*domain.User{}}
}

func (m *memoryUsers) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, u := range m.byID {
		if u.Username == user.Username {
			return &repository.DuplicateError{Constraint: repository.UsernameConstraint}
		}
		if u.Email != nil && user.Email != nil && *u.Email == *user.Email {
			return &repository.DuplicateError{Constraint: repository.UserEmailConstraint}
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now().UTC()
	stored := *user
	m.byID[user.ID] = &stored
	return nil
}

func (m *memoryUsers) SetEnabled(_ context.Context, id int64, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Enabled = enabled
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (m *memoryUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.byID {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryUsers) List(_ context.Context, offset, limit int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return []domain.User{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type memoryLogs struct {
	mu       sync.Mutex
	activity []domain.UserActivityLog
	logins   []domain.UserLoginLog
}

func (m *memoryLogs) CreateActivity(_ context.Context, entry *domain.UserActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = int64(len(m.activity) + 1)
	m.activity = append(m.activity, *entry)
	return nil
}

func (m *memoryLogs) ListActivity(_ context.Context, offset, limit int) ([]domain.UserActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.activity) {
		return []domain.UserActivityLog{}, nil
	}
	out := append([]domain.UserActivityLog(nil), m.activity[offset:]...)
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryLogs) CreateLogin(_ context.Context, entry *domain.UserLoginLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = int64(len(m.logins) + 1)
	m.logins = append(m.logins, *entry)
	return nil
}

func (m *memoryLogs) loginDescriptions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.logins))
	for _, l := range m.logins {
		out = append(out, l.Description)
	}
	return out
}

type testServer struct {
	t     *testing.T
	app   *fiber.App
	users *memoryUsers
	logs  *memoryLogs
	mu    sync.Mutex
	now   time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		t:     t,
		users: newMemoryUsers(),
		logs:  &memoryLogs{},
		now:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	logger := zaptest.NewLogger(t)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewLoginAuditService(dispatcher, s.users, s.logs, logger).RegisterHandlers()

	store := repository.NewCredentialStore(s.users)
	authService, err := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "http-test-secret",
		AccessTokenTTLMinutes: 30,
		BcryptCost:            bcrypt.MinCost,
	}, service.AuthDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Recorder:   metrics,
		Logger:     logger,
		Clock:      s.clock,
	})
	require.NoError(t, err)

	resolver := auth.NewResolver(authService.TokenCodec(), store, logger)
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("emr-service", "test", nil),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(service.NewUserService(s.users, authService.Hasher())),
		Activity:       handlers.NewActivityHandler(service.NewActivityService(s.users, s.logs)),
		AuthMiddleware: auth.NewAuthMiddleware(resolver, metrics),
		Metrics:        metrics,
	})
	s.app = app
	return s
}

func (s *testServer) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *testServer) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func (s *testServer) do(req *http.Request) (*http.Response, []byte) {
	s.t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	_ = resp.Body.Close()
	return resp, body
}

func (s *testServer) doJSON(method, path, token, body string) (*http.Response, []byte) {
	s.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return s.do(req)
}

func (s *testServer) login(username, password string) (*http.Response, []byte) {
	s.t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return s.do(req)
}

func (s *testServer) register(username, password string) int64 {
	s.t.Helper()
	resp, body := s.doJSON(http.MethodPost, "/users/", "", `{
		"username": "`+username+`",
		"password": "`+password+`",
		"first_name": "Alice",
		"last_name": "Liddell",
		"date_of_birth": "1990-01-02",
		"facility_id": "facility-1"
	}`)
	require.Equal(s.t, http.StatusCreated, resp.StatusCode, string(body))

	var out struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	require.NoError(s.t, json.Unmarshal(body, &out))
	return out.Data.ID
}

func (s *testServer) token(username, password string) string {
	s.t.Helper()
	resp, body := s.login(username, password)
	require.Equal(s.t, http.StatusOK, resp.StatusCode, string(body))

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(s.t, json.Unmarshal(body, &out))
	require.Equal(s.t, "bearer", out.TokenType)
	require.NotEmpty(s.t, out.AccessToken)
	return out.AccessToken
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, body []byte) errorBody {
	t.Helper()
	var out errorBody
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
