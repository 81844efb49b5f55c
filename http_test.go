package taskapi_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-repository-bun"
	taskapi "github.com/goliatone/go-taskapi"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// fakeUsers keeps user records in memory. The embedded interface covers the
// repository methods these tests never touch; calling one panics loudly.
type fakeUsers struct {
	taskapi.Users
	mu      sync.Mutex
	records map[uuid.UUID]*taskapi.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{records: map[uuid.UUID]*taskapi.User{}}
}

func (f *fakeUsers) add(user *taskapi.User) *taskapi.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.records[user.ID] = user
	return user
}

func (f *fakeUsers) GetByIdentifier(ctx context.Context, identifier string, _ ...repository.SelectCriteria) (*taskapi.User, error) {
	return f.lookup(identifier)
}

func (f *fakeUsers) lookup(identifier string) (*taskapi.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.records {
		if u.ID.String() == identifier || u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}
	return nil, taskapi.ErrIdentityNotFound
}

func (f *fakeUsers) ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.records {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.records {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) CreateTx(ctx context.Context, tx bun.IDB, record *taskapi.User, criteria ...repository.InsertCriteria) (*taskapi.User, error) {
	if record.Role == "" {
		record.Role = taskapi.RoleUser
	}
	return f.add(record), nil
}

func (f *fakeUsers) ListUsers(ctx context.Context) ([]*taskapi.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*taskapi.User, 0, len(f.records))
	for _, u := range f.records {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) TrackAttemptedLogin(ctx context.Context, user *taskapi.User) error {
	user.LoginAttempts++
	return nil
}

func (f *fakeUsers) TrackSuccessfulLogin(ctx context.Context, user *taskapi.User) error {
	user.LoginAttempts = 0
	return nil
}

type fakeTasks struct {
	taskapi.Tasks
	mu      sync.Mutex
	records map[uuid.UUID]*taskapi.Task
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{records: map[uuid.UUID]*taskapi.Task{}}
}

func (f *fakeTasks) CreateTask(ctx context.Context, record *taskapi.Task) (*taskapi.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = taskapi.TaskStatusPending
	}
	f.records[record.ID] = record
	return record, nil
}

func (f *fakeTasks) GetTask(ctx context.Context, id uuid.UUID) (*taskapi.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record, ok := f.records[id]; ok {
		return record, nil
	}
	return nil, taskapi.ErrTaskNotFound
}

func (f *fakeTasks) ListTasks(ctx context.Context) ([]*taskapi.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*taskapi.Task, 0, len(f.records))
	for _, record := range f.records {
		out = append(out, record)
	}
	return out, nil
}

func (f *fakeTasks) ListByStatus(ctx context.Context, status taskapi.TaskStatus) ([]*taskapi.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*taskapi.Task{}
	for _, record := range f.records {
		if record.Status == status {
			out = append(out, record)
		}
	}
	return out, nil
}

// fakeRepo satisfies RepositoryManager without a database. RunInTx executes
// the callback directly; the fakes do not need transactional scope.
type fakeRepo struct {
	users *fakeUsers
	tasks *fakeTasks
}

func (f *fakeRepo) Validate() error { return nil }
func (f *fakeRepo) MustValidate()   {}

func (f *fakeRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

func (f *fakeRepo) Users() taskapi.Users { return f.users }
func (f *fakeRepo) Tasks() taskapi.Tasks { return f.tasks }

type trackerAdapter struct {
	users *fakeUsers
}

func (a trackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*taskapi.User, error) {
	return a.users.lookup(identifier)
}

func (a trackerAdapter) TrackAttemptedLogin(ctx context.Context, user *taskapi.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a trackerAdapter) TrackSuccessfulLogin(ctx context.Context, user *taskapi.User) error {
	return a.users.TrackSuccessfulLogin(ctx, user)
}

type testEnv struct {
	app    *fiber.App
	users  *fakeUsers
	tasks  *fakeTasks
	auther *taskapi.Auther
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newFakeUsers()
	tasks := newFakeTasks()
	repo := &fakeRepo{users: users, tasks: tasks}

	provider := taskapi.NewUserProvider(trackerAdapter{users: users})
	auther := taskapi.NewAuthenticator(provider, repo, newMockConfig())

	app := fiber.New(fiber.Config{
		ErrorHandler: taskapi.NewHTTPErrorHandler(nil),
	})

	taskapi.RegisterRoutes(app, taskapi.RouterDeps{
		Auth:   auther,
		Tokens: auther.TokenService(),
		Repo:   repo,
		Cfg:    newMockConfig(),
	})

	return &testEnv{app: app, users: users, tasks: tasks, auther: auther}
}

func jsonRequest(method, target string, payload any) *http.Request {
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func registerAndLogin(t *testing.T, env *testEnv, username, email, password string) string {
	t.Helper()

	resp, err := env.app.Test(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "Bearer", body["type"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("successful registration", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
			"username": "pepe",
			"email":    "pepe@example.com",
			"password": "secret-password",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "User registered successfully!", body["message"])
	})

	t.Run("duplicate username reported before email", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
			"username": "pepe",
			"email":    "pepe@example.com",
			"password": "secret-password",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Username is already taken!", body["message"])
	})

	t.Run("duplicate email", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
			"username": "another",
			"email":    "pepe@example.com",
			"password": "secret-password",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Email is already in use!", body["message"])
	})

	t.Run("validation failure", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
			"username": "x",
			"email":    "not-an-email",
			"password": "123",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("one principal per registration", func(t *testing.T) {
		all, err := env.users.ListUsers(context.Background())
		require.NoError(t, err)
		assert.Len(t, all, 1)
		assert.Equal(t, taskapi.RoleUser, all[0].Role)
	})
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	registerAndLogin(t, env, "pepe", "pepe@example.com", "secret-password")

	t.Run("wrong password", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
			"username": "pepe",
			"password": "wrong-password",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown user gets the same response as wrong password", func(t *testing.T) {
		wrongPass, err := env.app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
			"username": "pepe",
			"password": "wrong-password",
		}))
		require.NoError(t, err)

		unknown, err := env.app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
			"username": "ghost",
			"password": "wrong-password",
		}))
		require.NoError(t, err)

		assert.Equal(t, wrongPass.StatusCode, unknown.StatusCode)
		assert.Equal(t, decodeBody(t, wrongPass), decodeBody(t, unknown))
	})
}

func TestProtectedRoutes(t *testing.T) {
	env := newTestEnv(t)
	token := registerAndLogin(t, env, "pepe", "pepe@example.com", "secret-password")

	t.Run("round trip with a fresh token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := env.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("no header is anonymous and guarded routes reject it", func(t *testing.T) {
		resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		bad := token[:len(token)-2] + "xx"
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+bad)
		resp, err := env.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Invalid token", body["error"])
	})

	t.Run("zero ttl token reads as expired", func(t *testing.T) {
		user, err := env.users.lookup("pepe")
		require.NoError(t, err)

		expiring := taskapi.NewTokenService([]byte("test-signing-key"), 0, "test-issuer", []string{"test-audience"}, nil)
		expired, err := expiring.Generate(TestIdentity{
			id:       user.ID.String(),
			username: user.Username,
			role:     string(user.Role),
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+expired)
		resp, err := env.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Token has expired", body["error"])
	})
}

func TestTaskEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := registerAndLogin(t, env, "pepe", "pepe@example.com", "secret-password")

	authed := func(method, target string, payload any) *http.Request {
		req := jsonRequest(method, target, payload)
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	t.Run("create binds the caller as owner", func(t *testing.T) {
		resp, err := env.app.Test(authed(http.MethodPost, "/api/tasks", map[string]string{
			"title":       "write report",
			"description": "quarterly numbers",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, string(taskapi.TaskStatusPending), body["status"])

		user, err := env.users.lookup("pepe")
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), body["user_id"])
	})

	t.Run("invalid status segment", func(t *testing.T) {
		resp, err := env.app.Test(authed(http.MethodGet, "/api/tasks/status/DONE", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("status listing", func(t *testing.T) {
		resp, err := env.app.Test(authed(http.MethodGet, "/api/tasks/status/PENDING", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing task is a 404", func(t *testing.T) {
		resp, err := env.app.Test(authed(http.MethodGet, "/api/tasks/"+uuid.NewString(), nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestUserEndpointGuards(t *testing.T) {
	env := newTestEnv(t)
	token := registerAndLogin(t, env, "pepe", "pepe@example.com", "secret-password")

	otherToken := registerAndLogin(t, env, "luis", "luis@example.com", "secret-password")

	env.users.add(&taskapi.User{
		Username:     "root",
		Email:        "root@example.com",
		Role:         taskapi.RoleAdmin,
		PasswordHash: mustHash(t, "admin-password"),
	})

	adminToken := login(t, env, "root", "admin-password")

	pepe, err := env.users.lookup("pepe")
	require.NoError(t, err)

	get := func(token, target string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := env.app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("self can read own record", func(t *testing.T) {
		resp := get(token, "/api/users/"+pepe.ID.String())
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("non owner non admin is rejected with 403", func(t *testing.T) {
		resp := get(otherToken, "/api/users/"+pepe.ID.String())
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin can read anyone", func(t *testing.T) {
		resp := get(adminToken, "/api/users/"+pepe.ID.String())
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing user is a 404 even for non owners", func(t *testing.T) {
		resp := get(otherToken, "/api/users/"+uuid.NewString())
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("listing is admin only", func(t *testing.T) {
		resp := get(token, "/api/users/")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = get(adminToken, "/api/users/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("me returns the caller", func(t *testing.T) {
		resp := get(token, "/api/users/me")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "pepe", body["username"])
	})
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := taskapi.HashPassword(password)
	require.NoError(t, err)
	return hash
}

func login(t *testing.T, env *testEnv, username, password string) string {
	t.Helper()

	resp, err := env.app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}
