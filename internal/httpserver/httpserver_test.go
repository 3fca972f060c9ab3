package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/repo/repotest"
	"github.com/Skotchmaster/storefront/internal/service/auth"
	"github.com/Skotchmaster/storefront/internal/service/cart"
	"github.com/Skotchmaster/storefront/internal/service/catalog"
	"github.com/Skotchmaster/storefront/internal/service/order"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type testEnv struct {
	e      *echo.Echo
	events *events.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	r := repotest.NewRepo(t)
	rec := &events.Recorder{}

	authSvc := &auth.AuthService{
		Repo: r,
		Cfg: config.AuthConfig{
			MaxFailedAttempts: 5,
			LockDuration:      5 * time.Minute,
			ResetTokenTTL:     24 * time.Hour,
			MinPasswordLength: 8,
			BcryptCost:        bcrypt.MinCost,
			JWTSecret:         []byte("test-jwt-secret"),
			AccessTTL:         15 * time.Minute,
		},
		Events: rec,
	}

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler()
	e.Use(Common(logging.NewWithWriter(io.Discard, "error"))...)

	Register(e, &Deps{
		DB:       r,
		Users:    &UsersHTTP{Svc: authSvc},
		Products: &ProductsHTTP{Svc: &catalog.CatalogService{Repo: r, Events: rec}},
		Search:   &SearchHTTP{},
		Cart:     &CartHTTP{Svc: &cart.CartService{Repo: r, Cfg: config.CartConfig{MaxItems: 20}, Events: rec}},
		Orders:   &OrdersHTTP{Svc: &order.OrderService{Repo: r, Events: rec}},

		RequireAuth: authmw.New(authSvc, "storefront").RequireAuth,
	})
	return &testEnv{e: e, events: rec}
}

type reqOpt func(*http.Request)

func basic(user, pass string) reqOpt {
	return func(r *http.Request) { r.SetBasicAuth(user, pass) }
}

func bearer(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token) }
}

func (env *testEnv) do(t *testing.T, method, path string, body any, opts ...reqOpt) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (env *testEnv) register(t *testing.T, username string) uint {
	t.Helper()
	rec, body := env.do(t, http.MethodPost, "/api/users/register", map[string]string{
		"username": username, "email": username + "@example.com", "password": "password1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return uint(body["id"].(float64))
}

func (env *testEnv) createProduct(t *testing.T, name, price string, opt reqOpt) uint {
	t.Helper()
	rec, body := env.do(t, http.MethodPost, "/api/products", map[string]any{
		"name": name, "description": name + " description", "price": price, "type": "ONE_TIME",
	}, opt)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return uint(body["id"].(float64))
}

func TestUsers_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	rec, body := env.do(t, http.MethodPost, "/api/users/register", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "password1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username is already taken", body["message"])

	rec, body = env.do(t, http.MethodPost, "/api/users/register", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password is too short", body["message"])

	rec, body = env.do(t, http.MethodPost, "/api/users/login", map[string]string{"username": "alice", "password": "password1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", body["username"])
	assert.NotEmpty(t, body["accessToken"])
	assert.NotContains(t, body, "passwordHash")
	assert.NotContains(t, rec.Body.String(), "password")

	rec, body = env.do(t, http.MethodPost, "/api/users/login", map[string]string{"username": "alice", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid username or password", body["message"])

	rec, _ = env.do(t, http.MethodPost, "/api/users/login", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsers_LockoutThroughLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	for i := 0; i < 5; i++ {
		rec, _ := env.do(t, http.MethodPost, "/api/users/login", map[string]string{"username": "alice", "password": "wrong-pass"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec, _ := env.do(t, http.MethodPost, "/api/users/login", map[string]string{"username": "alice", "password": "password1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/products", nil, basic("alice", "password1"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsers_PasswordReset(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	rec, _ := env.do(t, http.MethodPost, "/api/users/request-password-reset", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/users/request-password-reset", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var token string
	for _, m := range env.events.Messages(events.TopicUsers) {
		if ev := m.Event.(events.UserEvent); ev.Type == events.PasswordResetRequested {
			token = ev.Token
		}
	}
	require.NotEmpty(t, token)

	rec, _ = env.do(t, http.MethodPut, "/api/users/reset-password", map[string]string{"token": "bogus", "newPassword": "new-password"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.do(t, http.MethodPut, "/api/users/reset-password", map[string]string{"token": token, "newPassword": "new-password"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/products", nil, basic("alice", "new-password"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProducts_CRUD(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")
	auth := basic("alice", "password1")

	rec, body := env.do(t, http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, body["message"])

	id := env.createProduct(t, "Tea", "4.50", auth)

	rec, body = env.do(t, http.MethodGet, "/api/products/1", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tea", body["name"])

	rec, body = env.do(t, http.MethodPost, "/api/products", map[string]any{
		"name": "", "description": "d", "price": "1", "type": "ONE_TIME",
	}, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name is required", body["message"])

	rec, body = env.do(t, http.MethodPut, "/api/products/1", map[string]any{
		"name": "Black Tea", "description": "d", "price": "5.00", "type": "SUBSCRIPTION",
	}, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SUBSCRIPTION", body["type"])

	rec, body = env.do(t, http.MethodGet, "/api/products?page=1&size=10", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)

	rec, _ = env.do(t, http.MethodGet, "/api/products/abc", nil, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.do(t, http.MethodDelete, "/api/products/1", nil, auth)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, body = env.do(t, http.MethodGet, "/api/products/1", nil, auth)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product not found", body["message"])
	assert.NotZero(t, id)

	rec, _ = env.do(t, http.MethodGet, "/api/products/search?q=tea", nil, auth)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCartAndCheckout(t *testing.T) {
	env := newTestEnv(t)
	uid := env.register(t, "alice")

	_, login := env.do(t, http.MethodPost, "/api/users/login", map[string]string{"username": "alice", "password": "password1"})
	tok := bearer(login["accessToken"].(string))

	a := env.createProduct(t, "A", "10.00", tok)
	b := env.createProduct(t, "B", "5.00", tok)

	rec, body := env.do(t, http.MethodPost, "/api/cart/add", map[string]any{"userId": uid, "productId": a, "quantity": 2}, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, body["quantity"])

	rec, _ = env.do(t, http.MethodPost, "/api/cart/add", map[string]any{"userId": uid, "productId": b, "quantity": 1}, tok)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = env.do(t, http.MethodPost, "/api/cart/add", map[string]any{"userId": uid, "productId": a}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body["message"])

	rec, _ = env.do(t, http.MethodPost, "/api/cart/add", map[string]any{"userId": uid, "productId": 999, "quantity": 1}, tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/cart/add", map[string]any{"userId": uid, "productId": a, "quantity": 0}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = env.do(t, http.MethodPut, "/api/cart/updateQuantity", map[string]any{"userId": uid, "productId": b, "newQuantity": 3}, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["removed"])

	rec, body = env.do(t, http.MethodGet, "/api/cart/1", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "35", body["totalPrice"])
	assert.Len(t, body["cartItems"], 2)

	rec, _ = env.do(t, http.MethodDelete, "/api/cart/remove", map[string]any{"userId": uid, "productId": 999}, tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = env.do(t, http.MethodPost, "/api/orders/1/checkout", map[string]any{"shippingAddress": "1 Main St"}, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "35", body["totalAmount"])
	assert.Equal(t, "PENDING", body["paymentStatus"])
	assert.Len(t, body["orderItems"], 2)
	orderID := uint(body["id"].(float64))

	rec, _ = env.do(t, http.MethodGet, "/api/cart/1", nil, tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = env.do(t, http.MethodPost, "/api/orders/1/checkout", map[string]any{"shippingAddress": "1 Main St"}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body["message"])

	rec, _ = env.do(t, http.MethodGet, "/api/orders/user/1", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.EqualValues(t, orderID, list[0]["id"])

	rec, _ = env.do(t, http.MethodGet, "/api/orders/user/999", nil, tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = env.do(t, http.MethodGet, "/api/orders/999", nil, tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order not found", body["message"])

	assert.Len(t, env.events.Messages(events.TopicOrders), 1)
}

func TestCart_ClearAndRemove(t *testing.T) {
	env := newTestEnv(t)
	uid := env.register(t, "alice")
	auth := basic("alice", "password1")
	p := env.createProduct(t, "A", "1.00", auth)

	rec, _ := env.do(t, http.MethodDelete, "/api/cart/1", nil, auth)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/cart/add", map[string]any{"userId": uid, "productId": p, "quantity": 1}, auth)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodDelete, "/api/cart/remove", map[string]any{"userId": uid, "productId": p}, auth)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/cart/add", map[string]any{"userId": uid, "productId": p, "quantity": 1}, auth)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodDelete, "/api/cart/1", nil, auth)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := env.do(t, http.MethodGet, "/api/cart/1", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["cartItems"])
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = env.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusAndMessage(t *testing.T) {
	status, msg := statusAndMessage(echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate limit exceeded", msg)

	status, msg = statusAndMessage(io.ErrUnexpectedEOF)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, unexpectedMessage, msg)
}
