package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/honestybar/internal/domain"
	"github.com/Skotchmaster/honestybar/internal/filestore"
	"github.com/Skotchmaster/honestybar/internal/models"
	"github.com/Skotchmaster/honestybar/internal/repo"
	"github.com/Skotchmaster/honestybar/internal/service"
	"github.com/Skotchmaster/honestybar/internal/tokens"
	"github.com/Skotchmaster/honestybar/internal/transport"
)

type testApp struct {
	e     *echo.Echo
	users *service.UserService
	carts *CartHTTP
}

func newTestApp(t *testing.T, loginRate float64) *testApp {
	t.Helper()
	ctx := context.Background()

	fs := filestore.New(t.TempDir())
	userRepo := repo.NewUserRepo(fs)
	productRepo := repo.NewProductRepo(fs)
	cartRepo := repo.NewCartRepo(fs)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, productRepo.Init(ctx))
	require.NoError(t, cartRepo.Init(ctx))

	issuer := tokens.NewIssuer([]byte("server-test-secret"), time.Minute)
	userSvc := &service.UserService{Repo: userRepo, Issuer: issuer, BcryptCost: bcrypt.MinCost}

	created, err := userSvc.EnsureAdmin(ctx, "root", "rootpw")
	require.NoError(t, err)
	require.True(t, created)

	carts := &CartHTTP{Svc: &service.CartService{Repo: cartRepo, Products: productRepo}}
	e := echo.New()
	Register(e, &Deps{
		UserHandler:    &UserHTTP{Svc: userSvc},
		ProductHandler: &ProductHTTP{Svc: &service.CatalogService{Repo: productRepo}},
		CartHandler:    carts,
		Issuer:         issuer,
		LoginRateLimit: loginRate,
	})

	return &testApp{e: e, users: userSvc, carts: carts}
}

func (a *testApp) call(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload string
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = string(raw)
	}

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) login(t *testing.T, name, password string) string {
	t.Helper()

	rec := a.call(t, http.MethodPost, "/users/login", "", transport.LoginRequest{Name: name, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res transport.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func (a *testApp) createUser(t *testing.T, adminToken, name string) (models.PublicUser, string) {
	t.Helper()

	rec := a.call(t, http.MethodPost, "/users", adminToken, transport.CreateUserRequest{Name: name, Password: name + "-pw"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var u models.PublicUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	return u, a.login(t, name, name+"-pw")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, 0)

	assert.Equal(t, http.StatusOK, app.call(t, http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, app.call(t, http.MethodGet, "/health/ready", "", nil).Code)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, 0)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{name: "wrong password", body: transport.LoginRequest{Name: "root", Password: "nope"}, status: http.StatusUnauthorized, code: "INVALID_CREDENTIALS"},
		{name: "unknown user", body: transport.LoginRequest{Name: "ghost", Password: "rootpw"}, status: http.StatusUnauthorized, code: "INVALID_CREDENTIALS"},
		{name: "missing password", body: map[string]string{"name": "root"}, status: http.StatusBadRequest, code: "BAD_REQUEST"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := app.call(t, http.MethodPost, "/users/login", "", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[transport.ErrorResponse](t, rec).Code)
		})
	}

	token := app.login(t, "root", "rootpw")
	rec := app.call(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "passwordHash")
	assert.NotContains(t, rec.Body.String(), "rootpw")

	me := decode[models.PublicUser](t, rec)
	assert.Equal(t, "root", me.Name)
	assert.Equal(t, models.RoleAdmin, me.Role)
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, 0)

	for _, path := range []string{"/users/me", "/products", "/cart", "/cart/history"} {
		rec := app.call(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "UNAUTHORIZED", decode[transport.ErrorResponse](t, rec).Code, path)

		rec = app.call(t, http.MethodGet, path, "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestUserManagement(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, 0)
	admin := app.login(t, "root", "rootpw")

	bob, bobToken := app.createUser(t, admin, "bob")
	assert.Equal(t, models.RoleUser, bob.Role)

	rec := app.call(t, http.MethodPost, "/users", admin, transport.CreateUserRequest{Name: "bob", Password: "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = app.call(t, http.MethodPost, "/users", bobToken, transport.CreateUserRequest{Name: "eve", Password: "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.call(t, http.MethodPost, "/users", admin, map[string]string{"name": "x", "password": "y", "role": "root"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.call(t, http.MethodPost, "/users", admin, transport.CreateUserRequest{Name: "long", Password: strings.Repeat("p", 100)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.call(t, http.MethodPost, "/users", admin, transport.CreateUserRequest{Name: "wide", Password: strings.Repeat("ж", 40)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[transport.ErrorResponse](t, rec).Code)

	rec = app.call(t, http.MethodDelete, "/users/"+bob.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.call(t, http.MethodDelete, "/users/"+bob.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.call(t, http.MethodDelete, "/users/"+bob.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.call(t, http.MethodGet, "/users/me", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.call(t, http.MethodPost, "/users/login", "", transport.LoginRequest{Name: "bob", Password: "bob-pw"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductVisibility(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, 0)
	admin := app.login(t, "root", "rootpw")
	_, user := app.createUser(t, admin, "ann")

	rec := app.call(t, http.MethodPost, "/products", admin, transport.CreateProductRequest{Name: "Tonic", Cost: 1, Price: 5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tonic := decode[models.Product](t, rec)
	assert.True(t, tonic.IsActive)
	assert.Equal(t, 5.0, tonic.Price)

	rec = app.call(t, http.MethodPost, "/products", user, transport.CreateProductRequest{Name: "Gin", Price: 9})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.call(t, http.MethodPost, "/products", admin, map[string]any{"name": "Bad", "price": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.call(t, http.MethodGet, "/products/"+tonic.ID, user, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.call(t, http.MethodDelete, "/products/"+tonic.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.call(t, http.MethodGet, "/products/"+tonic.ID, user, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	hidden := rec.Body.String()

	rec = app.call(t, http.MethodGet, "/products/does-not-exist", user, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, hidden, rec.Body.String())

	rec = app.call(t, http.MethodGet, "/products/"+tonic.ID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.Product](t, rec).IsActive)

	rec = app.call(t, http.MethodGet, "/products", user, nil)
	assert.Empty(t, decode[[]models.Product](t, rec))
	rec = app.call(t, http.MethodGet, "/products", admin, nil)
	assert.Len(t, decode[[]models.Product](t, rec), 1)

	rec = app.call(t, http.MethodPut, "/products/"+tonic.ID, admin, map[string]any{"isActive": true, "price": 6})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[models.Product](t, rec)
	assert.True(t, updated.IsActive)
	assert.Equal(t, 6.0, updated.Price)
	assert.Equal(t, "Tonic", updated.Name)

	rec = app.call(t, http.MethodPut, "/products/missing", admin, map[string]any{"price": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.call(t, http.MethodDelete, "/products/missing", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartFlow(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, 0)
	admin := app.login(t, "root", "rootpw")
	ann, annToken := app.createUser(t, admin, "ann")
	_, benToken := app.createUser(t, admin, "ben")

	rec := app.call(t, http.MethodPost, "/products", admin, transport.CreateProductRequest{Name: "Tonic", Cost: 1, Price: 5})
	require.Equal(t, http.StatusCreated, rec.Code)
	tonic := decode[models.Product](t, rec)

	rec = app.call(t, http.MethodGet, "/cart", annToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.Cart](t, rec).Items)

	rec = app.call(t, http.MethodPost, "/cart/checkout", annToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EMPTY_CART", decode[transport.ErrorResponse](t, rec).Code)

	rec = app.call(t, http.MethodPost, "/cart/items", annToken, map[string]any{"productId": tonic.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = app.call(t, http.MethodPost, "/cart/items", annToken, map[string]any{"productId": tonic.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[models.Cart](t, rec)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, "Tonic", cart.Items[0].Name)

	rec = app.call(t, http.MethodPost, "/cart/items", annToken, map[string]any{"productId": tonic.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = app.call(t, http.MethodPost, "/cart/items", annToken, map[string]any{"productId": tonic.ID, "quantity": 1001})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = app.call(t, http.MethodPost, "/cart/items", annToken, map[string]any{"productId": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.call(t, http.MethodDelete, "/cart/"+ann.ID, benToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.call(t, http.MethodGet, "/cart/history/"+ann.ID, benToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.call(t, http.MethodPost, "/cart/checkout", annToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	purchase := decode[models.Purchase](t, rec)
	assert.Equal(t, ann.ID, purchase.UserID)
	assert.Equal(t, cart.Items, purchase.Items)
	assert.False(t, purchase.PurchasedAt.IsZero())

	rec = app.call(t, http.MethodGet, "/cart", annToken, nil)
	assert.Empty(t, decode[models.Cart](t, rec).Items)

	rec = app.call(t, http.MethodGet, "/cart/history", annToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]models.Purchase](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, purchase.ID, history[0].ID)

	rec = app.call(t, http.MethodGet, "/cart/history/"+ann.ID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Purchase](t, rec), 1)

	rec = app.call(t, http.MethodPost, "/cart/items", annToken, map[string]any{"productId": tonic.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.call(t, http.MethodDelete, "/cart/items/"+tonic.ID, annToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.Cart](t, rec).Items)

	rec = app.call(t, http.MethodPost, "/cart/items", annToken, map[string]any{"productId": tonic.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.call(t, http.MethodDelete, "/cart/"+ann.ID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.call(t, http.MethodGet, "/cart", annToken, nil)
	assert.Empty(t, decode[models.Cart](t, rec).Items)

	rec = app.call(t, http.MethodPost, "/cart/items", benToken, map[string]any{"productId": tonic.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.call(t, http.MethodDelete, "/cart", benToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.Cart](t, rec).Items)

	rec = app.call(t, http.MethodDelete, "/products/"+tonic.ID, admin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.call(t, http.MethodPost, "/cart/items", annToken, map[string]any{"productId": tonic.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.call(t, http.MethodGet, "/cart/history", annToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tonic", decode[[]models.Purchase](t, rec)[0].Items[0].Name)
}

func TestCartReservedSegments(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, 0)
	admin := app.login(t, "root", "rootpw")

	for _, path := range []string{"/cart/items", "/cart/items/", "/cart/checkout", "/cart/history"} {
		rec := app.call(t, http.MethodDelete, path, admin, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decode[transport.ErrorResponse](t, rec).Code, path)
	}

	rec := app.call(t, http.MethodDelete, "/cart/u1_history", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// stuckCart records the purchase but reports that the cart could not be
// cleared.
type stuckCart struct {
	CartService
}

func (s stuckCart) Checkout(ctx context.Context, userID string) (*models.Purchase, error) {
	purchase, err := s.CartService.Checkout(ctx, userID)
	if err != nil {
		return nil, err
	}
	return purchase, fmt.Errorf("%w: write cart: disk full", domain.ErrCheckoutIncomplete)
}

func TestCartCheckoutIncomplete(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, 0)
	admin := app.login(t, "root", "rootpw")
	_, annToken := app.createUser(t, admin, "ann")
	app.carts.Svc = stuckCart{app.carts.Svc}

	rec := app.call(t, http.MethodPost, "/products", admin, transport.CreateProductRequest{Name: "Tonic", Cost: 1, Price: 5})
	require.Equal(t, http.StatusCreated, rec.Code)
	tonic := decode[models.Product](t, rec)

	rec = app.call(t, http.MethodPost, "/cart/items", annToken, map[string]any{"productId": tonic.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.call(t, http.MethodPost, "/cart/checkout", annToken, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	res := decode[transport.ErrorResponse](t, rec)
	assert.Equal(t, "CHECKOUT_INCOMPLETE", res.Code)
	assert.NotContains(t, res.Error, "disk full")

	rec = app.call(t, http.MethodGet, "/cart/history", annToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]models.Purchase](t, rec)
	require.Len(t, history, 1)
	assert.Contains(t, res.Error, history[0].ID)
}

func TestClassifyCheckoutIncomplete(t *testing.T) {
	t.Parallel()

	k := classify(fmt.Errorf("%w: rename: no space left", domain.ErrCheckoutIncomplete))
	assert.Equal(t, http.StatusInternalServerError, k.status)
	assert.Equal(t, "CHECKOUT_INCOMPLETE", k.code)
	assert.NotContains(t, k.message, "no space")
}

func TestLoginRateLimit(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, 1)

	body := transport.LoginRequest{Name: "root", Password: "wrong"}
	first := app.call(t, http.MethodPost, "/users/login", "", body)
	assert.Equal(t, http.StatusUnauthorized, first.Code)

	second := app.call(t, http.MethodPost, "/users/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "RATE_LIMITED", decode[transport.ErrorResponse](t, second).Code)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, 0)

	rec := app.call(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[transport.ErrorResponse](t, rec).Code)
}
