package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"hunter-season-system/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	master   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	operator = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	stranger = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

type fakeRoles struct {
	roles map[common.Address]models.Role
}

func (f fakeRoles) IsMaster(addr common.Address) bool { return addr == master }

func (f fakeRoles) HasRole(_ context.Context, addr common.Address, role models.Role) (bool, error) {
	if addr == master {
		return true, nil
	}
	return f.roles[addr] == role, nil
}

func echoAccount(c *fiber.Ctx) error {
	return c.SendString(Account(c).Hex())
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestGatewayAuthMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(GatewayAuthMiddleware("secret"))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"bearer", "Bearer secret", http.StatusOK},
		{"raw", "secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			status, _ := do(t, app, req)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestAccountContextMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/me", AccountContextMiddleware(), echoAccount)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	status, _ := do(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, status)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(AccountHeader, "not-an-address")
	status, _ = do(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, status)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(AccountHeader, "0x00000000000000000000000000000000000000bb")
	status, body := do(t, app, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, operator.Hex(), body)
}

func TestSSEAuthMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/stream", SSEAuthMiddleware(), echoAccount)

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/stream?address=0x00000000000000000000000000000000000000cc", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, stranger.Hex(), body)

	status, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/stream", nil))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/stream?address=0x12", nil))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRoleMiddleware(t *testing.T) {
	roles := fakeRoles{roles: map[common.Address]models.Role{operator: models.RoleOperator}}

	app := fiber.New()
	app.Use(AccountContextMiddleware())
	app.Get("/operator", RequireOperator(roles), echoAccount)
	app.Get("/controller", RequireController(roles), echoAccount)
	app.Get("/master", RequireOperatorMaster(roles), echoAccount)

	tests := []struct {
		path   string
		caller common.Address
		status int
		code   string
	}{
		{"/operator", operator, http.StatusOK, ""},
		{"/operator", stranger, http.StatusForbidden, "OnlyOperator"},
		{"/operator", master, http.StatusOK, ""},
		{"/controller", operator, http.StatusForbidden, "OnlyController"},
		{"/controller", master, http.StatusOK, ""},
		{"/master", operator, http.StatusForbidden, "OnlyOperatorMaster"},
		{"/master", master, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.caller.Hex()[38:], func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set(AccountHeader, tt.caller.Hex())
			status, body := do(t, app, req)
			assert.Equal(t, tt.status, status)
			if tt.code != "" {
				assert.Contains(t, body, `"error":"`+tt.code+`"`)
			}
		})
	}
}
