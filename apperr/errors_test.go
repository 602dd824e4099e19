package apperr

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"tagged", New(CodeSlotExceeded, "full"), CodeSlotExceeded},
		{"wrapped", fmt.Errorf("enter gate: %w", New(CodeInvalidSeasonID, "")), CodeInvalidSeasonID},
		{"untagged", errors.New("connection reset"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestErrorIsMatchesCodeOnly(t *testing.T) {
	err := fmt.Errorf("claim: %w", New(CodeAlreadyClaimed, "season 0"))
	assert.True(t, errors.Is(err, New(CodeAlreadyClaimed, "")))
	assert.False(t, errors.Is(err, New(CodeInvalidRate, "")))
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	tagged := New(CodeInvalidMonster, "rank mismatch")
	assert.Same(t, tagged, From(tagged))

	unknown := From(errors.New("disk full"))
	assert.Equal(t, CodeUnknown, unknown.Code)
	assert.Equal(t, "disk full", unknown.Reason)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "InvalidRate", New(CodeInvalidRate, "").Error())
	assert.Equal(t, "InvalidRate: sum 130000 != 100000", Newf(CodeInvalidRate, "sum %d != %d", 130000, 100000).Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeOnlyOperator, http.StatusForbidden},
		{CodeInvalidSeasonID, http.StatusNotFound},
		{CodeAlreadyClaimed, http.StatusConflict},
		{CodeSlotExceeded, http.StatusConflict},
		{CodeInvalidBlockNumber, http.StatusUnprocessableEntity},
		{CodeInvalidArgument, http.StatusBadRequest},
		{CodeUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestRespond(t *testing.T) {
	app := fiber.New()
	app.Get("/tagged", func(c *fiber.Ctx) error {
		return Respond(c, fmt.Errorf("enter: %w", New(CodeSlotExceeded, "2 of 2 slots in use")))
	})
	app.Get("/raw", func(c *fiber.Ctx) error {
		return Respond(c, errors.New("db closed"))
	})

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/tagged", http.StatusConflict, `{"error":"SlotExceeded","reason":"2 of 2 slots in use"}`},
		{"/raw", http.StatusInternalServerError, `{"error":"UnknownError","reason":"db closed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.JSONEq(t, tt.body, string(body))
		})
	}
}
