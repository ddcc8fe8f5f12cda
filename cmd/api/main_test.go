package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{
		BodyLimit:    1024,
		ErrorHandler: newErrorHandler(5 << 20),
	})
	app.Post("/upload", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
		wantError  string
	}{
		{
			name:       "body over limit is a bad request",
			req:        httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("a", 4096))),
			wantStatus: fiber.StatusBadRequest,
			wantError:  "File too large. Maximum file size is 5MB.",
		},
		{
			name:       "fiber error keeps its code",
			req:        httptest.NewRequest(http.MethodGet, "/missing", nil),
			wantStatus: fiber.StatusNotFound,
			wantError:  "Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(tt.req)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			var got struct {
				Error string `json:"error"`
				Code  int    `json:"code"`
			}
			require.NoError(t, json.Unmarshal(body, &got), string(body))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantStatus, got.Code)
			assert.Equal(t, tt.wantError, got.Error)
		})
	}
}
