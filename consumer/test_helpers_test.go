package consumer

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	gateway "github.com/umkm-labs/warung/apigateway"
	"github.com/umkm-labs/warung/store"
)

type testEnv struct {
	Router  *fiber.App
	Service *Service
	Auth    *gateway.JWTAuth
	Store   *store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.New(store.OpenTestDB(t))
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	auth := gateway.NewJWTAuth("test-secret", time.Hour)
	service := &Service{Store: st, Logger: logger, Auth: auth}

	r := fiber.New(fiber.Config{ErrorHandler: gateway.ErrorHandler(logger)})
	service.Routes(r.Group("/api/auth"), auth.AuthMiddleware())
	return &testEnv{Router: r, Service: service, Auth: auth, Store: st}
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := e.Router.Test(req)
	require.NoError(t, err)
	defer res.Body.Close()
	out := map[string]any{}
	if res.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	}
	return res.StatusCode, out
}
