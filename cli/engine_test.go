package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umkm-labs/warung/fields"
	"github.com/umkm-labs/warung/store"
)

func newTestEngine(t *testing.T, mutate func(*fields.Config)) *fiber.App {
	t.Helper()
	cfg := fields.Config{JWTSecret: "test-secret"}
	if mutate != nil {
		mutate(&cfg)
	}
	cfg.Defaults()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	srv := newServer(context.Background(), cfg, store.OpenTestDB(t), logger)
	t.Cleanup(srv.close)
	return srv.GetMainEngine()
}

func request(t *testing.T, app *fiber.App, method, path, body, token string, headers ...string) (int, []byte) {
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
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, raw
}

func decodeBody(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func signIn(t *testing.T, app *fiber.App) string {
	t.Helper()
	creds := `{"email":"toko@warung.id","password":"rahasia123"}`
	code, _ := request(t, app, http.MethodPost, "/api/auth/signup", creds, "")
	require.Equal(t, http.StatusCreated, code)
	code, raw := request(t, app, http.MethodPost, "/api/auth/signin", creds, "")
	require.Equal(t, http.StatusOK, code)
	data := decodeBody(t, raw)["data"].(map[string]any)
	return data["access_token"].(string)
}

func TestHealthAndReady(t *testing.T) {
	app := newTestEngine(t, nil)

	code, raw := request(t, app, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", decodeBody(t, raw)["status"])

	code, raw = request(t, app, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", decodeBody(t, raw)["status"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestEngine(t, nil)
	for _, path := range []string{"/api/goods/", "/api/sales/", "/api/forecast/", "/api/restock/", "/api/dashboard/summary", "/sales/filter/"} {
		code, _ := request(t, app, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, code, path)
	}
}

func TestSignInWithGeneratedSecret(t *testing.T) {
	app := newTestEngine(t, func(cfg *fields.Config) { cfg.JWTSecret = "" })
	token := signIn(t, app)

	code, _ := request(t, app, http.MethodGet, "/api/goods/", "", token)
	assert.Equal(t, http.StatusOK, code)
}

func TestInventoryFlowThroughEngine(t *testing.T) {
	app := newTestEngine(t, nil)
	token := signIn(t, app)

	code, raw := request(t, app, http.MethodPost, "/api/goods/", `{"name":"Kopi","price":15000,"stock_quantity":10}`, token)
	require.Equal(t, http.StatusCreated, code, string(raw))
	goodsID := decodeBody(t, raw)["data"].(map[string]any)["id"].(string)

	code, raw = request(t, app, http.MethodPost, "/api/sales/", `{"goods_id":"`+goodsID+`","quantity":4}`, token)
	require.Equal(t, http.StatusCreated, code, string(raw))

	code, raw = request(t, app, http.MethodPost, "/api/sales/", `{"goods_id":"`+goodsID+`","quantity":40}`, token)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "insufficient_stock", decodeBody(t, raw)["code"])

	code, raw = request(t, app, http.MethodGet, "/api/dashboard/summary?days=7", "", token)
	require.Equal(t, http.StatusOK, code)
	summary := decodeBody(t, raw)["data"].(map[string]any)
	assert.Equal(t, 1.0, summary["goods_count"])
	assert.Equal(t, 4.0, summary["units_sold"])
	assert.Equal(t, 60000.0, summary["revenue"])

	code, _ = request(t, app, http.MethodGet, "/api/forecast/?days=3", "", token)
	assert.Equal(t, http.StatusOK, code)
}

func TestMetricsGuardedByAdminKey(t *testing.T) {
	app := newTestEngine(t, func(cfg *fields.Config) { cfg.AdminKey = "ops-key" })

	code, _ := request(t, app, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, code)

	code, _ = request(t, app, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, raw := request(t, app, http.MethodGet, "/metrics", "", "", "X-Admin-Key", "ops-key")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(raw), "warung_request_requests_count")

	open := newTestEngine(t, nil)
	code, _ = request(t, open, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestChatDisabledWithoutKey(t *testing.T) {
	app := newTestEngine(t, nil)
	token := signIn(t, app)

	code, raw := request(t, app, http.MethodPost, "/api/chat?chat_message=stok", "", token)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "assistant_unavailable", decodeBody(t, raw)["code"])
}

func TestChatUsesConfiguredModel(t *testing.T) {
	var gotAuth, gotModel string
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel, _ = req["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"Stok aman."},"finish_reason":"stop"}]}`)
	}))
	t.Cleanup(llm.Close)

	app := newTestEngine(t, func(cfg *fields.Config) {
		cfg.GroqKey = "gsk_test"
		cfg.LLMBaseURL = llm.URL
		cfg.LLMModel = "test-model"
	})
	token := signIn(t, app)

	code, raw := request(t, app, http.MethodPost, "/api/chat?chat_message=cek+stok", "", token)
	require.Equal(t, http.StatusOK, code, string(raw))
	out := decodeBody(t, raw)
	assert.Equal(t, "cek stok", out["message"])
	assert.Equal(t, "Stok aman.", out["response"])
	assert.Equal(t, "Bearer gsk_test", gotAuth)
	assert.Equal(t, "test-model", gotModel)
}
