package inventory

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gateway "github.com/umkm-labs/warung/apigateway"
	"github.com/umkm-labs/warung/store"
)

type testEnv struct {
	Router  *fiber.App
	Service *Service
	Store   *store.Store
	Token   string
	Other   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	st := store.New(store.OpenTestDB(t))
	owner, err := st.CreateUser(ctx, "owner@warung.id", "hash")
	require.NoError(t, err)
	other, err := st.CreateUser(ctx, "other@warung.id", "hash")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	auth := gateway.NewJWTAuth("test-secret", time.Hour)
	service := &Service{Store: st, Logger: logger, Metrics: NewMetrics(prometheus.NewRegistry())}

	r := fiber.New(fiber.Config{ErrorHandler: gateway.ErrorHandler(logger)})
	service.Routes(r.Group("/api", auth.AuthMiddleware()))
	service.LegacyRoutes(r, auth.AuthMiddleware())

	token, err := auth.GenerateJWT(owner.ID, owner.Email)
	require.NoError(t, err)
	otherToken, err := auth.GenerateJWT(other.ID, other.Email)
	require.NoError(t, err)
	return &testEnv{Router: r, Service: service, Store: st, Token: token, Other: otherToken}
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := e.Router.Test(req)
	require.NoError(t, err)
	defer res.Body.Close()
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func (e *testEnv) createGoods(t *testing.T, body string) string {
	t.Helper()
	code, res := e.do(t, http.MethodPost, "/api/goods/", body, e.Token)
	require.Equal(t, http.StatusCreated, code, res)
	return res["data"].(map[string]any)["id"].(string)
}

func TestGoodsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/goods/", `{"name":"Kopi","category":"minuman","price":1500,"stock_quantity":10}`, env.Token)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Goods created successfully", body["message"])
	id := body["data"].(map[string]any)["id"].(string)
	env.createGoods(t, `{"name":"Gula","price":14000,"stock_quantity":3}`)

	code, body = env.do(t, http.MethodGet, "/api/goods/?limit=1&page=1", "", env.Token)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 1, body["limit"])
	assert.Len(t, body["data"], 1)

	code, body = env.do(t, http.MethodGet, "/api/goods/?q=MINUM", "", env.Token)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])

	code, body = env.do(t, http.MethodGet, "/api/goods/"+id, "", env.Token)
	require.Equal(t, http.StatusOK, code)
	detail := body["data"].(map[string]any)
	assert.Equal(t, "Kopi", detail["name"])
	assert.Empty(t, detail["sales"])

	code, body = env.do(t, http.MethodPut, "/api/goods/"+id, `{"price":2000}`, env.Token)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2000, body["data"].(map[string]any)["price"])
	assert.EqualValues(t, 10, body["data"].(map[string]any)["stock_quantity"])

	code, _ = env.do(t, http.MethodPut, "/api/goods/"+id, `{}`, env.Token)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodGet, "/api/goods/"+id, "", env.Other)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Goods not found", body["message"])

	code, _ = env.do(t, http.MethodGet, "/api/goods/not-a-uuid", "", env.Token)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodDelete, "/api/goods/"+id, "", env.Token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Goods deleted successfully", body["message"])
	assert.Equal(t, id, body["data"].(map[string]any)["id"])

	code, _ = env.do(t, http.MethodDelete, "/api/goods/"+id, "", env.Token)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSalesEndpoints(t *testing.T) {
	env := newTestEnv(t)
	goodsID := env.createGoods(t, `{"name":"Kopi","price":1500,"stock_quantity":10}`)

	code, body := env.do(t, http.MethodPost, "/api/sales/", `{"goods_id":"`+goodsID+`","quantity":4,"sale_date":"2024-05-02"}`, env.Token)
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "Sales created successfully", body["message"])
	sale := body["data"].(map[string]any)
	saleID := sale["id"].(string)
	assert.EqualValues(t, 6000, sale["total_profit"])
	assert.Equal(t, "Kopi", sale["goods"].(map[string]any)["name"])

	code, body = env.do(t, http.MethodPost, "/api/sales/", `{"goods_id":"`+goodsID+`","quantity":7}`, env.Token)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "insufficient_stock", body["code"])

	code, _ = env.do(t, http.MethodPost, "/api/sales/", `{"goods_id":"`+uuid.NewString()+`","quantity":1}`, env.Token)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = env.do(t, http.MethodPost, "/api/sales/", `{"goods_id":"`+goodsID+`","quantity":0}`, env.Token)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", body["code"])

	code, body = env.do(t, http.MethodGet, "/api/sales/?q=kop", "", env.Token)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])

	code, body = env.do(t, http.MethodGet, "/api/sales/filter?goods_name=kopi&datestart=2024-05-01&dateend=2024-05-02", "", env.Token)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])

	code, body = env.do(t, http.MethodGet, "/api/sales/filter?dateend=2024-05-01", "", env.Token)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["total"])

	code, _ = env.do(t, http.MethodGet, "/api/sales/filter?datestart=yesterday", "", env.Token)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodGet, "/api/sales/filter?goods_name=teh", "", env.Token)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["total"])
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, 100, body["limit"])

	code, body = env.do(t, http.MethodGet, "/sales/filter/?goods_name=kopi&limit=5", "", env.Token)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 5, body["limit"])
	assert.Len(t, body["data"], 1)

	code, body = env.do(t, http.MethodGet, "/sales/filter/?goods_name=kopi", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = env.do(t, http.MethodPut, "/api/sales/"+saleID, `{"quantity":2}`, env.Token)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3000, body["data"].(map[string]any)["total_profit"])

	code, body = env.do(t, http.MethodGet, "/api/sales/"+saleID, "", env.Other)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Sales not found", body["message"])

	code, body = env.do(t, http.MethodDelete, "/api/sales/"+saleID, "", env.Token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Sales deleted successfully", body["message"])

	code, body = env.do(t, http.MethodGet, "/api/goods/"+goodsID, "", env.Token)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 10, body["data"].(map[string]any)["stock_quantity"])

	assert.Equal(t, 1.0, testutil.ToFloat64(env.Service.Metrics.SalesRecorded))
	assert.Equal(t, 4.0, testutil.ToFloat64(env.Service.Metrics.UnitsSold))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.Service.Metrics.StockRejected))
}
