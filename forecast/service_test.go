package forecast

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
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gateway "github.com/umkm-labs/warung/apigateway"
	"github.com/umkm-labs/warung/fields"
	"github.com/umkm-labs/warung/store"
)

type testEnv struct {
	Service *Service
	Store   *store.Store
	User    *fields.User
	Router  *fiber.App
	Token   string
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{now: time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return env.now }
	env.Store = store.New(store.OpenTestDB(t), store.WithClock(clock))
	user, err := env.Store.CreateUser(context.Background(), "owner@warung.id", "hash")
	require.NoError(t, err)
	env.User = user

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	env.Service = &Service{Store: env.Store, Forecaster: NewForecaster(), Logger: logger, HorizonDays: 7, Now: clock}

	auth := gateway.NewJWTAuth("test-secret", time.Hour)
	env.Token, err = auth.GenerateJWT(user.ID, user.Email)
	require.NoError(t, err)
	env.Router = fiber.New(fiber.Config{ErrorHandler: gateway.ErrorHandler(logger)})
	env.Service.Routes(env.Router.Group("/api", auth.AuthMiddleware()))
	return env
}

// seed records qty units per day on each of the days before now.
func (e *testEnv) seed(t *testing.T, name string, stock, qty, days int) *fields.Goods {
	t.Helper()
	ctx := context.Background()
	g, err := e.Store.CreateGoods(ctx, e.User.ID, fields.GoodsCreate{Name: name, Price: 1000, StockQuantity: stock + qty*days})
	require.NoError(t, err)
	for d := 1; d <= days; d++ {
		day := e.now.AddDate(0, 0, -d).Format(fields.DateLayout)
		_, err := e.Store.CreateSales(ctx, e.User.ID, fields.SalesCreate{GoodsID: g.ID, Quantity: qty, SaleDate: day})
		require.NoError(t, err)
	}
	g, err = e.Store.GetGoods(ctx, e.User.ID, g.ID)
	require.NoError(t, err)
	return g
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.Token)
	res, err := e.Router.Test(req)
	require.NoError(t, err)
	defer res.Body.Close()
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func TestForecastGoods(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	kopi := env.seed(t, "Kopi", 5, 3, 10)
	teh := env.seed(t, "Teh", 50, 2, 2)

	data, err := env.Service.ForecastGoods(ctx, env.User.ID, *kopi, 7)
	require.NoError(t, err)
	require.Len(t, data.Sales, DefaultLookbackDays)
	assert.Equal(t, "2024-05-19", data.Sales[len(data.Sales)-1].Date)
	assert.True(t, data.IsForecasted)
	require.Len(t, data.Forecast, 7)
	assert.Equal(t, "2024-05-20", data.Forecast[0].Date)
	assert.Equal(t, 3, data.Forecast[0].TotalSales)

	data, err = env.Service.ForecastGoods(ctx, env.User.ID, *teh, 7)
	require.NoError(t, err)
	assert.False(t, data.IsForecasted)
	assert.Empty(t, data.Forecast)

	all, err := env.Service.Forecast(ctx, env.User.ID, uuid.Nil, 3)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Kopi", all[0].Name)
}

func TestRefreshUserWritesRestock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	kopi := env.seed(t, "Kopi", 5, 3, 10)
	env.seed(t, "Teh", 50, 2, 2)

	n, err := env.Service.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	item, err := env.Store.GetRestockByGoods(ctx, env.User.ID, kopi.ID)
	require.NoError(t, err)
	// 7 days * 3 units minus 5 on hand
	assert.Equal(t, 16, item.TotalQuantity)
	assert.EqualValues(t, 7, item.FuturePreds["horizon_days"])
	assert.Len(t, item.FuturePreds["forecast"], 7)
}

func TestForecastAndRestockEndpoints(t *testing.T) {
	env := newTestEnv(t)
	kopi := env.seed(t, "Kopi", 5, 3, 10)

	code, body := env.do(t, http.MethodGet, "/api/forecast?days=3&goods_id="+kopi.ID.String(), "")
	require.Equal(t, http.StatusOK, code)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, true, data[0].(map[string]any)["is_forecasted"])
	assert.Len(t, data[0].(map[string]any)["forecast"], 3)

	code, _ = env.do(t, http.MethodGet, "/api/forecast?days=31", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = env.do(t, http.MethodGet, "/api/forecast?goods_id=nope", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = env.do(t, http.MethodGet, "/api/forecast?goods_id="+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodGet, "/api/restock/"+kopi.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = env.do(t, http.MethodPost, "/api/restock/", `{"goods_id":"`+kopi.ID.String()+`","total_quantity":4}`)
	require.Equal(t, http.StatusCreated, code, body)

	code, _ = env.do(t, http.MethodPost, "/api/restock/", `{"goods_id":"`+kopi.ID.String()+`","total_quantity":4}`)
	assert.Equal(t, http.StatusConflict, code)

	code, body = env.do(t, http.MethodPut, "/api/restock/"+kopi.ID.String(), `{"total_quantity":9}`)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 9, body["data"].(map[string]any)["total_quantity"])

	code, body = env.do(t, http.MethodPost, "/api/restock/refresh", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["updated"])

	code, body = env.do(t, http.MethodGet, "/api/restock/", "")
	require.Equal(t, http.StatusOK, code)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	assert.EqualValues(t, 16, items[0].(map[string]any)["total_quantity"])

	code, _ = env.do(t, http.MethodDelete, "/api/restock/"+kopi.ID.String(), "")
	assert.Equal(t, http.StatusOK, code)
}

func TestWorkerStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "Kopi", 5, 3, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w := &Worker{Service: env.Service, Interval: time.Hour, Logger: env.Service.Logger}
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		items, err := env.Store.ListRestock(context.Background(), env.User.ID)
		return err == nil && len(items) == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	(&Worker{Service: env.Service, Logger: env.Service.Logger}).Run(context.Background())
}
