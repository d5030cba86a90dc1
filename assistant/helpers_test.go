package assistant

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/umkm-labs/warung/fields"
	"github.com/umkm-labs/warung/forecast"
	"github.com/umkm-labs/warung/store"
)

type testEnv struct {
	Store    *store.Store
	Forecast *forecast.Service
	Tools    *Toolbox
	User     *fields.User
	Logger   *logrus.Logger
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{now: time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return env.now }
	env.Store = store.New(store.OpenTestDB(t), store.WithClock(clock))
	user, err := env.Store.CreateUser(context.Background(), "owner@warung.id", "hash")
	require.NoError(t, err)
	env.User = user

	env.Logger = logrus.New()
	env.Logger.SetOutput(io.Discard)
	env.Forecast = &forecast.Service{Store: env.Store, Forecaster: forecast.NewForecaster(), Logger: env.Logger, Now: clock}
	env.Tools = NewToolbox(env.Store, env.Forecast)
	return env
}

func (e *testEnv) goods(t *testing.T, name string, price float64, stock int) *fields.Goods {
	t.Helper()
	g, err := e.Store.CreateGoods(context.Background(), e.User.ID, fields.GoodsCreate{Name: name, Price: price, StockQuantity: stock})
	require.NoError(t, err)
	return g
}

func (e *testEnv) call(t *testing.T, name string, args any) string {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	out, err := e.Tools.Execute(context.Background(), e.User.ID, name, string(raw))
	require.NoError(t, err)
	return out
}

func (e *testEnv) agent(llm LLM) *Agent {
	return &Agent{
		LLM:     llm,
		Tools:   e.Tools,
		Memory:  NewLocalMemory(MemorySize),
		Logger:  e.Logger,
		Metrics: NewMetrics(prometheus.NewRegistry()),
	}
}

// fakeLLM replays scripted responses and records every request.
type fakeLLM struct {
	mu       sync.Mutex
	replies  []Message
	requests []ChatRequest
	status   int
}

func (f *fakeLLM) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.URL.Path != "/chat/completions" || r.Header.Get("Authorization") != "Bearer test-key" {
		http.Error(w, "bad request", http.StatusUnauthorized)
		return
	}
	if f.status != 0 {
		http.Error(w, `{"error":"upstream down"}`, f.status)
		return
	}
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.requests = append(f.requests, req)

	reply := Message{Role: "assistant", Content: "selesai"}
	if len(f.replies) > 0 {
		reply, f.replies = f.replies[0], f.replies[1:]
	}
	finish := "stop"
	if len(reply.ToolCalls) > 0 {
		finish = "tool_calls"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id": "chatcmpl-test",
		"choices": []map[string]any{
			{"index": 0, "message": reply, "finish_reason": finish},
		},
		"usage": map[string]int{"total_tokens": 42},
	})
}

func (f *fakeLLM) Requests() []ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ChatRequest(nil), f.requests...)
}

func newFakeLLM(t *testing.T, replies ...Message) (*fakeLLM, *OpenAIClient) {
	t.Helper()
	fake := &fakeLLM{replies: replies}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)
	client := NewOpenAIClient(srv.URL, "test-key", fields.DefaultLLMModel, 0.2, 2048, 5*time.Second)
	return fake, client
}

func toolCall(id, name, args string) Message {
	return Message{
		Role:      "assistant",
		ToolCalls: []ToolCall{{ID: id, Type: "function", Function: FunctionCall{Name: name, Arguments: args}}},
	}
}
