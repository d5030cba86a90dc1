// Package assistant is the chat agent that answers inventory questions by
// calling tools over the user's own goods, sales and forecasts.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	gateway "github.com/umkm-labs/warung/apigateway"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRounds bounds the tool calling rounds of one chat turn.
const MaxRounds = 6

const systemPrompt = `Kamu adalah asisten manajemen inventory dan penjualan untuk pelaku UMKM.

Tugasmu:
- Membantu user melihat, menambah, mengubah, dan menghapus data barang.
- Mencatat penjualan; stok barang berkurang otomatis.
- Memberikan prediksi penjualan dan saran restock untuk barang yang hampir habis.

Batasan:
- Hanya bahas inventory, penjualan, dan forecast barang.
- Tolak dengan sopan pertanyaan di luar topik tersebut.
- Jangan mengarang data; selalu gunakan tools untuk membaca atau mengubah data.

Gaya jawaban:
- Bahasa Indonesia yang sederhana dan ramah.
- Format uang dengan pemisah ribuan, contoh Rp 15.000.
- Sertakan saran singkat yang berguna berdasarkan data.`

var errTooManyRounds = errors.New("assistant exceeded tool call rounds")

// Metrics counts chat turns by outcome.
type Metrics struct {
	Requests *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		Requests: gateway.RegisterCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warung",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Chat requests by outcome",
		}, []string{"outcome"})),
	}
}

func (m *Metrics) observe(outcome string) {
	if m == nil || m.Requests == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
}

// Agent runs the tool calling loop.
type Agent struct {
	LLM       LLM
	Tools     *Toolbox
	Memory    Memory
	Logger    *logrus.Logger
	Metrics   *Metrics
	Tracer    trace.Tracer
	MaxRounds int
}

func (a *Agent) tracer() trace.Tracer {
	if a.Tracer != nil {
		return a.Tracer
	}
	return otel.Tracer("github.com/umkm-labs/warung/assistant")
}

func (a *Agent) logger() *logrus.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return logrus.StandardLogger()
}

func (a *Agent) rounds() int {
	if a.MaxRounds > 0 {
		return a.MaxRounds
	}
	return MaxRounds
}

// Chat answers prompt for userID. Off-topic prompts get RefusalMessage without
// reaching the model. A returned error means the model could not be reached
// or never produced a final answer.
func (a *Agent) Chat(ctx context.Context, userID uuid.UUID, prompt string) (string, error) {
	ctx, span := a.tracer().Start(ctx, "assistant.chat", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.Int("prompt.length", len(prompt)),
	))
	defer span.End()

	if !IsRequestValid(prompt) {
		a.Metrics.observe("refused")
		span.SetAttributes(attribute.Bool("chat.refused", true))
		return RefusalMessage, nil
	}

	history, err := a.Memory.Load(ctx, userID)
	if err != nil {
		// a lost history only degrades context
		a.logger().WithError(err).WithField("user_id", userID).Warn("chat memory unavailable")
		history = nil
	}

	user := Message{Role: "user", Content: strings.TrimSpace(prompt)}
	messages := make([]Message, 0, len(history)+8)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, user)

	answer, err := a.loop(ctx, userID, messages)
	if err != nil {
		a.Metrics.observe("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if err := a.Memory.Append(ctx, userID, user, Message{Role: "assistant", Content: answer}); err != nil {
		a.logger().WithError(err).WithField("user_id", userID).Warn("chat memory not saved")
	}
	a.Metrics.observe("answered")
	return answer, nil
}

func (a *Agent) loop(ctx context.Context, userID uuid.UUID, messages []Message) (string, error) {
	tools := a.Tools.Definitions()
	for round := 0; round < a.rounds(); round++ {
		msg, err := a.complete(ctx, round, messages, tools)
		if err != nil {
			return "", err
		}
		if len(msg.ToolCalls) == 0 {
			return strings.TrimSpace(msg.Content), nil
		}

		messages = append(messages, Message{Role: "assistant", Content: msg.Content, ToolCalls: msg.ToolCalls})
		for _, call := range msg.ToolCalls {
			out := a.runTool(ctx, userID, call)
			messages = append(messages, Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Name:       call.Function.Name,
				Content:    out,
			})
		}
	}
	return "", errTooManyRounds
}

func (a *Agent) complete(ctx context.Context, round int, messages []Message, tools []Tool) (*Message, error) {
	ctx, span := a.tracer().Start(ctx, "assistant.llm", trace.WithAttributes(
		attribute.Int("llm.round", round),
		attribute.Int("llm.messages", len(messages)),
	))
	defer span.End()

	res, err := a.LLM.Complete(ctx, ChatRequest{Messages: messages, Tools: tools, ToolChoice: "auto"})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(res.Choices) == 0 {
		span.SetStatus(codes.Error, errLLMNoChoices.Error())
		return nil, errLLMNoChoices
	}
	span.SetAttributes(
		attribute.Int("llm.tokens.total", res.Usage.TotalTokens),
		attribute.String("llm.finish_reason", res.Choices[0].FinishReason),
	)
	return &res.Choices[0].Message, nil
}

func (a *Agent) runTool(ctx context.Context, userID uuid.UUID, call ToolCall) string {
	ctx, span := a.tracer().Start(ctx, "assistant.tool", trace.WithAttributes(
		attribute.String("tool.name", call.Function.Name),
	))
	defer span.End()

	out, err := a.Tools.Execute(ctx, userID, call.Function.Name, call.Function.Arguments)
	if err != nil {
		span.RecordError(err)
		a.logger().WithError(err).WithField("tool", call.Function.Name).Warn("tool call failed")
	}
	if strings.HasPrefix(out, "Error") {
		span.SetStatus(codes.Error, out)
	}
	return out
}

// Apology is the answer returned when the model fails.
func Apology(err error) string {
	return fmt.Sprintf("Terjadi kesalahan: %s. Silakan coba lagi atau hubungi support.", err)
}
