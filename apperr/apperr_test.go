package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapKeepsStatusAndCause(t *testing.T) {
	err := Wrap(sql.ErrConnDone, ErrDatabase, "list goods")
	if Status(err) != http.StatusInternalServerError {
		t.Fatalf("Status() = %d", Status(err))
	}
	if !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
	if !errors.Is(err, ErrDatabase) {
		t.Fatalf("expected wrapped error to match its sentinel")
	}
	if Wrap(nil, ErrDatabase, "") != nil {
		t.Fatalf("Wrap(nil) must be nil")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("create sale: %w", ErrGoodsNotFound)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("goods not found should match generic not found")
	}
	if errors.Is(wrapped, ErrConflict) {
		t.Fatalf("not found must not match conflict")
	}
}

func TestPayload(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantMsg    string
		wantStatus int
	}{
		{"typed", ErrInsufficientStock, "insufficient_stock", "insufficient stock", http.StatusConflict},
		{"with message", WithMessage(ErrBadRequest, "invalid goods id"), "bad_request", "invalid goods id", http.StatusBadRequest},
		{"plain", errors.New("boom"), "internal_error", "boom", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Payload(tt.err)
			if p["code"] != tt.wantCode || p["message"] != tt.wantMsg {
				t.Fatalf("Payload() = %v", p)
			}
			if Status(tt.err) != tt.wantStatus {
				t.Fatalf("Status() = %d, want %d", Status(tt.err), tt.wantStatus)
			}
		})
	}

	withFields := WithFields(ErrValidation, map[string]any{"email": "email"})
	if _, ok := Payload(withFields)["fields"]; !ok {
		t.Fatalf("expected fields in payload")
	}
}
