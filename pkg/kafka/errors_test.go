package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"explicit transient", NewTransientError("db down", errors.New("x")), ErrorTypeTransient},
		{"wrapped transient", fmt.Errorf("upsert: %w", NewTransientError("db down", nil)), ErrorTypeTransient},
		{"explicit permanent", NewPermanentError("bad json", nil), ErrorTypePermanent},
		{"timeout text is case insensitive", errors.New("I/O TIMEOUT"), ErrorTypeTransient},
		{"connection refused", errors.New("dial tcp: connection refused"), ErrorTypeTransient},
		{"deadline", context.DeadlineExceeded, ErrorTypeTransient},
		{"schema mismatch", errors.New("schema mismatch on field"), ErrorTypePermanent},
		{"unknown defaults to permanent", errors.New("weird"), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("flaky", nil)

	if !ShouldRetry(transient, 0, 3) {
		t.Error("transient error under the limit should retry")
	}
	if ShouldRetry(transient, 3, 3) {
		t.Error("limit reached should not retry")
	}
	if ShouldRetry(NewPermanentError("bad", nil), 0, 3) {
		t.Error("permanent error should not retry")
	}
	if ShouldRetry(nil, 0, 3) {
		t.Error("nil error should not retry")
	}
}
