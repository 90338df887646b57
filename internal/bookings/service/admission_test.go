package service

import (
	"context"
	"errors"
	"testing"

	"tibacare/pkg/model"
)

func TestAdmissionPolicy(t *testing.T) {
	claims := newFakeClaims()
	policy := NewAdmissionPolicy(claims)
	ctx := context.Background()

	steps := []struct {
		name string
		call func() (model.Status, error)
		want model.Status
	}{
		{"preview free slot", func() (model.Status, error) { return policy.Preview(ctx, "p", "10:00") }, model.StatusPending},
		{"first admit", func() (model.Status, error) { return policy.Admit(ctx, "p", "10:00") }, model.StatusPending},
		{"second admit", func() (model.Status, error) { return policy.Admit(ctx, "p", "10:00") }, model.StatusQueued},
		{"preview taken slot", func() (model.Status, error) { return policy.Preview(ctx, "p", "10:00") }, model.StatusQueued},
	}
	for _, step := range steps {
		got, err := step.call()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", step.name, err)
		}
		if got != step.want {
			t.Errorf("%s: expected %q, got %q", step.name, step.want, got)
		}
	}

	for range 2 {
		if err := policy.Release(ctx, "p", "10:00"); err != nil {
			t.Fatalf("Release failed: %v", err)
		}
	}

	status, err := policy.Admit(ctx, "p", "10:00")
	if err != nil {
		t.Fatalf("Admit after release failed: %v", err)
	}
	if status != model.StatusPending {
		t.Errorf("expected Pending once all holders released, got %q", status)
	}
}

func TestAdmissionPolicy_ClaimError(t *testing.T) {
	claims := newFakeClaims()
	claims.err = errors.New("timeout")

	if _, err := NewAdmissionPolicy(claims).Admit(context.Background(), "p", "10:00"); err == nil {
		t.Error("expected claim error to propagate")
	}
}
