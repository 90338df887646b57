package common

import (
	"testing"

	"tibacare/pkg/client"
)

func RequireStatus(t *testing.T, resp *client.Response, err error, want int) {
	t.Helper()
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %s (%s)", want, resp.ToString(), client.GetErrorMessage(resp))
	}
}

func DecodeData[T any](t *testing.T, resp *client.Response) T {
	t.Helper()
	var result struct {
		Data T `json:"data"`
	}
	if err := resp.DecodeJSON(&result); err != nil {
		t.Fatalf("failed to decode response: %v (%s)", err, resp.ToString())
	}
	return result.Data
}
