package internal

import (
	"net/http"
	"testing"
)

func TestHealthStatusCode(t *testing.T) {
	tests := []struct {
		status   string
		expected int
	}{
		{HealthOK, http.StatusOK},
		{HealthError, http.StatusServiceUnavailable},
		{"something-else", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		h := &HealthStatus{Status: tt.status}
		if got := h.StatusCode(); got != tt.expected {
			t.Errorf("Status %q: expected %d, got %d", tt.status, tt.expected, got)
		}
	}
}
