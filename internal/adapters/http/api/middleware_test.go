package api

import (
	"net/http"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		status   int
		kind     string
		severity string
	}{
		{http.StatusBadRequest, "client_error", "medium"},
		{http.StatusNotFound, "not_found", "medium"},
		{http.StatusTooManyRequests, "rate_limit", "medium"},
		{http.StatusBadGateway, "server_error", "high"},
		{http.StatusOK, "unknown", "low"},
	}

	for _, tt := range tests {
		if got := getErrorType(tt.status); got != tt.kind {
			t.Errorf("getErrorType(%d) = %q, want %q", tt.status, got, tt.kind)
		}
		if got := getErrorSeverity(tt.status); got != tt.severity {
			t.Errorf("getErrorSeverity(%d) = %q, want %q", tt.status, got, tt.severity)
		}
	}
}
