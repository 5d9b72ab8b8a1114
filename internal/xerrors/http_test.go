package xerrors

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	go_json "github.com/goccy/go-json"
)

func TestWriteError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   errorResponse
	}{
		{
			name:       "typed not found",
			err:        NotFound(WithMessage("notification not found")),
			wantStatus: http.StatusNotFound,
			wantBody:   errorResponse{Message: "notification not found"},
		},
		{
			name:       "validation fields",
			err:        Validation(map[string]string{"title": "required"}),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   errorResponse{Message: strings.ToLower(http.StatusText(http.StatusUnprocessableEntity)), Fields: map[string]string{"title": "required"}},
		},
		{
			name:       "plain error becomes internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   errorResponse{Message: strings.ToLower(http.StatusText(http.StatusInternalServerError))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			WriteError(t.Context(), rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var got errorResponse
			if err := go_json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if diff := cmp.Diff(tt.wantBody, got); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLevelFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   slog.Level
	}{
		{status: http.StatusInternalServerError, want: slog.LevelError},
		{status: http.StatusUpgradeRequired, want: slog.LevelInfo},
		{status: http.StatusNotFound, want: slog.LevelWarn},
	}

	for _, tt := range tests {
		if got := levelFor(tt.status); got != tt.want {
			t.Errorf("levelFor(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
