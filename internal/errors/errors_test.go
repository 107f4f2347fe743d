package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/prospector/internal/logging"
	"github.com/copyleftdev/prospector/internal/optimization"
)

func TestErrorString(t *testing.T) {
	err := Wrap(stderrors.New("disk full"), "saving run").WithOperation("store")
	assert.Equal(t, "saving run: operation=store: disk full", err.Error())
	assert.NotEmpty(t, StackTrace(err))
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestStatusCode(t *testing.T) {
	cfg := optimization.DefaultConfig()
	cfg.MaxEvals = 0

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", NotFound("run %s not found", "opt_1"), http.StatusNotFound},
		{"bad request", BadRequest("bounds are required"), http.StatusBadRequest},
		{"invalid config", cfg.Validate(), http.StatusBadRequest},
		{"wrapped bounds", fmt.Errorf("start: %w", optimization.ErrInvalidBounds), http.StatusBadRequest},
		{"wrapped with explicit status", Wrap(optimization.ErrNilObjective, "x").WithStatus(http.StatusConflict), http.StatusConflict},
		{"unknown", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.ErrorLevel, &buf)

	h := RecoveryMiddleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("simplex exploded")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Internal Server Error", body["error"])
	assert.Contains(t, buf.String(), "simplex exploded")
}
