package httpx

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"campuslib/internal/store"
)

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{store.ErrNotFound, http.StatusNotFound},
		{store.ErrConflict, http.StatusConflict},
		{store.ErrInvalidState, http.StatusUnprocessableEntity},
		{store.ErrTransient, http.StatusServiceUnavailable},
		{store.ErrRateLimited, http.StatusTooManyRequests},
		{fmt.Errorf("wrapped: %w", store.ErrConflict), http.StatusConflict},
		{fmt.Errorf("something else"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		Error(w, tc.err)
		assert.Equal(t, tc.status, w.Code, "error %v", tc.err)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	}
}
