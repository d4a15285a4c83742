package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"trimly/apperrors"
)

func TestHandleErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &apperrors.NotFoundError{Entity: "slot"}, http.StatusNotFound},
		{"capacity exceeded", apperrors.ErrCapacityExceeded, http.StatusConflict},
		{"invalid transition", &apperrors.InvalidTransitionError{Current: "completed", Attempted: "cancelled"}, http.StatusConflict},
		{"price policy", fmt.Errorf("%w: editing disabled for this shop", apperrors.ErrPricePolicy), http.StatusUnprocessableEntity},
		{"connection", &apperrors.ConnectionError{Database: "tenant_a", Err: errors.New("dial tcp")}, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		HandleError(rec, c.err)
		if rec.Code != c.want {
			t.Errorf("%s: status = %d, want %d", c.name, rec.Code, c.want)
		}
	}
}
