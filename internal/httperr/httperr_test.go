package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFromErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", ErrValidation("invalid_date", "bad date"), http.StatusBadRequest, "invalid_date"},
		{"precondition", ErrBusiness("invalid_state"), http.StatusBadRequest, "invalid_state"},
		{"forbidden", ErrForbidden("not_owner", "nope"), http.StatusForbidden, "not_owner"},
		{"not found", ErrNotFound("booking_not_found", "missing"), http.StatusNotFound, "booking_not_found"},
		{"conflict", ErrConflict("time_conflict", "overlap"), http.StatusConflict, "time_conflict"},
		{"unauthorized", ErrUnauthorized("invalid_token", "x"), http.StatusUnauthorized, "invalid_token"},
		{"wrapped", fmt.Errorf("approve: %w", ErrConflict("time_conflict", "overlap")), http.StatusConflict, "time_conflict"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			FromError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body HTTPError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestIsBusiness(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ErrPrecondition("suggestion_already_used", "used"))
	assert.True(t, IsBusiness(err, "suggestion_already_used"))
	assert.False(t, IsBusiness(err, "invalid_state"))
	assert.False(t, IsBusiness(errors.New("x"), "x"))
}

func TestPostgresClassification(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsForeignKeyViolation(fmt.Errorf("tx: %w", &pgconn.PgError{Code: "23503"})))
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", gorm.ErrRecordNotFound)))
}
