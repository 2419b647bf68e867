package store

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"carshop/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestMapErrorTranslatesDriverFailures(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"serialization failure", &pq.Error{Code: "40001"}, models.ErrConflict},
		{"deadlock", &pq.Error{Code: "40P01"}, models.ErrConflict},
		{"unique violation", &pq.Error{Code: "23505"}, models.ErrConflict},
		{"connection done", sql.ErrConnDone, models.ErrStoreUnavailable},
		{"network timeout", timeoutErr{}, models.ErrStoreUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tc.in), tc.want)
		})
	}
}

func TestMapErrorPassesThroughOtherErrors(t *testing.T) {
	assert.Nil(t, mapError(nil))

	plain := errors.New("boom")
	assert.Equal(t, plain, mapError(plain))

	wrapped := fmt.Errorf("query: %w", &pq.Error{Code: "40001"})
	assert.ErrorIs(t, mapError(wrapped), models.ErrConflict)

	otherPq := &pq.Error{Code: "42601"} // syntax error is not retryable
	assert.NotErrorIs(t, mapError(otherPq), models.ErrConflict)
	assert.NotErrorIs(t, mapError(otherPq), models.ErrStoreUnavailable)
}
