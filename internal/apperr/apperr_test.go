package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
)

func TestKindOf(t *testing.T) {
	notFound := apperr.New(apperr.KindNotFound, "sale not found")

	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{name: "Direct", err: notFound, want: apperr.KindNotFound},
		{name: "Wrapped", err: fmt.Errorf("getting sale: %w", notFound), want: apperr.KindNotFound},
		{name: "Plain", err: errors.New("boom"), want: apperr.KindInternal},
		{name: "Validation", err: apperr.Validation("itemName is required"), want: apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.KindOf(tt.err))
		})
	}
}

func TestMessageOf_HidesInternalErrors(t *testing.T) {
	assert.Equal(t, "internal server error", apperr.MessageOf(errors.New("pq: connection refused")))
	assert.Equal(t, "internal server error",
		apperr.MessageOf(apperr.Wrap(apperr.KindInternal, "creating sale", errors.New("disk full"))))
	assert.Equal(t, "User already exists",
		apperr.MessageOf(fmt.Errorf("register: %w", apperr.New(apperr.KindConflict, "User already exists"))))
}

func TestKind_Status(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, apperr.KindValidation.Status())
	assert.Equal(t, http.StatusUnauthorized, apperr.KindUnauthorized.Status())
	assert.Equal(t, http.StatusNotFound, apperr.KindNotFound.Status())
	assert.Equal(t, http.StatusConflict, apperr.KindConflict.Status())
	assert.Equal(t, http.StatusInternalServerError, apperr.KindInternal.Status())
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := apperr.Wrap(apperr.KindConflict, "category already exists", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "category already exists: duplicate key", err.Error())
}
