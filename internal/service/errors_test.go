package service

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsAppError(t *testing.T) {
	assert.Nil(t, AsAppError(nil))

	wrapped := fmt.Errorf("handler: %w", Forbidden("no"))
	ae := AsAppError(wrapped)
	assert.Equal(t, CodeForbidden, ae.Code)
	assert.Equal(t, http.StatusForbidden, ae.Kind.HTTPStatus())

	cause := errors.New("dial tcp: refused")
	ae = AsAppError(cause)
	assert.Equal(t, CodeInternal, ae.Code)
	assert.Equal(t, "internal server error", ae.Message)
	assert.ErrorIs(t, ae, cause)
	assert.Equal(t, http.StatusInternalServerError, ae.Kind.HTTPStatus())
}

func TestKindStatus(t *testing.T) {
	cases := map[*AppError]int{
		Unauthorized("x"):              http.StatusUnauthorized,
		NotFound("x"):                  http.StatusNotFound,
		BadRequest(CodeSelfTrade, "x"): http.StatusBadRequest,
		Validation("x"):                http.StatusBadRequest,
		Conflict("x"):                  http.StatusConflict,
		TooManyRequests():              http.StatusTooManyRequests,
	}
	for e, want := range cases {
		assert.Equal(t, want, e.Kind.HTTPStatus(), e.Code)
	}
	assert.Equal(t, CodeBadRequest, BadRequest("", "x").Code)
}
