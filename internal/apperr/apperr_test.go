package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CountyConflict))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(Unauthorized))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Forbidden))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(RateLimited))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Internal))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Config))
}

func TestFromPassesThroughDomainErrors(t *testing.T) {
	orig := New(NotFound, "Issue not found")
	assert.Same(t, orig, From(orig))
}

func TestFromHidesUnknownErrorDetails(t *testing.T) {
	e := From(errors.New("pq: connection refused to db at 10.0.0.5"))
	assert.Equal(t, Internal, e.Kind)
	assert.NotContains(t, e.Message, "10.0.0.5")
}

func TestFromNil(t *testing.T) {
	assert.Nil(t, From(nil))
}
