package apierror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromResponseMessageField(t *testing.T) {
	err := FromResponse(http.StatusConflict, []byte(`{"message":"in use"}`))
	require.NotNil(t, err)
	assert.Equal(t, "in use", err.Error())
	assert.Equal(t, http.StatusConflict, err.HTTPStatus)
	assert.Equal(t, `{"message":"in use"}`, err.Body)
}

func TestFromResponseErrorField(t *testing.T) {
	err := FromResponse(http.StatusConflict, []byte(`{"error":"Ce code existe déjà."}`))
	assert.Equal(t, "Ce code existe déjà.", err.Error())
}

func TestFromResponsePrefersMessageOverError(t *testing.T) {
	err := FromResponse(http.StatusBadRequest, []byte(`{"error":"Bad Request","message":"clé manquante"}`))
	assert.Equal(t, "clé manquante", err.Error())
}

func TestFromResponseRawText(t *testing.T) {
	err := FromResponse(http.StatusUnauthorized, []byte("  OTP invalide \n"))
	assert.Equal(t, "OTP invalide", err.Error())
}

func TestFromResponseJSONWithoutMessageKeepsRawBody(t *testing.T) {
	err := FromResponse(http.StatusInternalServerError, []byte(`{"status":500}`))
	assert.Equal(t, `{"status":500}`, err.Error())
}

func TestFromResponseEmptyBody(t *testing.T) {
	err := FromResponse(http.StatusNotFound, nil)
	assert.Equal(t, "Not Found", err.Error())
}

func TestNilErrorString(t *testing.T) {
	var err *Error
	assert.Equal(t, "", err.Error())
}

func TestWrapKeepsCauseForErrorsIs(t *testing.T) {
	cause := errors.New("no token in response")
	err := Wrap(http.StatusOK, `{"status":"ok"}`, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "no token in response", err.Error())
	assert.Equal(t, http.StatusOK, err.HTTPStatus)
	assert.Nil(t, FromResponse(http.StatusNotFound, nil).Unwrap())
}
