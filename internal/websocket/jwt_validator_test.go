package websocket

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrInvalidToken_Message(t *testing.T) {
	assert.Equal(t, "invalid token", ErrInvalidToken.Error())
}

func TestCustomClaims_Validate(t *testing.T) {
	claims := &CustomClaims{}
	err := claims.Validate(nil)
	assert.NoError(t, err, "CustomClaims.Validate should return nil")
}

func TestNewAuth0JWTValidator_EmptyDomain(t *testing.T) {
	// Empty domain creates https:/// which still parses
	validator, err := NewAuth0JWTValidator("", "audience")
	assert.NoError(t, err)
	assert.NotNil(t, validator)
}

func TestNewAuth0JWTValidator_Success(t *testing.T) {
	validator, err := NewAuth0JWTValidator("test.auth0.com", "https://api.emi.example.com")
	assert.NoError(t, err)
	assert.NotNil(t, validator)
	assert.NotNil(t, validator.validator)
}

func TestAuth0JWTValidator_ValidateToken_InvalidJWT(t *testing.T) {
	validator, err := NewAuth0JWTValidator("test.auth0.com", "https://api.emi.example.com")
	assert.NoError(t, err)

	userID, err := validator.ValidateToken("invalid-token")
	assert.Error(t, err)
	assert.Empty(t, userID)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
