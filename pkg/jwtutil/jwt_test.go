package jwtutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mercadodasophia-design/mercadodasophia/pkg/config"
)

func TestGenerateAndValidateToken(t *testing.T) {
	Initialize(&config.JWTConfig{
		SigningKey:     "test-signing-key",
		ExpirationTime: time.Hour,
	})

	userID := uuid.New()
	token, err := GenerateToken(userID, "admin@example.com", "admin")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	Initialize(&config.JWTConfig{
		SigningKey:     "first-key",
		ExpirationTime: time.Hour,
	})
	token, err := GenerateToken(uuid.New(), "admin@example.com", "admin")
	assert.NoError(t, err)

	Initialize(&config.JWTConfig{
		SigningKey:     "second-key",
		ExpirationTime: time.Hour,
	})
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	Initialize(&config.JWTConfig{
		SigningKey:     "test-signing-key",
		ExpirationTime: -time.Minute,
	})
	token, err := GenerateToken(uuid.New(), "admin@example.com", "admin")
	assert.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}
