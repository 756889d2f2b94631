package utils_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/bookswap-api/internal/utils"
)

func Test_JWTService_RoundTrip(t *testing.T) {
	service := utils.NewJWTService("test-secret")
	userID := uuid.New()

	token, err := service.GenerateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	extracted, err := service.ExtractUserID(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), extracted)
}

func Test_JWTService_WrongSecret(t *testing.T) {
	service := utils.NewJWTService("test-secret")
	other := utils.NewJWTService("another-secret")

	token, err := service.GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = other.ExtractUserID(token)
	assert.Error(t, err)
}

func Test_JWTService_GarbageToken(t *testing.T) {
	service := utils.NewJWTService("test-secret")

	_, err := service.ExtractUserID("not-a-token")
	assert.Error(t, err)
}
