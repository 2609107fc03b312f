package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	tok, err := Generate("s3cret", "u1", "c1", "reviewer", "test", 5)
	require.NoError(t, err)

	userID, companyID, role, err := Parse("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "c1", companyID)
	assert.Equal(t, "reviewer", role)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := Generate("s3cret", "u1", "c1", "admin", "test", 5)
	require.NoError(t, err)

	_, _, _, err = Parse("otro", tok)
	assert.Error(t, err)
}

func TestGenerate_SinSecret(t *testing.T) {
	_, err := Generate("", "u1", "c1", "admin", "test", 5)
	assert.Error(t, err)
}
