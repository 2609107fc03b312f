package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/weight-dispute-api/internal/domain"
)

func TestLocalStore_PutGet(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "http://files.local")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := s.Put(ctx, "evidence/d1/foto.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://files.local/evidence/d1/foto.jpg", url)

	got, err := s.Get(ctx, "evidence/d1/foto.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), got)
}

func TestLocalStore_NoEscapaDelDirectorio(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "")
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "../../etc/passwd", []byte("x"), "text/plain")
	require.NoError(t, err)
	got, err := s.Get(context.Background(), "etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}

func TestLocalStore_NoExiste(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)
	_, err = s.Get(context.Background(), "nada")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
