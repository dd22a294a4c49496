package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/persistence/middleware"
	"github.com/aretw0/easel/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, next ports.TransferLedger, cfg middleware.EncryptionConfig) ports.TransferLedger {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunTransferLedgerContract(t, encrypted(t, memory.NewLedger(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_SealsFields(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewLedger()
	l := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	rec := &domain.TransferRecord{ID: "u1", FileName: "passport-scan.png", Status: domain.TransferFailed, Error: "quota exceeded", Total: 10}
	require.NoError(t, l.Save(ctx, rec))
	assert.Equal(t, "passport-scan.png", rec.FileName, "the caller's record is untouched")

	stored, err := underlying.Load(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.FileName, "enc:"))
	assert.NotContains(t, stored.Error, "quota")
	assert.Equal(t, domain.TransferFailed, stored.Status)
	assert.Equal(t, int64(10), stored.Total)

	loaded, err := l.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "passport-scan.png", loaded.FileName)
	assert.Equal(t, "quota exceeded", loaded.Error)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewLedger()
	oldKey, newKey := generateKey(t), generateKey(t)

	require.NoError(t, encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey}).
		Save(ctx, &domain.TransferRecord{ID: "u1", FileName: "cat.png"}))

	rotated := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	loaded, err := rotated.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "cat.png", loaded.FileName)

	_, err = encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey}).Load(ctx, "u1")
	assert.ErrorIs(t, err, middleware.ErrDecrypt)
}

func TestEncryptionMiddleware_PlainRecords(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewLedger()
	require.NoError(t, underlying.Save(ctx, &domain.TransferRecord{ID: "u1", FileName: "cat.png"}))

	loaded, err := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)}).Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "cat.png", loaded.FileName)
}

func TestEncryptionMiddleware_BadKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.ErrorContains(t, err, "32 bytes")
}

func TestRedactMiddleware(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewLedger()
	mw, err := middleware.NewRedactMiddleware([]string{`[\w.+-]+@[\w-]+\.[\w.]+`, `\d{3}-\d{2}-\d{4}`})
	require.NoError(t, err)
	l := mw(underlying)

	rec := &domain.TransferRecord{ID: "u1", FileName: "jane@example.com-123-45-6789.png", Error: "rejected for jane@example.com"}
	require.NoError(t, l.Save(ctx, rec))
	assert.Equal(t, "jane@example.com-123-45-6789.png", rec.FileName)

	loaded, err := l.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "***-***.png", loaded.FileName)
	assert.Equal(t, "rejected for ***", loaded.Error)

	_, err = middleware.NewRedactMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewLedger()
	redact, err := middleware.NewRedactMiddleware([]string{"secret"})
	require.NoError(t, err)
	encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	l := middleware.Chain(underlying, redact, encrypt)
	require.NoError(t, l.Save(ctx, &domain.TransferRecord{ID: "u1", FileName: "secret.png"}))

	loaded, err := l.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "***.png", loaded.FileName, "redaction runs before encryption")
}
