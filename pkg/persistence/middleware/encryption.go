package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
)

// encryptedPrefix marks sealed fields in stored records.
const encryptedPrefix = "enc:"

// ErrDecrypt is returned when no configured key opens a sealed field.
var ErrDecrypt = errors.New("failed to decrypt transfer record")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are old keys tried when the active one fails, so keys can
	// be rotated without rewriting stored records.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next  ports.TransferLedger
	seal  cipher.AEAD
	opens []cipher.AEAD
}

// NewEncryptionMiddleware seals the file name and error of records with
// AES-GCM. Status and counters stay readable to the backing ledger.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	seal, err := newGCM(config.ActiveKey)
	if err != nil {
		return nil, fmt.Errorf("active key: %w", err)
	}
	opens := []cipher.AEAD{seal}
	for i, k := range config.FallbackKeys {
		gcm, err := newGCM(k)
		if err != nil {
			return nil, fmt.Errorf("fallback key #%d: %w", i+1, err)
		}
		opens = append(opens, gcm)
	}
	return func(next ports.TransferLedger) ports.TransferLedger {
		return &encryptionMiddleware{next: next, seal: seal, opens: opens}
	}, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes (AES-256), got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (m *encryptionMiddleware) Save(ctx context.Context, record *domain.TransferRecord) error {
	cloned := *record
	var err error
	if cloned.FileName, err = m.encrypt(cloned.ID, cloned.FileName); err != nil {
		return err
	}
	if cloned.Error, err = m.encrypt(cloned.ID, cloned.Error); err != nil {
		return err
	}
	return m.next.Save(ctx, &cloned)
}

func (m *encryptionMiddleware) Load(ctx context.Context, transferID string) (*domain.TransferRecord, error) {
	record, err := m.next.Load(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if record.FileName, err = m.decrypt(record.ID, record.FileName); err != nil {
		return nil, err
	}
	if record.Error, err = m.decrypt(record.ID, record.Error); err != nil {
		return nil, err
	}
	return record, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, transferID string) error {
	return m.next.Delete(ctx, transferID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// encrypt seals s with the transfer id as additional data, so a sealed field
// cannot be moved to another record.
func (m *encryptionMiddleware) encrypt(id, s string) (string, error) {
	if s == "" {
		return "", nil
	}
	nonce := make([]byte, m.seal.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := m.seal.Seal(nonce, nonce, []byte(s), []byte(id))
	return encryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (m *encryptionMiddleware) decrypt(id, s string) (string, error) {
	payload, ok := strings.CutPrefix(s, encryptedPrefix)
	if !ok {
		// Written before encryption was enabled.
		return s, nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	for _, gcm := range m.opens {
		if len(data) < gcm.NonceSize() {
			continue
		}
		nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]
		if plain, err := gcm.Open(nil, nonce, sealed, []byte(id)); err == nil {
			return string(plain), nil
		}
	}
	return "", fmt.Errorf("%w: transfer %s", ErrDecrypt, id)
}
