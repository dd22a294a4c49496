package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/easel/pkg/domain"
)

// Ledger implements ports.TransferLedger using Redis. Records are JSON strings;
// a sorted set scored by expiry indexes them for List.
type Ledger struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithTTL sets the expiration of transfer records.
func WithTTL(ttl time.Duration) Option {
	return func(l *Ledger) {
		l.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(l *Ledger) {
		l.prefix = prefix
	}
}

// New creates a Ledger with its own client.
func New(address, password string, db int, opts ...Option) *Ledger {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Ledger over an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Ledger {
	l := &Ledger{
		client: client,
		prefix: "easel:transfer:",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) key(id string) string {
	return l.prefix + id
}

func (l *Ledger) indexKey() string {
	return l.prefix + "index"
}

// Save persists the record and refreshes its index entry.
func (l *Ledger) Save(ctx context.Context, record *domain.TransferRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer record: %w", err)
	}

	// Score = expiry; records without a TTL sort at a far future date.
	score := float64(time.Now().Add(l.ttl).Unix())
	if l.ttl == 0 {
		score = 4102444800
	}

	pipe := l.client.Pipeline()
	pipe.Set(ctx, l.key(record.ID), data, l.ttl)
	pipe.ZAdd(ctx, l.indexKey(), backend.Z{Score: score, Member: record.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves a record.
func (l *Ledger) Load(ctx context.Context, transferID string) (*domain.TransferRecord, error) {
	val, err := l.client.Get(ctx, l.key(transferID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var rec domain.TransferRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transfer record: %w", err)
	}
	return &rec, nil
}

// Delete removes a record and its index entry.
func (l *Ledger) Delete(ctx context.Context, transferID string) error {
	pipe := l.client.Pipeline()
	pipe.Del(ctx, l.key(transferID))
	pipe.ZRem(ctx, l.indexKey(), transferID)
	_, err := pipe.Exec(ctx)
	return err
}

// List prunes expired index entries and returns the remaining ids.
func (l *Ledger) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := l.client.ZRemRangeByScore(ctx, l.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired transfers: %w", err)
	}

	ids, err := l.client.ZRange(ctx, l.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (l *Ledger) Close() error {
	return l.client.Close()
}
