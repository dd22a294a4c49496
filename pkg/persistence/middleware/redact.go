package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
)

const mask = "***"

type redactMiddleware struct {
	next     ports.TransferLedger
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks every match of patterns in the file name and error
// of saved records. File names often carry personal data.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.TransferLedger) ports.TransferLedger {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, record *domain.TransferRecord) error {
	// The caller keeps using its record.
	cloned := *record
	cloned.FileName = m.mask(cloned.FileName)
	cloned.Error = m.mask(cloned.Error)
	return m.next.Save(ctx, &cloned)
}

func (m *redactMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, mask)
	}
	return s
}

func (m *redactMiddleware) Load(ctx context.Context, transferID string) (*domain.TransferRecord, error) {
	return m.next.Load(ctx, transferID)
}

func (m *redactMiddleware) Delete(ctx context.Context, transferID string) error {
	return m.next.Delete(ctx, transferID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
