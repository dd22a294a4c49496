package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel/pkg/domain"
)

func TestDecodeResponse(t *testing.T) {
	attrs, err := DecodeResponse(map[string]any{
		"default": "https://cdn/a.png",
		"1024":    "https://cdn/a-1024.png",
		"320":     "https://cdn/a-320.png",
		"meta":    map[string]any{"ignored": true},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		domain.AttrSrc:    "https://cdn/a.png",
		domain.AttrSrcset: "https://cdn/a-320.png 320w, https://cdn/a-1024.png 1024w",
	}, attrs)

	attrs, err = DecodeResponse(map[string]any{"default": "u"})
	require.NoError(t, err)
	assert.NotContains(t, attrs, domain.AttrSrcset)

	_, err = DecodeResponse(map[string]any{"default": 1})
	assert.Error(t, err)

	_, err = DecodeResponse(map[string]any{"800": 5})
	assert.Error(t, err)
}
