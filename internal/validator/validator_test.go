package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/schema"
)

func TestValidate(t *testing.T) {
	s := schema.NewDefault("")

	t.Run("Valid Document", func(t *testing.T) {
		err := Validate(s, `<paragraph>fo[]o</paragraph><image src="a.png" width="50%"></image>`, Options{})
		assert.NoError(t, err)
	})

	t.Run("Reports Every Problem", func(t *testing.T) {
		err := Validate(s, `loose<paragraph><image></image></paragraph><video></video><image foo="1" uploadId="u1"></image>`, Options{})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrSchemaViolation)
		for _, want := range []string{
			"/0: text not allowed in $root",
			"/2: unknown element video",
			`/3: attribute "foo" not allowed on image`,
			"/3: upload u1 is still pending",
			"/1/0: image not allowed in paragraph",
		} {
			assert.Contains(t, err.Error(), want)
		}
	})

	t.Run("Pending Uploads Allowed", func(t *testing.T) {
		err := Validate(s, `<image uploadId="u1"></image>`, Options{AllowPending: true})
		assert.NoError(t, err)
	})

	t.Run("Custom Media Element", func(t *testing.T) {
		err := Validate(schema.NewDefault("figure"), `<figure uploadId="u1"></figure>`, Options{Media: "figure"})
		assert.ErrorContains(t, err, "upload u1 is still pending")
	})

	t.Run("Malformed Markup", func(t *testing.T) {
		err := Validate(s, `<paragraph>`, Options{})
		assert.Error(t, err)
	})
}
