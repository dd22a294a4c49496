package presentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/conversion"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/model"
	"github.com/aretw0/easel/pkg/schema"
)

func TestLayout_RendersAndForgets(t *testing.T) {
	doc := model.New(schema.NewDefault(""))
	proj := memory.NewProjection()
	d := conversion.NewDispatcher(doc)
	t.Cleanup(d.Close)

	layout := AttachLayout(d, proj, nil)
	AttachWidthSync(d, proj)

	require.NoError(t, doc.SetData(`<image width="200px"></image>`))
	img := doc.Root().Child(0).(*domain.Element)

	require.True(t, proj.IsRendered(img))
	box, ok := proj.Box(img, domain.PartHost)
	require.True(t, ok)
	assert.Equal(t, 200.0, box.Width, "width style overrides the natural box")
	assert.Equal(t, 150.0, box.Height)

	require.NoError(t, doc.Change("remove", func(w *model.Writer) error { return w.Remove(img) }))
	assert.False(t, proj.IsRendered(img))

	layout.Detach()
	require.NoError(t, doc.SetData(`<image></image>`))
	assert.False(t, proj.IsRendered(doc.Root().Child(0).(*domain.Element)))
}

func TestLayout_FollowsConfiguredMediaElement(t *testing.T) {
	doc := model.New(schema.NewDefault("photo"))
	proj := memory.NewProjection()
	d := conversion.NewDispatcher(doc)
	t.Cleanup(d.Close)

	AttachLayout(d, proj, func(*domain.Element) domain.Box {
		return domain.Box{Width: 120, Height: 60}
	}, WithMediaElement("photo"))

	require.NoError(t, doc.SetData(`<photo></photo><paragraph>x</paragraph>`))
	photo := doc.Root().Child(0).(*domain.Element)
	box, ok := proj.Box(photo, domain.PartHost)
	require.True(t, ok)
	assert.Equal(t, domain.Box{Width: 120, Height: 60}, box)
	assert.False(t, proj.IsRendered(doc.Root().Child(1).(*domain.Element)))
}
