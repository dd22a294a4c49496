package conversion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/hooks"
	"github.com/aretw0/easel/pkg/model"
	"github.com/aretw0/easel/pkg/schema"
)

func TestDispatcher_FiresPerChange(t *testing.T) {
	doc := model.New(schema.NewDefault(""))
	d := NewDispatcher(doc)
	defer d.Close()

	var names []string
	d.On("insert", func(_ context.Context, ev *Event) error {
		names = append(names, "insert:"+ev.Element.Name())
		return nil
	})
	d.On("attribute", func(_ context.Context, ev *Event) error {
		names = append(names, "attribute:"+ev.Key)
		return nil
	})
	d.On("remove", func(_ context.Context, ev *Event) error {
		names = append(names, "remove:"+ev.Element.Name())
		return nil
	})

	require.NoError(t, doc.SetData(`<paragraph>foo</paragraph><image width="10px"></image>`))
	assert.Equal(t, []string{"insert:paragraph", "insert:image"}, names)

	names = nil
	img := doc.Root().Child(1).(*domain.Element)
	require.NoError(t, doc.Change("edit", func(w *model.Writer) error {
		if err := w.SetAttribute(img, domain.AttrWidth, "20px"); err != nil {
			return err
		}
		return w.Remove(doc.Root().Child(0).(*domain.Element))
	}))
	assert.Equal(t, []string{"attribute:width", "remove:paragraph"}, names)
}

func TestDispatcher_AttributePayload(t *testing.T) {
	doc := model.New(schema.NewDefault(""))
	require.NoError(t, doc.SetData(`<image width="10px"></image>`))
	d := NewDispatcher(doc)
	defer d.Close()

	var got []*Event
	d.On("attribute:width:image", func(_ context.Context, ev *Event) error {
		got = append(got, ev)
		return nil
	})

	img := doc.Root().Child(0).(*domain.Element)
	require.NoError(t, doc.Change("resize", func(w *model.Writer) error {
		return w.RemoveAttribute(img, domain.AttrWidth)
	}))

	require.Len(t, got, 1)
	assert.Equal(t, "10px", got[0].OldValue)
	assert.Nil(t, got[0].NewValue)
	assert.Equal(t, "resize", got[0].Batch.Name)
}

func TestDispatcher_SkipsDetachedAndRolledBack(t *testing.T) {
	doc := model.New(schema.NewDefault(""))
	d := NewDispatcher(doc)
	defer d.Close()

	inserts := 0
	d.On("insert:image", func(context.Context, *Event) error {
		inserts++
		return nil
	})

	require.NoError(t, doc.Change("transient", func(w *model.Writer) error {
		img, err := w.InsertElement(domain.NameImage, nil, domain.PositionAt(doc.Root(), 0))
		if err != nil {
			return err
		}
		return w.Remove(img)
	}))
	assert.Zero(t, inserts, "elements removed in the same batch are not announced")

	_ = doc.Change("failing", func(w *model.Writer) error {
		_, _ = w.InsertElement(domain.NameImage, nil, domain.PositionAt(doc.Root(), 0))
		return errors.New("boom")
	})
	assert.Zero(t, inserts)
}

func TestDispatcher_HandlerErrorDoesNotStopOthers(t *testing.T) {
	doc := model.New(schema.NewDefault(""))
	registry := hooks.NewRegistry()
	d := NewDispatcher(doc, WithRegistry(registry))
	defer d.Close()
	assert.Same(t, registry, d.Registry())

	d.On("insert:image", func(context.Context, *Event) error { return errors.New("boom") }, hooks.WithPriority(hooks.High))
	reached := 0
	d.On("insert:paragraph", func(context.Context, *Event) error {
		reached++
		return nil
	})

	require.NoError(t, doc.SetData("<image></image><paragraph></paragraph>"))
	assert.Equal(t, 1, reached)
}

func TestDispatcher_Close(t *testing.T) {
	doc := model.New(schema.NewDefault(""))
	d := NewDispatcher(doc)

	calls := 0
	d.On("insert", func(context.Context, *Event) error {
		calls++
		return nil
	})
	d.Close()
	d.Close()

	require.NoError(t, doc.SetData("<paragraph></paragraph>"))
	assert.Zero(t, calls)
}
