package presentation

import (
	"context"
	"log/slog"

	"github.com/aretw0/easel/pkg/conversion"
	"github.com/aretw0/easel/pkg/domain"
)

// Renderer is a projection that lays elements out itself.
type Renderer interface {
	Render(el *domain.Element, box domain.Box)
	Forget(el *domain.Element)
}

// SizeFunc returns the natural box of a media element.
type SizeFunc func(el *domain.Element) domain.Box

// DefaultSize gives every media element a 400x300 box.
func DefaultSize(*domain.Element) domain.Box {
	return domain.Box{Width: 400, Height: 300}
}

// Layout renders media elements when they enter the document and forgets them
// when they leave.
type Layout struct {
	renderer Renderer
	size     SizeFunc
	logger   *slog.Logger
	offs     []func()
}

// AttachLayout registers the layout on d at normal priority, ahead of WidthSync.
func AttachLayout(d *conversion.Dispatcher, renderer Renderer, size SizeFunc, opts ...Option) *Layout {
	o := newOptions(opts)
	if size == nil {
		size = DefaultSize
	}
	l := &Layout{renderer: renderer, size: size, logger: o.logger}
	l.offs = append(l.offs,
		d.On("insert:"+o.media, l.onInsert),
		d.On("remove:"+o.media, l.onRemove),
	)
	return l
}

// Detach removes the listeners.
func (l *Layout) Detach() {
	for _, off := range l.offs {
		off()
	}
	l.offs = nil
}

func (l *Layout) onInsert(_ context.Context, ev *conversion.Event) error {
	box := l.size(ev.Element)
	l.renderer.Render(ev.Element, box)
	l.logger.Debug("media rendered", "width", box.Width, "height", box.Height)
	return nil
}

func (l *Layout) onRemove(_ context.Context, ev *conversion.Event) error {
	l.renderer.Forget(ev.Element)
	return nil
}
