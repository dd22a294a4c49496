// Package presentation keeps the rendered view of media elements in line with
// their persisted attributes.
package presentation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/easel/pkg/conversion"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/hooks"
	"github.com/aretw0/easel/pkg/ports"
)

// WidthSync mirrors the width attribute of media elements onto the projection:
// a width sets the host width style and the resized class on the wrapper, no
// width removes both. It is the only code that maps the attribute to the view.
type WidthSync struct {
	projection ports.Projection
	media      string
	logger     *slog.Logger
	offs       []func()
}

// AttachWidthSync registers the sync on d. Listeners run at low priority so
// other converters have rendered the element first.
func AttachWidthSync(d *conversion.Dispatcher, projection ports.Projection, opts ...Option) *WidthSync {
	o := newOptions(opts)
	s := &WidthSync{projection: projection, media: o.media, logger: o.logger}
	s.offs = append(s.offs,
		d.On("attribute:"+domain.AttrWidth+":"+s.media, s.onAttribute, hooks.WithPriority(hooks.Low)),
		d.On("insert:"+s.media, s.onInsert, hooks.WithPriority(hooks.Low)),
	)
	return s
}

// Detach removes the listeners.
func (s *WidthSync) Detach() {
	for _, off := range s.offs {
		off()
	}
	s.offs = nil
}

func (s *WidthSync) onAttribute(_ context.Context, ev *conversion.Event) error {
	s.apply(ev.Element, ev.NewValue)
	return nil
}

func (s *WidthSync) onInsert(_ context.Context, ev *conversion.Event) error {
	if v, ok := ev.Element.Attribute(domain.AttrWidth); ok {
		s.apply(ev.Element, v)
	}
	return nil
}

// apply sets the view of el for width; nil clears it.
func (s *WidthSync) apply(el *domain.Element, width any) {
	if width == nil {
		s.projection.RemoveStyle(el, domain.PartHost, domain.AttrWidth)
		s.projection.RemoveClass(el, domain.PartWrapper, domain.ClassResized)
		s.logger.Debug("width cleared", "element", el.Name())
		return
	}
	value := fmt.Sprint(width)
	s.projection.SetStyle(el, domain.PartHost, domain.AttrWidth, value)
	s.projection.AddClass(el, domain.PartWrapper, domain.ClassResized)
	s.logger.Debug("width applied", "element", el.Name(), "width", value)
}
