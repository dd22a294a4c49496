package memory

import (
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/easel/pkg/domain"
)

type view struct {
	box     domain.Box
	styles  map[domain.Part]map[string]string
	classes map[domain.Part]map[string]bool
}

// Projection implements ports.Projection as a map of rendered views keyed by
// element. A host's width and height styles given in px override its rendered
// box, the way a browser would lay it out.
type Projection struct {
	mu        sync.Mutex
	views     map[*domain.Element]*view
	container *domain.Box
}

// NewProjection creates an empty projection.
func NewProjection() *Projection {
	return &Projection{views: make(map[*domain.Element]*view)}
}

// Render records the natural box of el. Re-rendering keeps styles and classes.
func (p *Projection) Render(el *domain.Element, box domain.Box) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view(el).box = box
}

// Forget drops the view of el.
func (p *Projection) Forget(el *domain.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.views, el)
}

// IsRendered reports whether el has a view.
func (p *Projection) IsRendered(el *domain.Element) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.views[el]
	return ok
}

// SetContainer sets the box every element may grow into.
func (p *Projection) SetContainer(box domain.Box) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.container = &box
}

func (p *Projection) view(el *domain.Element) *view {
	v, ok := p.views[el]
	if !ok {
		v = &view{
			styles:  make(map[domain.Part]map[string]string),
			classes: make(map[domain.Part]map[string]bool),
		}
		p.views[el] = v
	}
	return v
}

func (p *Projection) Box(el *domain.Element, part domain.Part) (domain.Box, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.views[el]
	if !ok {
		return domain.Box{}, false
	}
	box := v.box
	if part != domain.PartHost {
		return box, true
	}
	styles := v.styles[domain.PartHost]
	ratio := box.AspectRatio()
	if w, ok := parsePx(styles["width"]); ok {
		box.Width = w
		if ratio > 0 {
			box.Height = w / ratio
		}
	}
	if h, ok := parsePx(styles["height"]); ok {
		box.Height = h
	}
	return box, true
}

func (p *Projection) Container(el *domain.Element) (domain.Box, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.container == nil {
		return domain.Box{}, false
	}
	return *p.container, true
}

func (p *Projection) Style(el *domain.Element, part domain.Part, key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.views[el]
	if !ok {
		return "", false
	}
	s, ok := v.styles[part][key]
	return s, ok
}

func (p *Projection) SetStyle(el *domain.Element, part domain.Part, key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.view(el)
	if v.styles[part] == nil {
		v.styles[part] = make(map[string]string)
	}
	v.styles[part][key] = value
}

func (p *Projection) RemoveStyle(el *domain.Element, part domain.Part, key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.views[el]; ok {
		delete(v.styles[part], key)
	}
}

func (p *Projection) HasClass(el *domain.Element, part domain.Part, class string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.views[el]
	return ok && v.classes[part][class]
}

func (p *Projection) AddClass(el *domain.Element, part domain.Part, class string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.view(el)
	if v.classes[part] == nil {
		v.classes[part] = make(map[string]bool)
	}
	v.classes[part][class] = true
}

func (p *Projection) RemoveClass(el *domain.Element, part domain.Part, class string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.views[el]; ok {
		delete(v.classes[part], class)
	}
}

func parsePx(s string) (float64, bool) {
	num, ok := strings.CutSuffix(s, "px")
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(num, 64)
	return f, err == nil
}
