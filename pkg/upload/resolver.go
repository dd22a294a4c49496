package upload

import (
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/schema"
)

// Resolver finds where a media element may be inserted for a selection.
// It holds no state; every call recomputes from the current tree.
type Resolver struct {
	schema *schema.Schema
	media  string
}

// NewResolver creates a resolver for the media element name.
func NewResolver(s *schema.Schema, media string) *Resolver {
	if media == "" {
		media = domain.NameImage
	}
	return &Resolver{schema: s, media: media}
}

// Resolve returns the nearest position, walking up from the selection focus,
// where the schema accepts the media element with attrs. It returns
// domain.ErrPositionUnavailable when an object is selected, when the focus is
// inside an object or media element, or when no level up to the nearest limit
// element accepts it.
func (r *Resolver) Resolve(sel domain.Selection, attrs map[string]any) (domain.Position, error) {
	if el := sel.SelectedElement(); el != nil && r.schema.IsObject(el.Name()) {
		return domain.Position{}, domain.ErrPositionUnavailable
	}

	pos := sel.Focus
	if pos.Parent == nil || !pos.IsValid() {
		return domain.Position{}, domain.ErrPositionUnavailable
	}
	for _, a := range pos.Parent.Ancestors() {
		if r.schema.IsObject(a.Name()) || a.Name() == r.media {
			return domain.Position{}, domain.ErrPositionUnavailable
		}
	}

	for {
		if r.schema.Check(schema.ContextOf(pos.Parent), r.media, attrs) {
			return pos, nil
		}
		child := pos.Parent
		if r.schema.IsLimit(child.Name()) || child.Parent() == nil {
			return domain.Position{}, domain.ErrPositionUnavailable
		}
		if pos.IsAtEnd() {
			pos = domain.PositionAfter(child)
		} else {
			pos = domain.PositionBefore(child)
		}
	}
}

// IsEnabled reports whether an upload could be inserted at sel.
func (r *Resolver) IsEnabled(sel domain.Selection) bool {
	_, err := r.Resolve(sel, map[string]any{domain.AttrUploadID: ""})
	return err == nil
}
