package ports

import "github.com/aretw0/easel/pkg/domain"

// Projection is the rendered view of the document. It is addressed by model
// element and Part; how it renders is up to the implementation.
type Projection interface {
	// Box returns the bounding box of a rendered part. ok is false when the
	// element is not rendered.
	Box(el *domain.Element, part domain.Part) (box domain.Box, ok bool)
	// Container returns the box the element may grow into, if known.
	Container(el *domain.Element) (box domain.Box, ok bool)

	Style(el *domain.Element, part domain.Part, key string) (string, bool)
	SetStyle(el *domain.Element, part domain.Part, key, value string)
	RemoveStyle(el *domain.Element, part domain.Part, key string)

	HasClass(el *domain.Element, part domain.Part, class string) bool
	AddClass(el *domain.Element, part domain.Part, class string)
	RemoveClass(el *domain.Element, part domain.Part, class string)
}
