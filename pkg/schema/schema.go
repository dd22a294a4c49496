package schema

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/easel/pkg/domain"
)

// Definition declares the rules of one item. Registering and extending the same
// name merges definitions.
type Definition struct {
	// AllowIn lists the items this item may be a direct child of.
	AllowIn []string `yaml:"allow_in,omitempty"`
	// AllowWhere makes the item allowed wherever the listed items are.
	AllowWhere []string `yaml:"allow_where,omitempty"`
	// AllowContentOf makes everything allowed in the listed items allowed in this one.
	AllowContentOf []string `yaml:"allow_content_of,omitempty"`
	// AllowAttributes lists the attribute keys the item may carry.
	AllowAttributes []string `yaml:"allow_attributes,omitempty"`
	// AllowAttributesOf copies the allowed attributes of the listed items.
	AllowAttributesOf []string `yaml:"allow_attributes_of,omitempty"`
	// InheritAllFrom is shorthand for AllowWhere, AllowContentOf, AllowAttributesOf
	// and the item kind flags of another item.
	InheritAllFrom string `yaml:"inherit_all_from,omitempty"`

	IsBlock bool `yaml:"is_block,omitempty"`
	// IsLimit items cannot be left by a plain cursor; insertion never escapes them.
	IsLimit bool `yaml:"is_limit,omitempty"`
	// IsObject items are atomic units selected as a whole. Objects are also limits.
	IsObject bool `yaml:"is_object,omitempty"`

	// Types declares value types for some of the allowed attributes.
	Types AttributeTypes `yaml:"types,omitempty"`
}

// Context is the chain of item names from the root to the insertion parent.
type Context []string

// ContextOf builds the context naming el and its ancestors.
func ContextOf(el *domain.Element) Context {
	chain := el.Ancestors()
	ctx := make(Context, len(chain))
	for i, a := range chain {
		ctx[i] = a.Name()
	}
	return ctx
}

// Last returns the innermost name, or "" for an empty context.
func (c Context) Last() string {
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1]
}

// Push returns a copy of the context extended with name.
func (c Context) Push(name string) Context {
	return append(slices.Clone(c), name)
}

// Decision is the outcome of a custom check.
type Decision int

const (
	// Undecided defers to the next check and finally to the declarative rules.
	Undecided Decision = iota
	Allow
	Deny
)

// ChildCheck is a custom rule deciding whether child may be placed in ctx.
type ChildCheck func(ctx Context, child string, attrs map[string]any) Decision

// AttributeCheck is a custom rule deciding whether item in ctx may carry key.
type AttributeCheck func(ctx Context, item, key string) Decision

type compiled struct {
	allowIn    map[string]bool
	attributes map[string]bool
	types      AttributeTypes
	isBlock    bool
	isLimit    bool
	isObject   bool
}

// Schema holds item definitions and custom checks. Definitions are compiled lazily
// on first query and recompiled after any change.
type Schema struct {
	mu          sync.RWMutex
	defs        map[string][]Definition
	order       []string
	childChecks []ChildCheck
	attrChecks  []AttributeCheck
	items       map[string]*compiled
}

// New creates a schema with the built-in $root, $block and $text items.
func New() *Schema {
	s := &Schema{defs: make(map[string][]Definition)}
	s.Register(domain.NameRoot, Definition{IsLimit: true})
	s.Register(domain.NameBlock, Definition{AllowIn: []string{domain.NameRoot}, IsBlock: true})
	s.Register(domain.NameText, Definition{AllowIn: []string{domain.NameBlock}})
	return s
}

// Register adds a new item. Registering an existing name is an error.
func (s *Schema) Register(name string, def Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.defs[name]; exists {
		return fmt.Errorf("schema: item %q is already registered", name)
	}
	s.defs[name] = []Definition{def}
	s.order = append(s.order, name)
	s.items = nil
	return nil
}

// Extend merges def into an existing item.
func (s *Schema) Extend(name string, def Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.defs[name]; !exists {
		return fmt.Errorf("schema: cannot extend unknown item %q", name)
	}
	s.defs[name] = append(s.defs[name], def)
	s.items = nil
	return nil
}

// AddChildCheck installs a custom child rule. Checks run in installation order.
func (s *Schema) AddChildCheck(fn ChildCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.childChecks = append(s.childChecks, fn)
}

// AddAttributeCheck installs a custom attribute rule.
func (s *Schema) AddAttributeCheck(fn AttributeCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrChecks = append(s.attrChecks, fn)
}

// IsRegistered reports whether name is a known item.
func (s *Schema) IsRegistered(name string) bool {
	return s.item(name) != nil
}

// IsBlock reports whether name is a block item.
func (s *Schema) IsBlock(name string) bool {
	it := s.item(name)
	return it != nil && it.isBlock
}

// IsLimit reports whether name is a limit (objects and $root included).
func (s *Schema) IsLimit(name string) bool {
	it := s.item(name)
	return it != nil && it.isLimit
}

// IsObject reports whether name is an object item.
func (s *Schema) IsObject(name string) bool {
	it := s.item(name)
	return it != nil && it.isObject
}

// CheckChild reports whether child may be a direct child of ctx.Last().
func (s *Schema) CheckChild(ctx Context, child string, attrs map[string]any) bool {
	it := s.item(child)
	if it == nil {
		return false
	}
	s.mu.RLock()
	checks := s.childChecks
	s.mu.RUnlock()
	for _, check := range checks {
		switch check(ctx, child, attrs) {
		case Allow:
			return true
		case Deny:
			return false
		}
	}
	return it.allowIn[ctx.Last()]
}

// CheckAttribute reports whether the item named ctx.Last() may carry key.
func (s *Schema) CheckAttribute(ctx Context, key string) bool {
	name := ctx.Last()
	it := s.item(name)
	if it == nil {
		return false
	}
	s.mu.RLock()
	checks := s.attrChecks
	s.mu.RUnlock()
	for _, check := range checks {
		switch check(ctx, name, key) {
		case Allow:
			return true
		case Deny:
			return false
		}
	}
	return it.attributes[key]
}

// Check reports whether an item named name carrying attrs may be inserted as a
// child of ctx.Last(). Some rules depend on the attributes, so the full set the
// node will carry must be passed.
func (s *Schema) Check(ctx Context, name string, attrs map[string]any) bool {
	if !s.CheckChild(ctx, name, attrs) {
		return false
	}
	self := ctx.Push(name)
	for key := range attrs {
		if !s.CheckAttribute(self, key) {
			return false
		}
	}
	return s.ValidateValues(name, attrs) == nil
}

// ValidateValues checks attribute values against the declared types of name.
func (s *Schema) ValidateValues(name string, attrs map[string]any) error {
	it := s.item(name)
	if it == nil {
		return fmt.Errorf("schema: unknown item %q", name)
	}
	return ValidateAttributes(it.types, attrs)
}

// ValidateTree verifies every element and text node below root.
func (s *Schema) ValidateTree(root *domain.Element) error {
	var err error
	root.Walk(func(el *domain.Element) bool {
		ctx := ContextOf(el)
		for _, child := range el.Children() {
			switch c := child.(type) {
			case *domain.Text:
				if !s.CheckChild(ctx, domain.NameText, nil) {
					err = fmt.Errorf("%w: text not allowed in %s", domain.ErrSchemaViolation, el.Name())
					return false
				}
			case *domain.Element:
				if !s.Check(ctx, c.Name(), c.Attributes()) {
					err = fmt.Errorf("%w: %s not allowed in %s with attributes %v",
						domain.ErrSchemaViolation, c.Name(), el.Name(), c.AttributeKeys())
					return false
				}
			}
		}
		return true
	})
	return err
}

func (s *Schema) item(name string) *compiled {
	s.mu.RLock()
	items := s.items
	s.mu.RUnlock()
	if items == nil {
		s.mu.Lock()
		if s.items == nil {
			s.items = s.compile()
		}
		items = s.items
		s.mu.Unlock()
	}
	return items[name]
}

// compile resolves inheritance into flat allow sets. Caller holds the write lock.
func (s *Schema) compile() map[string]*compiled {
	merged := make(map[string]*Definition, len(s.defs))
	for _, name := range s.order {
		m := &Definition{Types: AttributeTypes{}}
		for _, d := range s.defs[name] {
			m.AllowIn = append(m.AllowIn, d.AllowIn...)
			m.AllowWhere = append(m.AllowWhere, d.AllowWhere...)
			m.AllowContentOf = append(m.AllowContentOf, d.AllowContentOf...)
			m.AllowAttributes = append(m.AllowAttributes, d.AllowAttributes...)
			m.AllowAttributesOf = append(m.AllowAttributesOf, d.AllowAttributesOf...)
			if d.InheritAllFrom != "" {
				m.InheritAllFrom = d.InheritAllFrom
			}
			m.IsBlock = m.IsBlock || d.IsBlock
			m.IsLimit = m.IsLimit || d.IsLimit
			m.IsObject = m.IsObject || d.IsObject
			m.Types = m.Types.Merge(d.Types)
		}
		if m.InheritAllFrom != "" {
			p := m.InheritAllFrom
			m.AllowWhere = append(m.AllowWhere, p)
			m.AllowContentOf = append(m.AllowContentOf, p)
			m.AllowAttributesOf = append(m.AllowAttributesOf, p)
		}
		merged[name] = m
	}

	items := make(map[string]*compiled, len(merged))
	for name, m := range merged {
		it := &compiled{
			allowIn:    make(map[string]bool),
			attributes: make(map[string]bool),
			types:      maps.Clone(m.Types),
			isBlock:    m.IsBlock,
			isLimit:    m.IsLimit || m.IsObject,
			isObject:   m.IsObject,
		}
		for _, p := range m.AllowIn {
			it.allowIn[p] = true
		}
		for _, a := range m.AllowAttributes {
			it.attributes[a] = true
		}
		items[name] = it
	}

	// Kind flags follow InheritAllFrom chains.
	for name, m := range merged {
		seen := map[string]bool{name: true}
		for p := m.InheritAllFrom; p != "" && !seen[p]; p = merged[p].InheritAllFrom {
			seen[p] = true
			pm, ok := merged[p]
			if !ok {
				break
			}
			it := items[name]
			it.isBlock = it.isBlock || pm.IsBlock
			it.isObject = it.isObject || pm.IsObject
			it.isLimit = it.isLimit || pm.IsLimit || pm.IsObject
			it.types = pm.Types.Merge(it.types)
		}
	}

	// AllowWhere, AllowAttributesOf and AllowContentOf are resolved to a fixpoint so
	// chains of references work regardless of registration order.
	for changed := true; changed; {
		changed = false
		for name, m := range merged {
			it := items[name]
			for _, ref := range m.AllowWhere {
				if src, ok := items[ref]; ok {
					changed = union(it.allowIn, src.allowIn) || changed
				}
			}
			for _, ref := range m.AllowAttributesOf {
				if src, ok := items[ref]; ok {
					changed = union(it.attributes, src.attributes) || changed
				}
			}
			for _, ref := range m.AllowContentOf {
				for _, other := range items {
					if other.allowIn[ref] && !other.allowIn[name] {
						other.allowIn[name] = true
						changed = true
					}
				}
			}
		}
	}
	return items
}

func union(dst, src map[string]bool) bool {
	changed := false
	for k := range src {
		if !dst[k] {
			dst[k] = true
			changed = true
		}
	}
	return changed
}
