package schema

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/easel/pkg/domain"
)

// DefinitionFile is the YAML layout of a schema definition file:
//
//	items:
//	  - name: caption
//	    allow_in: [image]
//	    allow_content_of: [$block]
//	    is_limit: true
type DefinitionFile struct {
	Items []NamedDefinition `yaml:"items"`
}

// NamedDefinition is a Definition with the item name it applies to.
type NamedDefinition struct {
	Name       string `yaml:"name"`
	Definition `yaml:",inline"`
}

// LoadDefinitions decodes a definition file.
func LoadDefinitions(r io.Reader) (*DefinitionFile, error) {
	var f DefinitionFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse schema definitions: %w", err)
	}
	for i, item := range f.Items {
		if item.Name == "" {
			return nil, fmt.Errorf("schema definition #%d has no name", i+1)
		}
	}
	return &f, nil
}

// Apply registers unknown items and extends known ones, in file order.
func (f *DefinitionFile) Apply(s *Schema) error {
	for _, item := range f.Items {
		var err error
		if s.IsRegistered(item.Name) {
			err = s.Extend(item.Name, item.Definition)
		} else {
			err = s.Register(item.Name, item.Definition)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// MediaAttributes are the attributes a media element may carry.
var MediaAttributes = []string{
	domain.AttrAlt,
	domain.AttrSrc,
	domain.AttrSrcset,
	domain.AttrUploadID,
	domain.AttrWidth,
	domain.AttrImageStyle,
}

// NewDefault creates a schema with paragraphs and media elements registered the
// way the editing features expect them.
func NewDefault(media string) *Schema {
	if media == "" {
		media = domain.NameImage
	}
	s := New()
	_ = s.Register(domain.NameParagraph, Definition{InheritAllFrom: domain.NameBlock})
	_ = s.Register(media, Definition{
		AllowWhere:      []string{domain.NameBlock},
		AllowAttributes: MediaAttributes,
		IsObject:        true,
		Types: AttributeTypes{
			domain.AttrUploadID:   String(),
			domain.AttrWidth:      Length(),
			domain.AttrImageStyle: String(),
			domain.AttrSrc:        String(),
			domain.AttrAlt:        String(),
		},
	})
	return s
}
