// Package schema declares which items may appear where in a document tree and
// which attributes they may carry.
//
// Items are registered by name with a Definition. Definitions reference each other
// (AllowWhere, AllowContentOf, InheritAllFrom) and are compiled into flat allow sets
// on first use:
//
//	s := schema.New() // $root, $block and $text
//	s.Register("paragraph", schema.Definition{InheritAllFrom: "$block"})
//	s.Register("image", schema.Definition{
//	    AllowWhere:      []string{"$block"},
//	    AllowAttributes: []string{"src", "uploadId", "width"},
//	    IsObject:        true,
//	    Types:           schema.AttributeTypes{"width": schema.Length()},
//	})
//
//	s.Check(schema.Context{"$root"}, "image", map[string]any{"uploadId": "42"}) // true
//
// Custom rules are added with AddChildCheck and AddAttributeCheck. They see the full
// context and, for child checks, the attributes the node would carry, so rules may
// depend on attributes. The first check returning Allow or Deny wins.
//
// Attribute values are validated with a small type system: String, Int, Float,
// Bool, Length, Any, Slice and Custom. Type maps can be parsed from strings
// ("length", "[string]") and round-trip through JSON and YAML.
package schema
