package schema

import (
	"errors"
	"testing"
)

func TestBuiltinTypes(t *testing.T) {
	tests := []struct {
		typ     Type
		value   any
		wantErr bool
	}{
		{String(), "img-1", false},
		{String(), 42, true},
		{Int(), 240, false},
		{Int(), 240.0, false},
		{Int(), 240.5, true},
		{Float(), 2.5, false},
		{Float(), "2.5", true},
		{Bool(), true, false},
		{Bool(), nil, true},
		{Length(), "240px", false},
		{Length(), "33.5%", false},
		{Length(), "240", true},
		{Length(), "px", true},
		{Length(), 240, true},
		{Any(), map[string]any{}, false},
		{Any(), nil, true},
		{Slice(String()), []any{"a", "b"}, false},
		{Slice(String()), []int{1}, true},
		{Slice(Slice(Int())), [][]int{{1}, {2, 3}}, false},
	}

	for _, tt := range tests {
		err := tt.typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s.Validate(%v) error = %v, wantErr %v", tt.typ.Name(), tt.value, err, tt.wantErr)
		}
	}
}

func TestCustomType(t *testing.T) {
	style := Custom("image-style", func(v any) error {
		s, _ := v.(string)
		if s != "full" && s != "side" {
			return errors.New("unknown style")
		}
		return nil
	})

	if style.Name() != "image-style" {
		t.Errorf("Name() = %q, want %q", style.Name(), "image-style")
	}
	if err := style.Validate("side"); err != nil {
		t.Errorf("Validate(side) error = %v", err)
	}
	if err := style.Validate("left"); err == nil {
		t.Error("Validate(left) should fail")
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		input    string
		wantErr  bool
		wantName string
	}{
		{"string", false, "string"},
		{"length", false, "length"},
		{"any", false, "any"},
		{"[int]", false, "[int]"},
		{"[[string]]", false, "[[string]]"},
		{"pixels", true, ""},
		{"[pixels]", true, ""},
	}

	for _, tt := range tests {
		typ, err := ParseType(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && typ.Name() != tt.wantName {
			t.Errorf("ParseType(%q) Name() = %q, want %q", tt.input, typ.Name(), tt.wantName)
		}
	}
}

func TestParseTypeMap(t *testing.T) {
	types, err := ParseTypeMap(map[string]string{"uploadId": "string", "width": "length"})
	if err != nil {
		t.Fatalf("ParseTypeMap() error = %v", err)
	}
	if types["width"].Name() != "length" {
		t.Errorf("width type = %q, want length", types["width"].Name())
	}

	if _, err := ParseTypeMap(map[string]string{"width": "pixels"}); err == nil {
		t.Fatal("ParseTypeMap() should return error for invalid type")
	}
}
