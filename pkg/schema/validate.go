package schema

import "slices"

// AttributeTypes maps attribute keys to their expected value types.
// Example: {"uploadId": String(), "width": Length()}
type AttributeTypes map[string]Type

// ValidateAttributes checks the values present in data against types.
// Keys without a declared type are not checked here; whether a key is allowed at
// all is decided by Schema.CheckAttribute.
// Returns an error with all validation failures found.
func ValidateAttributes(types AttributeTypes, data map[string]any) error {
	if len(types) == 0 || len(data) == 0 {
		return nil
	}

	var errs []error

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		typ, declared := types[key]
		if !declared {
			continue
		}
		value := data[key]
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    key,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	return nil
}

// Merge returns a new set holding the types of both; other wins on conflicts.
func (t AttributeTypes) Merge(other AttributeTypes) AttributeTypes {
	out := make(AttributeTypes, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
