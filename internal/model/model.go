// Package model defines the data structures used throughout the application.
//
// Every record kind has three shapes:
//   - the stored entity (Journal, Category, Habit, Todo) as returned to clients
//   - a create input (NewJournal, ...) whose required fields are pointers, so
//     "absent" and "empty" can be told apart
//   - a patch (JournalPatch, ...) built from Optional fields, one per column
//     the partial update is allowed to touch
//
// JSON field names are snake_case throughout; camelCase request keys are
// normalized before they ever reach these types.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entity is implemented by every stored record kind.
type Entity interface {
	EntityID() string
}

// Optional is one field of a partial update.
//
// A field that is absent from the request body keeps Set == false, because
// encoding/json never calls UnmarshalJSON for missing keys. An explicit JSON
// null sets both Set and Null; for pointer value types that decodes to nil,
// which the store writes as SQL NULL.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Null = bytes.Equal(bytes.TrimSpace(data), []byte("null"))
	return json.Unmarshal(data, &o.Value)
}

// Text is a free-form string column that also accepts a bare JSON number or
// boolean, stored by its literal text ("3", "true").
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("model: expected a string or number, got %s", data)
	}
	if !json.Valid(data) {
		return fmt.Errorf("model: invalid JSON scalar %q", data)
	}
	*t = Text(data)
	return nil
}

// Flag is a boolean that also accepts 0/1 style numbers, matching how the
// completion flag is stored.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", "false", "0":
		*f = false
		return nil
	case "true", "1":
		*f = true
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("model: expected a boolean, got %s", data)
	}
	*f = n != 0
	return nil
}
