// Package values provides optional numbers and append-only value series.
//
// An undefined number is an ordinary data value, not an error: it flows
// through merging, averaging and export and serializes as JSON null.
package values

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

var jsonNull = []byte("null")

// Value is a real number that may be undefined.
type Value struct {
	num     float64
	defined bool
}

// Of returns a defined value. NaN and infinities are treated as undefined.
func Of(num float64) Value {
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return Undefined()
	}

	return Value{num: num, defined: true}
}

// Undefined returns the undefined value.
func Undefined() Value {
	return Value{}
}

// Get returns the number and whether it is defined.
func (v Value) Get() (float64, bool) {
	return v.num, v.defined
}

// Defined reports whether the value holds a number.
func (v Value) Defined() bool {
	return v.defined
}

// Or returns the number, or fallback when undefined.
func (v Value) Or(fallback float64) float64 {
	if !v.defined {
		return fallback
	}

	return v.num
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if !v.defined {
		return "undefined"
	}

	return strconv.FormatFloat(v.num, 'g', -1, 64)
}

// MarshalJSON encodes an undefined value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.defined {
		return jsonNull, nil
	}

	return strconv.AppendFloat(nil, v.num, 'g', -1, 64), nil
}

// UnmarshalJSON decodes null as undefined.
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*v = Undefined()

		return nil
	}

	var num float64

	err := json.Unmarshal(data, &num)
	if err != nil {
		return fmt.Errorf("decode value: %w", err)
	}

	*v = Of(num)

	return nil
}

// MarshalYAML encodes an undefined value as null.
func (v Value) MarshalYAML() (any, error) {
	if !v.defined {
		return nil, nil //nolint:nilnil // yaml null.
	}

	return v.num, nil
}

// UnmarshalYAML decodes null as undefined.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.ShortTag() == "!!null" {
		*v = Undefined()

		return nil
	}

	var num float64

	err := node.Decode(&num)
	if err != nil {
		return fmt.Errorf("decode value: %w", err)
	}

	*v = Of(num)

	return nil
}
