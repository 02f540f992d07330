package targeting

import (
	"fmt"
	"strconv"
)

// Operator is the comparison applied by a custom targeting rule.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
)

// ValueKind discriminates the scalar kinds a custom attribute may hold.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindBool
)

// Value is a typed scalar: the custom-attribute map is deliberately closed
// over string/number/boolean so rule comparisons stay well-defined.
type Value struct {
	Kind ValueKind `json:"kind"`
	Str  string    `json:"str,omitempty"`
	Num  float64   `json:"num,omitempty"`
	Bool bool      `json:"bool,omitempty"`
}

// String constructs a string-valued scalar.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number constructs a numeric scalar.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Boolean constructs a boolean scalar.
func Boolean(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Equal compares two values by kind and payload; no cross-kind coercion.
// Callers must pre-normalize types.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == other.Str
	case KindNumber:
		return v.Num == other.Num
	case KindBool:
		return v.Bool == other.Bool
	}
	return false
}

// text renders the value as a string, used by the contains operator.
func (v Value) text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	}
	return ""
}

// numeric coerces the value to a float64 for ordered comparisons.
// Strings parse as floats; booleans coerce to 1/0.
func (v Value) numeric() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		f, err := strconv.ParseFloat(v.Str, 64)
		return f, err == nil
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Rule is a field/operator/value triple evaluated against visitor custom
// data. A rule whose field is absent from the context fails closed.
type Rule struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    Value    `json:"value"`
}

// Targeting is a conjunction of optional audience constraints. A nil or
// empty slice/pointer imposes no restriction for that category.
type Targeting struct {
	Segments    []string `json:"segments,omitempty"`
	DeviceTypes []string `json:"device_types,omitempty"`
	Browsers    []string `json:"browsers,omitempty"`
	Countries   []string `json:"countries,omitempty"`
	Languages   []string `json:"languages,omitempty"`
	NewUser     *bool    `json:"new_user,omitempty"`
	LoggedIn    *bool    `json:"logged_in,omitempty"`
	URLPatterns []string `json:"url_patterns,omitempty"`
	Rules       []Rule   `json:"rules,omitempty"`
}

// Empty reports whether no constraint is present at all (open experiment).
func (t *Targeting) Empty() bool {
	if t == nil {
		return true
	}
	return len(t.Segments) == 0 && len(t.DeviceTypes) == 0 && len(t.Browsers) == 0 &&
		len(t.Countries) == 0 && len(t.Languages) == 0 && t.NewUser == nil &&
		t.LoggedIn == nil && len(t.URLPatterns) == 0 && len(t.Rules) == 0
}

// Context carries the visitor attributes targeting is evaluated against.
type Context struct {
	Segments   []string         `json:"segments,omitempty"`
	DeviceType string           `json:"device_type,omitempty"`
	Browser    string           `json:"browser,omitempty"`
	Country    string           `json:"country,omitempty"`
	Language   string           `json:"language,omitempty"`
	URL        string           `json:"url,omitempty"`
	IsNewUser  bool             `json:"is_new_user,omitempty"`
	IsLoggedIn bool             `json:"is_logged_in,omitempty"`
	Custom     map[string]Value `json:"custom,omitempty"`
}

func (op Operator) String() string { return string(op) }

// ParseOperator validates an operator string.
func ParseOperator(s string) (Operator, error) {
	switch Operator(s) {
	case OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan:
		return Operator(s), nil
	}
	return "", fmt.Errorf("unknown targeting operator %q", s)
}
