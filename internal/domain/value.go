package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ValueKind identifies which variant a ConfigValue holds.
type ValueKind int

const (
	KindString ValueKind = iota
	KindFloat
	KindInt
	KindBool
	KindStructured
)

// Declared type tags carried by the configuration origin.
const (
	TagString     = "string"
	TagFloat      = "float"
	TagInt        = "int"
	TagBool       = "bool"
	TagStructured = "json"
)

// ConfigValue is a decoded configuration value. Exactly one variant is set,
// determined by Kind.
type ConfigValue struct {
	kind ValueKind
	str  string
	f    float64
	i    int64
	b    bool
	tree any
}

// StringValue wraps a raw string.
func StringValue(s string) ConfigValue { return ConfigValue{kind: KindString, str: s} }

// FloatValue wraps a float.
func FloatValue(f float64) ConfigValue { return ConfigValue{kind: KindFloat, f: f} }

// IntValue wraps an integer.
func IntValue(i int64) ConfigValue { return ConfigValue{kind: KindInt, i: i} }

// BoolValue wraps a boolean.
func BoolValue(b bool) ConfigValue { return ConfigValue{kind: KindBool, b: b} }

// StructuredValue wraps a decoded JSON tree.
func StructuredValue(tree any) ConfigValue { return ConfigValue{kind: KindStructured, tree: tree} }

// DecodeValue converts a raw string plus its declared type tag into a typed
// ConfigValue. Decoding is total: an unknown tag or a value that does not
// parse under its declared type falls back to the raw string unchanged.
func DecodeValue(raw, dataType string) ConfigValue {
	trimmed := strings.TrimSpace(raw)

	switch strings.ToLower(strings.TrimSpace(dataType)) {
	case TagFloat, "double", "decimal":
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return FloatValue(f)
		}
	case TagInt, "integer":
		if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return IntValue(i)
		}
	case TagBool, "boolean":
		if b, err := strconv.ParseBool(trimmed); err == nil {
			return BoolValue(b)
		}
	case TagStructured:
		var tree any
		if err := json.Unmarshal([]byte(raw), &tree); err == nil {
			return StructuredValue(tree)
		}
	}

	return StringValue(raw)
}

// Kind returns the variant held by the value.
func (v ConfigValue) Kind() ValueKind { return v.kind }

// AsFloat returns the value as a float64. Integer values are widened.
func (v ConfigValue) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsInt returns the value as an int64. Float values are truncated.
func (v ConfigValue) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		return int64(v.f), true
	default:
		return 0, false
	}
}

// AsBool returns the value as a bool.
func (v ConfigValue) AsBool() (bool, bool) {
	if v.kind == KindBool {
		return v.b, true
	}
	return false, false
}

// AsStructured returns the decoded JSON tree.
func (v ConfigValue) AsStructured() (any, bool) {
	if v.kind == KindStructured {
		return v.tree, true
	}
	return nil, false
}

// Any returns the native Go representation, for JSON rendering.
func (v ConfigValue) Any() any {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		return v.i
	case KindBool:
		return v.b
	case KindStructured:
		return v.tree
	default:
		return v.str
	}
}

// DataType returns the type tag matching the held variant.
func (v ConfigValue) DataType() string {
	switch v.kind {
	case KindFloat:
		return TagFloat
	case KindInt:
		return TagInt
	case KindBool:
		return TagBool
	case KindStructured:
		return TagStructured
	default:
		return TagString
	}
}

// Raw returns the textual form of the value. Structured values are
// JSON-stringified; DecodeValue(Raw(), DataType()) round-trips.
func (v ConfigValue) Raw() string {
	switch v.kind {
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindStructured:
		data, err := json.Marshal(v.tree)
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return v.str
	}
}
