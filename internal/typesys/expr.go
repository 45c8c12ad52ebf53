package typesys

import (
	"fmt"
	"strings"
	"sync"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	primitivesOnce sync.Once
	primitives     map[string]cty.Type
)

// primitiveTypes returns the builtin primitive name table. It is built
// once and read-only afterwards, so concurrent loads may share it.
func primitiveTypes() map[string]cty.Type {
	primitivesOnce.Do(func() {
		primitives = map[string]cty.Type{
			"string":  cty.String,
			"text":    cty.String,
			"number":  cty.Number,
			"integer": cty.Number,
			"float":   cty.Number,
			"boolean": cty.Bool,
			"bool":    cty.Bool,
			"any":     cty.DynamicPseudoType,
		}
	})
	return primitives
}

// IsPrimitive reports whether name is a builtin primitive type name.
func IsPrimitive(name string) bool {
	_, ok := primitiveTypes()[strings.TrimSpace(name)]
	return ok
}

// ParseExpr converts a type expression into its cty.Type equivalent.
// Supported forms: the builtin primitives, list(T), map(T), and any type
// name declared in the registry. The registry may be nil, in which case
// only builtin forms are accepted.
func ParseExpr(r *Registry, expr string) (cty.Type, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return cty.NilType, fmt.Errorf("type expression is empty")
	}

	if inner, ok := constructorArg(expr, "list"); ok {
		elem, err := ParseExpr(r, inner)
		if err != nil {
			return cty.NilType, err
		}
		if elem.Equals(cty.DynamicPseudoType) {
			return cty.NilType, fmt.Errorf("collection types cannot contain type 'any'")
		}
		return cty.List(elem), nil
	}
	if inner, ok := constructorArg(expr, "map"); ok {
		elem, err := ParseExpr(r, inner)
		if err != nil {
			return cty.NilType, err
		}
		if elem.Equals(cty.DynamicPseudoType) {
			return cty.NilType, fmt.Errorf("collection types cannot contain type 'any'")
		}
		return cty.Map(elem), nil
	}

	if t, ok := primitiveTypes()[expr]; ok {
		return t, nil
	}

	if r != nil && r.Has(expr) {
		return r.Type(expr)
	}
	return cty.NilType, fmt.Errorf("unknown type %q", expr)
}

// constructorArg extracts the single argument of a type constructor call
// such as list(string), returning false when expr is not that constructor.
func constructorArg(expr, name string) (string, bool) {
	if !strings.HasPrefix(expr, name+"(") || !strings.HasSuffix(expr, ")") {
		return "", false
	}
	return expr[len(name)+1 : len(expr)-1], true
}

// ValueConformsTo checks that a decoded YAML value (Go scalars, maps and
// slices) is convertible to the given cty type.
func ValueConformsTo(v any, t cty.Type) error {
	if t.Equals(cty.DynamicPseudoType) {
		return nil
	}
	implied, err := gocty.ImpliedType(v)
	if err != nil {
		return fmt.Errorf("value has no structural type: %w", err)
	}
	val, err := gocty.ToCtyValue(v, implied)
	if err != nil {
		return fmt.Errorf("value does not match its own structure: %w", err)
	}
	if _, err := convert.Convert(val, t); err != nil {
		return fmt.Errorf("value is not compatible with type %s: %w", t.FriendlyName(), err)
	}
	return nil
}
