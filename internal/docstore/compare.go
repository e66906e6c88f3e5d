// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package docstore

import (
	"cmp"
	"strings"
)

// lookup resolves a dotted path inside a decoded document.
func lookup(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// typeRank orders JSON types the way PostgreSQL orders jsonb values:
// null < string < number < boolean < array < object.
func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case string:
		return 1
	case float64:
		return 2
	case bool:
		return 3
	case []any:
		return 4
	default:
		return 5
	}
}

// compareValues orders two decoded JSON values.
func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch av := a.(type) {
	case nil:
		return 0
	case string:
		return strings.Compare(av, b.(string))
	case float64:
		return cmp.Compare(av, b.(float64))
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case []any:
		bv := b.([]any)
		for i := 0; i < len(av) && i < len(bv); i++ {
			if c := compareValues(av[i], bv[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(av), len(bv))
	default:
		// Objects only need equality semantics for filters.
		am, _ := a.(map[string]any)
		bm, _ := b.(map[string]any)
		if len(am) != len(bm) {
			return cmp.Compare(len(am), len(bm))
		}
		for k, v := range am {
			w, ok := bm[k]
			if !ok {
				return 1
			}
			if c := compareValues(v, w); c != 0 {
				return c
			}
		}
		return 0
	}
}

// matches reports whether a decoded document satisfies every filter.
// Filter values must already be normalized.
func matches(doc map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := lookup(doc, f.Field)
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			if compareValues(v, f.Value) != 0 {
				return false
			}
		case OpArrayContains:
			arr, isArr := v.([]any)
			if !isArr {
				return false
			}
			found := false
			for _, el := range arr {
				if compareValues(el, f.Value) == 0 {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}
