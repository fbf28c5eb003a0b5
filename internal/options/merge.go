package options

// Merge applies source onto target in place.
//
// "tags" is a union that keeps the first occurrence of every tag. "prefix"
// accumulates URL path segments: a scalar source appends one segment, a
// sequence source is concatenated. Every other key is overwritten by source.
func Merge(target, source *Map) {
	if target == nil || source == nil {
		return
	}
	for _, k := range source.keys {
		v := source.values[k]
		switch k {
		case KeyTags:
			target.Set(k, unionTags(asList(target.values[k]), asList(v)))
		case KeyPrefix:
			segments := asList(target.values[k])
			switch pv := v.(type) {
			case nil:
			case []any, []string:
				segments = append(segments, asList(pv)...)
			default:
				segments = append(segments, pv)
			}
			target.Set(k, segments)
		default:
			target.Set(k, cloneValue(v))
		}
	}
}

// MergeAll folds sources left to right into a fresh map.
func MergeAll(sources ...*Map) *Map {
	out := New()
	for _, src := range sources {
		Merge(out, src)
	}
	return out
}

func unionTags(existing, incoming []any) []any {
	out := make([]any, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, list := range [][]any{existing, incoming} {
		for _, t := range list {
			if s, ok := t.(string); ok {
				t = Normalize(s)
			}
			key := scalarString(t)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// asList returns a fresh []any view of a sequence or scalar value.
func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		out := make([]any, len(t))
		copy(out, t)
		return out
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return []any{t}
	}
}
