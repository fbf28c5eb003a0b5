//go:build property
// +build property

package options

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func mapFromGen(tags []string, prefix string, layout string) *Map {
	m := New()
	if len(tags) > 0 {
		list := make([]any, len(tags))
		for i, t := range tags {
			list[i] = t
		}
		m.Set(KeyTags, list)
	}
	if prefix != "" {
		m.Set(KeyPrefix, prefix)
	}
	if layout != "" {
		m.Set("layout", layout)
	}
	return m
}

func TestMergeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	tagGen := gen.SliceOfN(4, gen.OneConstOf("a", "b", "c", "d"))
	wordGen := gen.OneConstOf("", "blog", "notes", "2020")

	properties.Property("merge all equals explicit left fold", prop.ForAll(
		func(t1, t2 []string, p1, p2, l1 string) bool {
			a := mapFromGen(t1, p1, l1)
			b := mapFromGen(t2, p2, "")
			folded := New()
			Merge(folded, a)
			Merge(folded, b)
			return reflect.DeepEqual(folded.ToMap(), MergeAll(a, b).ToMap())
		},
		tagGen, tagGen, wordGen, wordGen, wordGen,
	))

	properties.Property("merging identical inputs is deterministic", prop.ForAll(
		func(t1, t2 []string, p1 string) bool {
			a := mapFromGen(t1, p1, "post")
			b := mapFromGen(t2, "", "page")
			return reflect.DeepEqual(MergeAll(a, b).ToMap(), MergeAll(a, b).ToMap())
		},
		tagGen, tagGen, wordGen,
	))

	properties.Property("tags never contain duplicates", prop.ForAll(
		func(t1, t2 []string) bool {
			merged := MergeAll(mapFromGen(t1, "", ""), mapFromGen(t2, "", ""))
			seen := map[string]bool{}
			for _, tag := range merged.Strings(KeyTags) {
				if seen[tag] {
					return false
				}
				seen[tag] = true
			}
			return true
		},
		tagGen, tagGen,
	))

	properties.Property("re-merging the same tags is idempotent", prop.ForAll(
		func(t1, t2 []string) bool {
			target := mapFromGen(t1, "", "")
			src := mapFromGen(t2, "", "")
			Merge(target, src)
			once := target.Strings(KeyTags)
			Merge(target, src)
			return reflect.DeepEqual(once, target.Strings(KeyTags))
		},
		tagGen, tagGen,
	))

	properties.TestingRun(t)
}
