package store

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ToDocument converts a bson-tagged struct into an ordered document.
func ToDocument(v any) (bson.D, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// FromDocument decodes doc into the bson-tagged value pointed to by v.
func FromDocument(doc bson.D, v any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, v)
}

// Lookup resolves a dotted path inside doc.
func Lookup(doc bson.D, path string) (any, bool) {
	var current any = doc
	for _, segment := range strings.Split(path, ".") {
		sub, ok := current.(bson.D)
		if !ok {
			return nil, false
		}
		found := false
		for _, elem := range sub {
			if elem.Key == segment {
				current = elem.Value
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return current, true
}

// Matches reports whether doc satisfies every equality in filter.
func Matches(doc bson.D, filter bson.D) bool {
	for _, cond := range filter {
		value, ok := Lookup(doc, cond.Key)
		if !ok {
			if cond.Value != nil {
				return false
			}
			continue
		}
		if valuesEqual(value, cond.Value) {
			continue
		}
		if arr, isArr := value.(bson.A); isArr && arrayContains(arr, cond.Value) {
			continue
		}
		return false
	}
	return true
}

// Project applies a MongoDB-style projection to doc and returns a copy.
func Project(doc bson.D, projection bson.D) bson.D {
	if len(projection) == 0 {
		return Clone(doc)
	}

	includeID := true
	var included, excluded [][]string
	for _, p := range projection {
		if p.Key == IDField {
			includeID = truthy(p.Value)
			continue
		}
		if truthy(p.Value) {
			included = append(included, strings.Split(p.Key, "."))
		} else {
			excluded = append(excluded, strings.Split(p.Key, "."))
		}
	}

	if len(included) > 0 {
		out := bson.D{}
		for _, elem := range doc {
			if elem.Key == IDField {
				if includeID {
					out = append(out, bson.E{Key: elem.Key, Value: cloneValue(elem.Value)})
				}
				continue
			}
			if value, ok := includePaths(elem, included); ok {
				out = append(out, bson.E{Key: elem.Key, Value: value})
			}
		}
		return out
	}

	out := Clone(doc)
	if !includeID {
		excluded = append(excluded, []string{IDField})
	}
	for _, path := range excluded {
		out = excludePath(out, path)
	}
	return out
}

// SortDocuments orders docs in place by keys, first key first.
// A direction of 1 is ascending and -1 descending; ties keep input order.
func SortDocuments(docs []bson.D, keys bson.D) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range keys {
			a, _ := Lookup(docs[i], key.Key)
			b, _ := Lookup(docs[j], key.Key)
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if direction(key.Value) < 0 {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// Apply returns a copy of doc with update applied and the version marker bumped.
func Apply(doc bson.D, update Update) (bson.D, error) {
	out := Clone(doc)
	switch u := update.(type) {
	case Set:
		for _, field := range u.Fields {
			out = setField(out, field.Key, cloneValue(field.Value))
		}
	case Push:
		arr, err := arrayField(out, u.Field)
		if err != nil {
			return nil, err
		}
		if !arrayContains(arr, u.Value) {
			arr = append(arr, u.Value)
		}
		out = setField(out, u.Field, arr)
	case Pull:
		arr, err := arrayField(out, u.Field)
		if err != nil {
			return nil, err
		}
		kept := bson.A{}
		for _, item := range arr {
			if !valuesEqual(item, u.Value) {
				kept = append(kept, item)
			}
		}
		out = setField(out, u.Field, kept)
	default:
		return nil, fmt.Errorf("store: unsupported update %T", update)
	}

	version, _ := Lookup(out, VersionField)
	n, _ := toFloat(version)
	return setField(out, VersionField, int32(n)+1), nil
}

// Clone deep-copies doc.
func Clone(doc bson.D) bson.D {
	if doc == nil {
		return nil
	}
	out := make(bson.D, len(doc))
	for i, elem := range doc {
		out[i] = bson.E{Key: elem.Key, Value: cloneValue(elem.Value)}
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case bson.D:
		return Clone(typed)
	case bson.A:
		out := make(bson.A, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func includePaths(elem bson.E, paths [][]string) (any, bool) {
	var tails [][]string
	for _, path := range paths {
		if path[0] != elem.Key {
			continue
		}
		if len(path) == 1 {
			return cloneValue(elem.Value), true
		}
		tails = append(tails, path[1:])
	}
	if len(tails) == 0 {
		return nil, false
	}
	sub, ok := elem.Value.(bson.D)
	if !ok {
		return nil, false
	}
	out := bson.D{}
	for _, child := range sub {
		if value, ok := includePaths(child, tails); ok {
			out = append(out, bson.E{Key: child.Key, Value: value})
		}
	}
	return out, true
}

func excludePath(doc bson.D, path []string) bson.D {
	out := make(bson.D, 0, len(doc))
	for _, elem := range doc {
		if elem.Key != path[0] {
			out = append(out, elem)
			continue
		}
		if len(path) == 1 {
			continue
		}
		if sub, ok := elem.Value.(bson.D); ok {
			elem.Value = excludePath(sub, path[1:])
		}
		out = append(out, elem)
	}
	return out
}

func setField(doc bson.D, key string, value any) bson.D {
	for i := range doc {
		if doc[i].Key == key {
			doc[i].Value = value
			return doc
		}
	}
	return append(doc, bson.E{Key: key, Value: value})
}

func arrayField(doc bson.D, key string) (bson.A, error) {
	value, ok := Lookup(doc, key)
	if !ok || value == nil {
		return bson.A{}, nil
	}
	switch typed := value.(type) {
	case bson.A:
		return typed, nil
	case []any:
		return bson.A(typed), nil
	default:
		return nil, fmt.Errorf("store: field %q is not an array", key)
	}
}

func arrayContains(arr bson.A, value any) bool {
	for _, item := range arr {
		if valuesEqual(item, value) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ta, ok := toTime(a); ok {
		tb, ok := toTime(b)
		return ok && ta.Equal(tb)
	}
	switch typedA := a.(type) {
	case bson.D:
		typedB, ok := b.(bson.D)
		if !ok || len(typedA) != len(typedB) {
			return false
		}
		for i := range typedA {
			if typedA[i].Key != typedB[i].Key || !valuesEqual(typedA[i].Value, typedB[i].Value) {
				return false
			}
		}
		return true
	case bson.A:
		typedB, ok := b.(bson.A)
		if !ok || len(typedA) != len(typedB) {
			return false
		}
		for i := range typedA {
			if !valuesEqual(typedA[i], typedB[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders values the way MongoDB does across types:
// null < numbers < strings < documents < arrays < booleans < dates.
func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 1:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
	case 2:
		return strings.Compare(a.(string), b.(string))
	case 5:
		ba, bb := a.(bool), b.(bool)
		switch {
		case !ba && bb:
			return -1
		case ba && !bb:
			return 1
		}
	case 6:
		ta, _ := toTime(a)
		tb, _ := toTime(b)
		return ta.Compare(tb)
	}
	return 0
}

func typeRank(v any) int {
	if _, ok := toFloat(v); ok {
		return 1
	}
	if _, ok := toTime(v); ok {
		return 6
	}
	switch v.(type) {
	case nil:
		return 0
	case string:
		return 2
	case bson.D:
		return 3
	case bson.A:
		return 4
	case bool:
		return 5
	}
	return 7
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case bson.DateTime:
		return t.Time(), true
	}
	return time.Time{}, false
}

func truthy(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	n, ok := toFloat(v)
	return ok && n != 0
}

func direction(v any) int {
	if n, ok := toFloat(v); ok && n < 0 {
		return -1
	}
	return 1
}
