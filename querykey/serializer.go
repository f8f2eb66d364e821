package querykey

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// maxSegmentLen caps the rendered length of one discriminator segment.
// Segments past the cap are replaced by an xxhash digest so keys stay short
// enough to index and log while remaining collision-free in practice.
const maxSegmentLen = 96

// Serializer turns one discriminator value into a stable key segment.
// Implementations must be deterministic: equal values (after normalization of
// optional fields) must always produce the same segment.
type Serializer interface {
	Serialize(v any) string
}

// defaultSerializer is the reflection-based serializer used when no custom
// one is supplied. It sorts map keys, walks exported struct fields in
// declaration order, dereferences pointers, and falls back to JSON for
// anything it does not handle structurally.
type defaultSerializer struct{}

// NewDefaultSerializer returns the default deterministic serializer.
func NewDefaultSerializer() Serializer {
	return defaultSerializer{}
}

func (s defaultSerializer) Serialize(v any) string {
	seg := s.render(v)
	if len(seg) > maxSegmentLen {
		return fmt.Sprintf("x:%016x", xxhash.Sum64String(seg))
	}
	return seg
}

func (s defaultSerializer) render(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()

	switch rt.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return "nil"
		}
		return s.render(rv.Elem().Interface())

	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return s.renderSeq("slice", rv)

	case reflect.Array:
		return s.renderSeq("array", rv)

	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.renderMap(rv)

	case reflect.Struct:
		return s.renderStruct(rv, rt)

	case reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.render(rv.Elem().Interface())

	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return fmt.Sprintf("%v", v)
	}

	// Channels and funcs are not meaningful discriminators; their identity is
	// process-local at best. Keys built from them are a call-site defect, but
	// we still render something stable within the process rather than panic.
	switch rt.Kind() {
	case reflect.Chan, reflect.Func:
		return fmt.Sprintf("%s:%p", rt.Kind(), v)
	}

	return s.jsonFallback(v)
}

func (s defaultSerializer) renderSeq(label string, rv reflect.Value) string {
	n := rv.Len()
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = s.render(rv.Index(i).Interface())
	}
	return fmt.Sprintf("%s[%d]:{%s}", label, n, strings.Join(parts, ","))
}

// renderMap serializes key/value pairs sorted by the rendered key so map
// iteration order never leaks into the result.
func (s defaultSerializer) renderMap(rv reflect.Value) string {
	keys := rv.MapKeys()
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = s.render(k.Interface()) + "=" + s.render(rv.MapIndex(k).Interface())
	}
	sort.Strings(pairs)
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

func (s defaultSerializer) renderStruct(rv reflect.Value, rt reflect.Type) string {
	parts := make([]string, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := rv.Field(i)
		if !fv.CanInterface() {
			continue
		}
		parts = append(parts, field.Name+":"+s.render(fv.Interface()))
	}
	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

func (s defaultSerializer) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "fallback:" + reflect.TypeOf(v).String()
	}
	return "json:" + string(data)
}
