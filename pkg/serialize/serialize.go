package serialize

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Placeholder tokens emitted for values that have no JSON representation.
const (
	Circular       = "[Circular]"
	Function       = "[Function]"
	Chan           = "[Chan]"
	Unsupported    = "[Unsupported]"
	Unserializable = "[Unserializable]"
	Truncated      = "[Truncated]"
)

// MaxDepth bounds how deep the walker descends before truncating.
const MaxDepth = 128

// Replacer is called for every key before its value is walked.
// The root value is passed with an empty key and slice elements with their index.
// Return Omit to drop the key.
type Replacer func(key string, value any) any

type omitted struct{}

// Omit is the sentinel a Replacer returns to drop a key.
var Omit any = omitted{}

var (
	marshalerType     = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	errorType         = reflect.TypeOf((*error)(nil)).Elem()
)

// Serializer turns values into JSON text. It is safe for concurrent use.
type Serializer struct {
	replacer Replacer
}

// New creates a Serializer. The replacer may be nil.
func New(replacer Replacer) *Serializer {
	return &Serializer{replacer: replacer}
}

var defaultSerializer = New(nil)

// Stringify serializes v without a replacer.
func Stringify(v any) string {
	return defaultSerializer.Stringify(v)
}

// Stringify serializes v. It never panics.
func (s *Serializer) Stringify(v any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = strconv.Quote(Unserializable)
		}
	}()

	w := &walker{replacer: s.replacer, seen: make(map[visitKey]struct{})}
	tree, ok := w.visit("", v, 0)
	if !ok {
		return "null"
	}
	b, err := json.Marshal(tree)
	if err != nil {
		return strconv.Quote(Unserializable)
	}
	return string(b)
}

// visitKey identifies a reference-like value on the current walk path.
type visitKey struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type walker struct {
	replacer Replacer
	seen     map[visitKey]struct{}
}

func (w *walker) visit(key string, v any, depth int) (any, bool) {
	if w.replacer != nil {
		v = w.replace(key, v)
		if v == Omit {
			return nil, false
		}
	}
	return w.value(reflect.ValueOf(v), depth), true
}

func (w *walker) replace(key string, v any) (out any) {
	defer func() {
		if r := recover(); r != nil {
			out = Unserializable
		}
	}()
	return w.replacer(key, v)
}

func (w *walker) value(rv reflect.Value, depth int) any {
	if !rv.IsValid() {
		return nil
	}
	if depth > MaxDepth {
		return Truncated
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return nil
		}
	}

	if rv.Type().Implements(marshalerType) {
		return marshalJSON(rv)
	}
	if rv.Type().Implements(textMarshalerType) {
		return marshalText(rv)
	}
	if rv.Type().Implements(errorType) && rv.Kind() != reflect.Interface {
		return errorText(rv)
	}

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32:
		return float(rv.Float(), 32)
	case reflect.Float64:
		return float(rv.Float(), 64)
	case reflect.Complex64, reflect.Complex128:
		return fmt.Sprint(rv.Complex())
	case reflect.String:
		return rv.String()
	case reflect.Interface:
		return w.value(rv.Elem(), depth)
	case reflect.Pointer:
		return w.enter(rv, 0, depth, func() any { return w.value(rv.Elem(), depth+1) })
	case reflect.Map:
		return w.enter(rv, 0, depth, func() any { return w.mapValue(rv, depth) })
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return base64.StdEncoding.EncodeToString(rv.Bytes())
		}
		return w.enter(rv, rv.Len(), depth, func() any { return w.sequence(rv, depth) })
	case reflect.Array:
		return w.sequence(rv, depth)
	case reflect.Struct:
		return w.structValue(rv, depth)
	case reflect.Func:
		return Function
	case reflect.Chan:
		return Chan
	default:
		return Unsupported
	}
}

// enter tracks rv on the walk path while fn runs, replacing revisits with Circular.
func (w *walker) enter(rv reflect.Value, n int, depth int, fn func() any) any {
	key := visitKey{ptr: rv.Pointer(), typ: rv.Type(), len: n}
	if _, ok := w.seen[key]; ok {
		return Circular
	}
	w.seen[key] = struct{}{}
	defer delete(w.seen, key)
	return fn()
}

func (w *walker) mapValue(rv reflect.Value, depth int) any {
	type kv struct {
		key string
		val reflect.Value
	}
	pairs := make([]kv, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, kv{key: mapKey(iter.Key()), val: iter.Value()})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	obj := orderedmap.New[string, any](orderedmap.WithCapacity[string, any](len(pairs)))
	for _, p := range pairs {
		if !p.val.CanInterface() {
			continue
		}
		if v, ok := w.visit(p.key, p.val.Interface(), depth+1); ok {
			obj.Set(p.key, v)
		}
	}
	return obj
}

func (w *walker) sequence(rv reflect.Value, depth int) any {
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i)
		if !elem.CanInterface() {
			out = append(out, nil)
			continue
		}
		v, ok := w.visit(strconv.Itoa(i), elem.Interface(), depth+1)
		if !ok {
			// Arrays keep their length; dropped elements become null.
			v = nil
		}
		out = append(out, v)
	}
	return out
}

func (w *walker) structValue(rv reflect.Value, depth int) any {
	obj := orderedmap.New[string, any]()
	w.fields(obj, rv, depth, false)
	return obj
}

// fields writes the exported fields of rv into obj. Fields promoted from
// embedded structs never override fields declared on the outer struct.
func (w *walker) fields(obj *orderedmap.OrderedMap[string, any], rv reflect.Value, depth int, promoted bool) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, opts, skip := parseTag(sf)
		if skip {
			continue
		}
		fv := rv.Field(i)

		if sf.Anonymous && name == "" {
			inner := fv
			if inner.Kind() == reflect.Pointer {
				if inner.IsNil() {
					continue
				}
				inner = inner.Elem()
			}
			if inner.Kind() == reflect.Struct {
				w.fields(obj, inner, depth, true)
				continue
			}
		}
		if !sf.IsExported() || !fv.CanInterface() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if opts.omitEmpty && isEmpty(fv) {
			continue
		}
		if promoted {
			if _, exists := obj.Get(name); exists {
				continue
			}
		}
		if v, ok := w.visit(name, fv.Interface(), depth+1); ok {
			obj.Set(name, v)
		}
	}
}

type tagOptions struct {
	omitEmpty bool
}

func parseTag(sf reflect.StructField) (string, tagOptions, bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "", tagOptions{}, true
	}
	name, rest, _ := strings.Cut(tag, ",")
	var opts tagOptions
	for _, o := range strings.Split(rest, ",") {
		if o == "omitempty" || o == "omitzero" {
			opts.omitEmpty = true
		}
	}
	return name, opts, false
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	if k.Type().Implements(textMarshalerType) && k.CanInterface() {
		if txt, ok := marshalText(k).(string); ok {
			return txt
		}
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10)
	}
	if k.CanInterface() {
		return fmt.Sprint(k.Interface())
	}
	return Unsupported
}

func float(f float64, bits int) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if bits == 32 {
		return json.Number(strconv.FormatFloat(f, 'g', -1, 32))
	}
	return f
}

func marshalJSON(rv reflect.Value) (out any) {
	defer func() {
		if r := recover(); r != nil {
			out = Unserializable
		}
	}()
	if !rv.CanInterface() {
		return Unsupported
	}
	m, ok := rv.Interface().(json.Marshaler)
	if !ok {
		return Unsupported
	}
	b, err := m.MarshalJSON()
	if err != nil || !json.Valid(b) {
		return Unserializable
	}
	return json.RawMessage(b)
}

func marshalText(rv reflect.Value) (out any) {
	defer func() {
		if r := recover(); r != nil {
			out = Unserializable
		}
	}()
	if !rv.CanInterface() {
		return Unsupported
	}
	m, ok := rv.Interface().(encoding.TextMarshaler)
	if !ok {
		return Unsupported
	}
	b, err := m.MarshalText()
	if err != nil {
		return Unserializable
	}
	return string(b)
}

func errorText(rv reflect.Value) (out any) {
	defer func() {
		if r := recover(); r != nil {
			out = Unserializable
		}
	}()
	if !rv.CanInterface() {
		return Unsupported
	}
	if err, ok := rv.Interface().(error); ok {
		return err.Error()
	}
	return Unsupported
}
