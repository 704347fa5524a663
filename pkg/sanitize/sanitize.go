// Package sanitize provides ready-made sanitizers for observed actions and states.
package sanitize

import (
	"fmt"
	"reflect"
	"regexp"
	"unsafe"

	"github.com/aretw0/remotedev/pkg/domain"
)

// Mask replaces the value of every matching key.
const Mask = "***"

// ActionFunc rewrites an action before it is recorded.
type ActionFunc func(action domain.Action) domain.Action

// StateFunc rewrites a state before it is recorded.
type StateFunc func(state any) any

// Masker redacts the values of map keys matching any of its patterns.
// Inputs are never mutated; masked values are written to copies.
type Masker struct {
	patterns []*regexp.Regexp
}

// MaskKeys compiles the key patterns once.
func MaskKeys(patterns ...string) (*Masker, error) {
	m := &Masker{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid key pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

// MustMaskKeys is like MaskKeys but panics on an invalid pattern.
func MustMaskKeys(patterns ...string) *Masker {
	m, err := MaskKeys(patterns...)
	if err != nil {
		panic(err)
	}
	return m
}

// State masks a state. It satisfies StateFunc.
func (m *Masker) State(state any) any {
	return m.mask(state)
}

// Action masks the payload and meta of an action. It satisfies ActionFunc.
func (m *Masker) Action(action domain.Action) domain.Action {
	action.Payload = m.mask(action.Payload)
	if action.Meta != nil {
		action.Meta = m.maskMap(action.Meta)
	}
	return action
}

// copies remembers the copy made for each map or slice, so shared and
// cyclic references keep their shape instead of recursing forever.
type copies map[visit]any

type visit struct {
	ptr unsafe.Pointer
	len int
}

func (m *Masker) mask(v any) any {
	return m.maskValue(v, copies{})
}

func (m *Masker) maskValue(v any, seen copies) any {
	switch t := v.(type) {
	case map[string]any:
		return m.maskMapValue(t, seen)
	case []any:
		if len(t) == 0 {
			return make([]any, 0)
		}
		key := visit{ptr: reflect.ValueOf(t).UnsafePointer(), len: len(t)}
		if c, ok := seen[key]; ok {
			return c
		}
		out := make([]any, len(t))
		seen[key] = out
		for i, item := range t {
			out[i] = m.maskValue(item, seen)
		}
		return out
	default:
		return v
	}
}

func (m *Masker) maskMap(in map[string]any) map[string]any {
	return m.maskMapValue(in, copies{})
}

func (m *Masker) maskMapValue(in map[string]any, seen copies) map[string]any {
	if in == nil {
		return nil
	}
	key := visit{ptr: reflect.ValueOf(in).UnsafePointer()}
	if c, ok := seen[key]; ok {
		return c.(map[string]any)
	}
	out := make(map[string]any, len(in))
	seen[key] = out
	for k, v := range in {
		if m.matches(k) {
			out[k] = Mask
			continue
		}
		out[k] = m.maskValue(v, seen)
	}
	return out
}

func (m *Masker) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

// ChainActions applies sanitizers left to right. Nil entries are skipped.
func ChainActions(fns ...ActionFunc) ActionFunc {
	return func(action domain.Action) domain.Action {
		for _, fn := range fns {
			if fn != nil {
				action = fn(action)
			}
		}
		return action
	}
}

// ChainStates applies sanitizers left to right. Nil entries are skipped.
func ChainStates(fns ...StateFunc) StateFunc {
	return func(state any) any {
		for _, fn := range fns {
			if fn != nil {
				state = fn(state)
			}
		}
		return state
	}
}
