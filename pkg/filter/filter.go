// Package filter decides which actions the observer records.
package filter

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrConflictingLists is returned when both an allow-list and a deny-list are configured.
var ErrConflictingLists = errors.New("actions whitelist and blacklist are mutually exclusive")

// Set is a compiled allow-list or deny-list of action type patterns.
// A nil Set allows every action.
type Set struct {
	patterns  []*regexp.Regexp
	whitelist bool
}

// New compiles the patterns once. Patterns are case-sensitive regular
// expressions matched anywhere in the action type, so plain strings act as
// substring matches. Passing neither list yields a Set that allows everything.
func New(whitelist, blacklist []string) (*Set, error) {
	if len(whitelist) > 0 && len(blacklist) > 0 {
		return nil, ErrConflictingLists
	}

	raw, allow := blacklist, false
	if len(whitelist) > 0 {
		raw, allow = whitelist, true
	}

	patterns := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid action pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return &Set{patterns: patterns, whitelist: allow}, nil
}

// Allows reports whether an action of the given type is observed.
func (s *Set) Allows(actionType string) bool {
	if s == nil || len(s.patterns) == 0 {
		return true
	}
	matched := s.matches(actionType)
	if s.whitelist {
		return matched
	}
	return !matched
}

func (s *Set) matches(actionType string) bool {
	for _, p := range s.patterns {
		if p.MatchString(actionType) {
			return true
		}
	}
	return false
}
