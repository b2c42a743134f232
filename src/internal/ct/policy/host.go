// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package policy

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/cases"
)

// MatchAll is the pattern matching every host.
const MatchAll = "*.*"

var (
	// ErrEmptyPattern indicates a blank host pattern.
	ErrEmptyPattern = errors.New("policy: empty host pattern")

	// ErrInvalidWildcard indicates a wildcard other than a leading "*." label.
	ErrInvalidWildcard = errors.New("policy: wildcard must be the leading label")

	// ErrPublicSuffixWildcard indicates a wildcard over a public suffix such as *.co.uk.
	ErrPublicSuffixWildcard = errors.New("policy: wildcard covers a public suffix")
)

// Host is a normalised host pattern: an exact name, a single-label
// wildcard such as *.example.com, or MatchAll. Host values compare equal
// when their patterns are equivalent.
type Host struct {
	pattern  string
	wildcard bool
	all      bool
}

// ParseHost normalises pattern, folding case and converting
// internationalised labels to their ASCII form.
func ParseHost(pattern string) (Host, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return Host{}, ErrEmptyPattern
	}
	if pattern == MatchAll {
		return Host{pattern: MatchAll, all: true}, nil
	}

	base, wildcard := strings.CutPrefix(pattern, "*.")
	if strings.Contains(base, "*") {
		return Host{}, fmt.Errorf("%w: %q", ErrInvalidWildcard, pattern)
	}
	name, err := normalise(base)
	if err != nil {
		return Host{}, fmt.Errorf("policy: host pattern %q: %w", pattern, err)
	}
	if wildcard {
		if suffix, icann := publicsuffix.PublicSuffix(name); icann && suffix == name {
			return Host{}, fmt.Errorf("%w: %q", ErrPublicSuffixWildcard, pattern)
		}
	}
	return Host{pattern: name, wildcard: wildcard}, nil
}

// MustParseHost is ParseHost for patterns known to be valid.
func MustParseHost(pattern string) Host {
	h, err := ParseHost(pattern)
	if err != nil {
		panic(err)
	}
	return h
}

func normalise(name string) (string, error) {
	name = strings.TrimSuffix(cases.Fold().String(name), ".")
	if name == "" {
		return "", ErrEmptyPattern
	}
	return idna.Lookup.ToASCII(name)
}

// String returns the normalised pattern.
func (h Host) String() string {
	if h.wildcard {
		return "*." + h.pattern
	}
	return h.pattern
}

// Matches reports whether host is covered by the pattern. A wildcard
// matches exactly one extra label, never the base name itself.
func (h Host) Matches(host string) bool {
	if h.all {
		return true
	}
	name, err := normalise(host)
	if err != nil {
		return false
	}
	if !h.wildcard {
		return name == h.pattern
	}
	label, ok := strings.CutSuffix(name, "."+h.pattern)
	return ok && label != "" && !strings.Contains(label, ".")
}

// Hosts selects the hosts a verifier checks.
type Hosts struct {
	Include []Host
	Exclude []Host
}

// ParseHosts parses include and exclude patterns. An empty include list
// means every host.
func ParseHosts(include, exclude []string) (Hosts, error) {
	var hs Hosts
	for _, p := range include {
		h, err := ParseHost(p)
		if err != nil {
			return Hosts{}, err
		}
		hs.Include = append(hs.Include, h)
	}
	for _, p := range exclude {
		h, err := ParseHost(p)
		if err != nil {
			return Hosts{}, err
		}
		hs.Exclude = append(hs.Exclude, h)
	}
	return hs, nil
}

// Enabled reports whether host is included and not excluded.
func (hs Hosts) Enabled(host string) bool {
	for _, h := range hs.Exclude {
		if h.Matches(host) {
			return false
		}
	}
	if len(hs.Include) == 0 {
		return true
	}
	for _, h := range hs.Include {
		if h.Matches(host) {
			return true
		}
	}
	return false
}
