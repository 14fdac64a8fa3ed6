// Package banned holds the per-building list of plates that may not be issued tickets.
package banned

import (
	"regexp"
	"strings"
	"sync/atomic"
)

var plateRe = regexp.MustCompile(`^[\p{Lu}\p{N}][\p{Lu}\p{N} .\-]*$`)

// Source identifies the uploaded file a registry was loaded from.
type Source struct {
	Ref      string `json:"ref"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// Normalize canonicalizes a plate for comparison.
func Normalize(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

type snapshot struct {
	plates    map[string]struct{}
	source    Source
	hasSource bool
}

var emptySnapshot = &snapshot{plates: map[string]struct{}{}}

// Registry is a set of normalized plates. Reads are lock-free and a load is
// published in a single swap, so readers see either the old or the new list.
type Registry struct {
	current atomic.Pointer[snapshot]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) load() *snapshot {
	if s := r.current.Load(); s != nil {
		return s
	}
	return emptySnapshot
}

// LoadFromList replaces the contents with lines, keeping the current source.
// It returns the number of plates loaded.
func (r *Registry) LoadFromList(lines []string) int {
	prev := r.load()
	next := build(lines)
	next.source, next.hasSource = prev.source, prev.hasSource
	r.current.Store(next)
	return len(next.plates)
}

// Load replaces both the contents and the backing source reference.
func (r *Registry) Load(src Source, lines []string) int {
	next := build(lines)
	next.source, next.hasSource = src, true
	r.current.Store(next)
	return len(next.plates)
}

func build(lines []string) *snapshot {
	plates := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		p := Normalize(line)
		if p == "" || !plateRe.MatchString(p) {
			continue
		}
		plates[p] = struct{}{}
	}
	return &snapshot{plates: plates}
}

// IsBanned reports whether plate is in the list.
func (r *Registry) IsBanned(plate string) bool {
	if r == nil {
		return false
	}
	p := Normalize(plate)
	if p == "" {
		return false
	}
	_, ok := r.load().plates[p]
	return ok
}

// Clear drops all plates and the source reference.
func (r *Registry) Clear() {
	r.current.Store(emptySnapshot)
}

// Source returns the file the current list came from, if any.
func (r *Registry) Source() (Source, bool) {
	if r == nil {
		return Source{}, false
	}
	s := r.load()
	return s.source, s.hasSource
}

// Len returns the number of distinct plates.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.load().plates)
}
