// Package resolver maps wikilink targets and CLI arguments to note keys.
package resolver

import (
	"path"
	"sort"
	"strings"

	"github.com/aidanlsb/vpub/internal/slugs"
)

// Resolver resolves link targets against a fixed set of note keys.
//
// A note key is the vault-relative path of the note without ".md", using '/'
// separators (e.g. "logs/2024-01-11 Retro").
type Resolver struct {
	keys      map[string]struct{}
	lowerKeys map[string][]string
	shortMap  map[string][]string // short name -> keys
	lowerMap  map[string][]string // lowercased short name -> keys
	slugMap   map[string][]string // slugified key and short name -> keys
}

// Result is the outcome of resolving one target.
type Result struct {
	// Key is the resolved note key (empty if unresolved).
	Key string

	// Ambiguous is true when several notes matched and Key was picked by
	// preferring the shortest path.
	Ambiguous bool

	// Matches lists every candidate when Ambiguous is true.
	Matches []string
}

// New creates a Resolver for the given note keys.
func New(keys []string) *Resolver {
	r := &Resolver{
		keys:      make(map[string]struct{}, len(keys)),
		lowerKeys: make(map[string][]string),
		shortMap:  make(map[string][]string),
		lowerMap:  make(map[string][]string),
		slugMap:   make(map[string][]string),
	}
	for _, key := range keys {
		r.keys[key] = struct{}{}
		r.lowerKeys[strings.ToLower(key)] = append(r.lowerKeys[strings.ToLower(key)], key)

		short := ShortName(key)
		r.shortMap[short] = append(r.shortMap[short], key)
		r.lowerMap[strings.ToLower(short)] = append(r.lowerMap[strings.ToLower(short)], key)

		r.slugMap[slugs.Path(key)] = appendUnique(r.slugMap[slugs.Path(key)], key)
		r.slugMap[slugs.Component(short)] = appendUnique(r.slugMap[slugs.Component(short)], key)
	}
	return r
}

// Resolve resolves a raw link target (or user-supplied note name) to a key.
func (r *Resolver) Resolve(ref string) (Result, bool) {
	ref = Normalize(ref)
	if ref == "" {
		return Result{}, false
	}

	if _, ok := r.keys[ref]; ok {
		return Result{Key: ref}, true
	}

	if strings.Contains(ref, "/") {
		if res, ok := pick(r.lowerKeys[strings.ToLower(ref)]); ok {
			return res, true
		}
		// Partial paths match on suffix: "sub/Note" finds "a/sub/Note".
		var suffix []string
		lower := "/" + strings.ToLower(ref)
		for key := range r.keys {
			if strings.HasSuffix(strings.ToLower(key), lower) {
				suffix = append(suffix, key)
			}
		}
		if res, ok := pick(suffix); ok {
			return res, true
		}
		return pick(r.slugMap[slugs.Path(ref)])
	}

	if res, ok := pick(r.shortMap[ref]); ok {
		return res, true
	}
	if res, ok := pick(r.lowerMap[strings.ToLower(ref)]); ok {
		return res, true
	}
	return pick(r.slugMap[slugs.Component(ref)])
}

// Exists reports whether key is a known note key.
func (r *Resolver) Exists(key string) bool {
	_, ok := r.keys[key]
	return ok
}

// Collision is a short name shared by several notes.
type Collision struct {
	ShortName string
	Keys      []string
}

// FindCollisions returns short names shared by more than one note, sorted by
// short name.
func (r *Resolver) FindCollisions() []Collision {
	var out []Collision
	for short, keys := range r.shortMap {
		if len(keys) < 2 {
			continue
		}
		sorted := append([]string(nil), keys...)
		sort.Strings(sorted)
		out = append(out, Collision{ShortName: short, Keys: sorted})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShortName < out[j].ShortName })
	return out
}

// ShortName returns the last path component of a key.
func ShortName(key string) string {
	return path.Base(key)
}

// Normalize cleans a raw reference: trims spaces, converts '\' to '/',
// drops leading "./" or "/" and a trailing ".md".
func Normalize(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.ReplaceAll(ref, `\`, "/")
	ref = strings.TrimPrefix(ref, "./")
	ref = strings.TrimPrefix(ref, "/")
	ref = strings.TrimSuffix(ref, ".md")
	return ref
}

// pick chooses among candidate keys, preferring the shortest path and then
// the lexically smallest one.
func pick(candidates []string) (Result, bool) {
	switch len(candidates) {
	case 0:
		return Result{}, false
	case 1:
		return Result{Key: candidates[0]}, true
	}
	sorted := append([]string(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool {
		di, dj := strings.Count(sorted[i], "/"), strings.Count(sorted[j], "/")
		if di != dj {
			return di < dj
		}
		return sorted[i] < sorted[j]
	})
	return Result{Key: sorted[0], Ambiguous: true, Matches: sorted}, true
}

func appendUnique(list []string, key string) []string {
	for _, k := range list {
		if k == key {
			return list
		}
	}
	return append(list, key)
}
