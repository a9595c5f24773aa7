// Package vault holds the in-memory snapshot of a Markdown vault: its notes,
// their publish flags and the wikilink graph between them.
package vault

import (
	"fmt"

	"github.com/aidanlsb/vpub/internal/logger"
	"github.com/aidanlsb/vpub/internal/note"
	"github.com/aidanlsb/vpub/internal/resolver"
	"github.com/aidanlsb/vpub/internal/wikilink"
)

// Vault is an immutable snapshot of the notes under a root directory.
//
// Notes are identified by key: the vault-relative path without ".md". Links
// are stored resolved to keys where possible; targets that resolve to no
// note are kept verbatim and reported by Nonexistent.
type Vault struct {
	root      string
	keys      []string
	notes     map[string]*note.Note
	links     map[string][]string
	published map[string]bool

	nonexistent    []string
	nonexistentSet map[string]struct{}
	unparsed       map[string]bool
	resolver       *resolver.Resolver
}

// Failure records a note that could not be loaded.
type Failure struct {
	Path         string
	RelativePath string
	Err          error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.RelativePath, f.Err)
}

// LoadResult summarises a full-vault load.
type LoadResult struct {
	Files    int
	Failures []Failure
}

// Failed reports whether any note failed to load.
func (r *LoadResult) Failed() bool {
	return r != nil && len(r.Failures) > 0
}

// Load parses every note under root and builds the wikilink graph.
//
// Notes that fail to parse are listed in the LoadResult but still count as
// notes: they exist, are unpublished and have no known outbound links. Links
// to attachments (non-note files in the vault) are not part of the graph. The
// returned error is only set when the walk itself fails.
func Load(root string, log *logger.Logger) (*Vault, *LoadResult, error) {
	if log == nil {
		log = logger.Discard()
	}

	result := &LoadResult{}
	notes := make(map[string]*note.Note)
	var keys, unparsed []string

	err := WalkNotes(root, root, func(r WalkResult) error {
		result.Files++
		keys = append(keys, r.Key)
		if r.Error != nil {
			log.FileError(r.RelativePath, r.Error)
			result.Failures = append(result.Failures, Failure{
				Path:         r.Path,
				RelativePath: r.RelativePath,
				Err:          r.Error,
			})
			unparsed = append(unparsed, r.Key)
			return nil
		}
		notes[r.Key] = r.Note
		return nil
	})
	if err != nil {
		return nil, result, fmt.Errorf("walk vault %s: %w", root, err)
	}

	attachments, err := ListAttachments(root)
	if err != nil {
		return nil, result, fmt.Errorf("walk vault %s: %w", root, err)
	}
	for i, rel := range attachments {
		attachments[i] = resolver.Normalize(rel)
	}
	files := resolver.New(attachments)

	res := resolver.New(keys)
	links := make(map[string][]string, len(keys))
	var published []string
	for _, key := range keys {
		n, ok := notes[key]
		if !ok {
			continue
		}
		links[key] = resolveLinks(res, files, key, wikilink.Targets(n.Body, n.Name))
		if n.Published() {
			published = append(published, key)
		}
	}

	v := build(root, keys, links, published)
	v.notes = notes
	for _, key := range unparsed {
		v.unparsed[key] = true
	}
	for _, key := range keys {
		for _, target := range links[key] {
			if !v.Exists(target) {
				log.MissingTarget(target, key)
			}
		}
	}
	return v, result, nil
}

// NewFromGraph builds a Vault from an already-resolved graph, e.g. a cached
// snapshot. Link targets that are not in keys are treated as nonexistent.
func NewFromGraph(root string, keys []string, links map[string][]string, published []string) *Vault {
	copied := make(map[string][]string, len(links))
	for k, targets := range links {
		copied[k] = append([]string(nil), targets...)
	}
	return build(root, append([]string(nil), keys...), copied, published)
}

func build(root string, keys []string, links map[string][]string, published []string) *Vault {
	v := &Vault{
		root:           root,
		keys:           keys,
		links:          links,
		published:      make(map[string]bool, len(published)),
		nonexistentSet: make(map[string]struct{}),
		unparsed:       make(map[string]bool),
		resolver:       resolver.New(keys),
	}
	for _, key := range published {
		v.published[key] = true
	}
	for _, key := range keys {
		for _, target := range links[key] {
			if v.resolver.Exists(target) {
				continue
			}
			if _, seen := v.nonexistentSet[target]; seen {
				continue
			}
			v.nonexistentSet[target] = struct{}{}
			v.nonexistent = append(v.nonexistent, target)
		}
	}
	return v
}

// resolveLinks maps raw targets to note keys, dropping self links and
// collapsing targets that resolve to the same note. Targets that match no
// note but name an attachment are dropped.
func resolveLinks(res, files *resolver.Resolver, self string, targets []string) []string {
	seen := make(map[string]struct{}, len(targets))
	out := make([]string, 0, len(targets))
	for _, raw := range targets {
		target := resolver.Normalize(raw)
		if r, ok := res.Resolve(raw); ok {
			target = r.Key
		} else if _, ok := files.Resolve(raw); ok {
			continue
		}
		if target == "" || target == self {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// Root returns the vault root directory.
func (v *Vault) Root() string { return v.root }

// Keys returns all note keys in enumeration order.
func (v *Vault) Keys() []string {
	return append([]string(nil), v.keys...)
}

// Len returns the number of notes.
func (v *Vault) Len() int { return len(v.keys) }

// Note returns the parsed note for key. Vaults rebuilt from a snapshot carry
// no note contents, and neither do notes that failed to parse.
func (v *Vault) Note(key string) (*note.Note, bool) {
	n, ok := v.notes[key]
	return n, ok
}

// Links returns the distinct outbound link targets of key in body order.
func (v *Vault) Links(key string) []string {
	return v.links[key]
}

// LinkCount returns the number of edges in the graph.
func (v *Vault) LinkCount() int {
	total := 0
	for _, targets := range v.links {
		total += len(targets)
	}
	return total
}

// Exists reports whether key resolves to a note in the vault.
func (v *Vault) Exists(key string) bool {
	return v.resolver.Exists(key)
}

// IsPublished reports whether the note at key is marked for publication.
func (v *Vault) IsPublished(key string) bool {
	return v.published[key]
}

// Published returns the keys of published notes in enumeration order.
func (v *Vault) Published() []string {
	var out []string
	for _, key := range v.keys {
		if v.published[key] {
			out = append(out, key)
		}
	}
	return out
}

// Unparsed reports whether the note at key exists but could not be parsed.
func (v *Vault) Unparsed(key string) bool {
	return v.unparsed[key]
}

// Nonexistent returns link targets that resolve to no note, in discovery order.
func (v *Vault) Nonexistent() []string {
	return append([]string(nil), v.nonexistent...)
}

// Resolve resolves a note name or path to a key.
func (v *Vault) Resolve(ref string) (resolver.Result, bool) {
	return v.resolver.Resolve(ref)
}

// Collisions lists short names shared by several notes.
func (v *Vault) Collisions() []resolver.Collision {
	return v.resolver.FindCollisions()
}
