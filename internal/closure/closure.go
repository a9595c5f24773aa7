// Package closure finds notes that published notes reach through wikilinks
// but that are not themselves published.
package closure

// Graph is the read-only view of a vault the checker walks.
type Graph interface {
	// Links returns the distinct outbound link targets of key.
	Links(key string) []string
	// Exists reports whether key resolves to a note.
	Exists(key string) bool
}

// Entry lists the unpublished notes reachable from one published root.
type Entry struct {
	Root string `json:"root"`

	// Missing holds unpublished notes in depth-first discovery order.
	Missing []string `json:"missing"`

	// Nonexistent holds link targets reached from Root that have no note.
	Nonexistent []string `json:"nonexistent,omitempty"`
}

// Report is the result of a closure check over every published note.
type Report struct {
	// Entries has one entry per root with at least one missing note, in the
	// order the roots were given.
	Entries []Entry `json:"entries"`

	// Nonexistent aggregates every unresolved target across all roots,
	// deduplicated in discovery order.
	Nonexistent []string `json:"nonexistent"`
}

// Clean reports whether no published note reaches an unpublished one.
func (r Report) Clean() bool {
	return len(r.Entries) == 0
}

// MissingCount returns the total number of missing entries across roots.
func (r Report) MissingCount() int {
	n := 0
	for _, e := range r.Entries {
		n += len(e.Missing)
	}
	return n
}

type frame struct {
	links []string
	next  int
}

// Check walks the unpublished subgraph reachable from each published root.
//
// Traversal from a root stops at visited notes, published notes and targets
// that do not exist. Unpublished notes are appended to the root's Missing list
// the first time they are reached and then walked in turn. Nonexistent targets
// never appear in Missing.
func Check(g Graph, published []string) Report {
	isPublished := make(map[string]bool, len(published))
	for _, key := range published {
		isPublished[key] = true
	}

	report := Report{Entries: []Entry{}, Nonexistent: []string{}}
	seenNonexistent := make(map[string]struct{})

	for _, root := range published {
		entry := checkRoot(g, root, isPublished)
		for _, target := range entry.Nonexistent {
			if _, ok := seenNonexistent[target]; ok {
				continue
			}
			seenNonexistent[target] = struct{}{}
			report.Nonexistent = append(report.Nonexistent, target)
		}
		if len(entry.Missing) > 0 {
			report.Entries = append(report.Entries, entry)
		}
	}
	return report
}

func checkRoot(g Graph, root string, isPublished map[string]bool) Entry {
	entry := Entry{Root: root}
	visited := map[string]struct{}{root: {}}

	if !g.Exists(root) {
		entry.Nonexistent = append(entry.Nonexistent, root)
		return entry
	}

	stack := []frame{{links: g.Links(root)}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.links) {
			stack = stack[:len(stack)-1]
			continue
		}
		target := top.links[top.next]
		top.next++

		if target == "" {
			continue
		}
		if _, ok := visited[target]; ok {
			continue
		}
		if !g.Exists(target) {
			visited[target] = struct{}{}
			entry.Nonexistent = append(entry.Nonexistent, target)
			continue
		}
		if isPublished[target] {
			continue
		}

		visited[target] = struct{}{}
		entry.Missing = append(entry.Missing, target)
		stack = append(stack, frame{links: g.Links(target)})
	}
	return entry
}
