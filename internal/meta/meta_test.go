package meta

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aidanlsb/vpub/internal/note"
)

func mustParse(t *testing.T, content string) *note.Note {
	t.Helper()
	n, err := note.ParseContent("/vault/references/Paper.md", content)
	if err != nil {
		t.Fatalf("ParseContent: %v", err)
	}
	return n
}

func fixedID() string { return "fixed-id" }

func TestAssignIDs(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantChanged   bool
		wantID        interface{}
		wantPermalink interface{}
	}{
		{
			name:          "no frontmatter gets generated ids",
			content:       "body\n",
			wantChanged:   true,
			wantID:        "fixed-id",
			wantPermalink: "fixed-id",
		},
		{
			name:          "empty frontmatter gets generated ids",
			content:       "---\n---\nbody\n",
			wantChanged:   true,
			wantID:        "fixed-id",
			wantPermalink: "fixed-id",
		},
		{
			name:          "id only copies to permalink",
			content:       "---\nid: abc\n---\n",
			wantChanged:   true,
			wantID:        "abc",
			wantPermalink: "abc",
		},
		{
			name:          "permalink only copies to id",
			content:       "---\npermalink: xyz\n---\n",
			wantChanged:   true,
			wantID:        "xyz",
			wantPermalink: "xyz",
		},
		{
			name:          "both present are left alone",
			content:       "---\nid: a\npermalink: b\n---\n",
			wantChanged:   false,
			wantID:        "a",
			wantPermalink: "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := mustParse(t, tt.content)
			changed := AssignIDs(n, fixedID)
			if changed != tt.wantChanged {
				t.Fatalf("changed=%v, want %v", changed, tt.wantChanged)
			}
			id, _ := n.Frontmatter.Get(KeyID)
			permalink, _ := n.Frontmatter.Get(KeyPermalink)
			if id != tt.wantID || permalink != tt.wantPermalink {
				t.Fatalf("id=%v permalink=%v, want %v/%v", id, permalink, tt.wantID, tt.wantPermalink)
			}
		})
	}
}

func TestAssignIDsIsIdempotent(t *testing.T) {
	n := mustParse(t, "---\ntitle: Paper\npublish: \"true\"\n---\nbody\n")

	if !AssignIDs(n, nil) {
		t.Fatalf("first AssignIDs should change the note")
	}
	first, err := n.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	reparsed := mustParse(t, first)
	if AssignIDs(reparsed, nil) {
		t.Fatalf("second AssignIDs should be a no-op")
	}
	second, err := reparsed.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second pass changed the note (-first +second):\n%s", diff)
	}
	if !reparsed.Published() {
		t.Fatalf("publish flag should be untouched")
	}
	if diff := cmp.Diff([]string{"title", "publish", "id", "permalink"}, reparsed.Frontmatter.Keys()); diff != "" {
		t.Fatalf("keys (-want +got):\n%s", diff)
	}
}

func TestNewIDIsUUID(t *testing.T) {
	id := NewID()
	if len(id) != 36 || strings.Count(id, "-") != 4 {
		t.Fatalf("NewID()=%q is not a UUID string", id)
	}
	if NewID() == id {
		t.Fatalf("NewID should not repeat")
	}
}

func TestExtractURL(t *testing.T) {
	t.Run("prepends marker with page title", func(t *testing.T) {
		n := mustParse(t, "---\npage-title: A Paper\nurl: https://example.com/a\nurl2: https://example.com/b\n---\nNotes\n")
		changed, err := ExtractURL(n)
		if err != nil || !changed {
			t.Fatalf("ExtractURL changed=%v err=%v", changed, err)
		}
		want := "#vpub/url_extraction [A Paper](https://example.com/a)\nNotes\n"
		if diff := cmp.Diff(want, n.Body); diff != "" {
			t.Fatalf("body (-want +got):\n%s", diff)
		}
	})

	t.Run("falls back to note name", func(t *testing.T) {
		n := mustParse(t, "---\nurl_source: https://example.com\n---\n")
		if _, err := ExtractURL(n); err != nil {
			t.Fatalf("ExtractURL: %v", err)
		}
		if !strings.HasPrefix(n.Body, "#vpub/url_extraction [Paper](https://example.com)\n") {
			t.Fatalf("unexpected body %q", n.Body)
		}
	})

	t.Run("second run is skipped", func(t *testing.T) {
		n := mustParse(t, "---\nurl: https://example.com\n---\nbody\n")
		if _, err := ExtractURL(n); err != nil {
			t.Fatalf("first ExtractURL: %v", err)
		}
		before := n.Body
		changed, err := ExtractURL(n)
		if err != nil || changed {
			t.Fatalf("second ExtractURL changed=%v err=%v", changed, err)
		}
		if n.Body != before {
			t.Fatalf("body changed on second run")
		}
	})

	t.Run("missing url", func(t *testing.T) {
		n := mustParse(t, "---\ntitle: x\n---\nbody\n")
		changed, err := ExtractURL(n)
		if !errors.Is(err, note.ErrNoURL) || changed {
			t.Fatalf("expected ErrNoURL, got changed=%v err=%v", changed, err)
		}
		if n.Body != "body\n" {
			t.Fatalf("body should be untouched, got %q", n.Body)
		}
	})
}

func TestValidateReference(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "valid", content: "---\npage-title: T\nurl: https://x\nextra: 1\n---\n"},
		{name: "empty url value still counts", content: "---\npage-title: T\nurl:\n---\n"},
		{name: "no frontmatter", content: "body", wantErr: "no frontmatter"},
		{name: "empty frontmatter", content: "---\n---\n", wantErr: "no frontmatter"},
		{name: "missing url", content: "---\npage-title: T\n---\n", wantErr: "url"},
		{name: "missing title", content: "---\nurl: https://x\n---\n", wantErr: "page-title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReference(mustParse(t, tt.content))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %v should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateIdentity(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "matching", content: "---\nid: a\npermalink: a\n---\n"},
		{name: "mismatch", content: "---\nid: a\npermalink: b\n---\n", wantErr: "do not match"},
		{name: "type mismatch", content: "---\nid: 5\npermalink: \"5\"\n---\n", wantErr: "do not match"},
		{name: "missing permalink", content: "---\nid: a\n---\n", wantErr: "permalink"},
		{name: "missing id", content: "---\npermalink: a\n---\n", wantErr: "id"},
		{name: "no frontmatter", content: "body", wantErr: "no frontmatter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentity(mustParse(t, tt.content))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %v should mention %q", err, tt.wantErr)
			}
		})
	}
}
