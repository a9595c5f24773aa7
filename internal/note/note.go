// Package note loads and saves individual Markdown notes with YAML frontmatter.
package note

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aidanlsb/vpub/internal/atomicfile"
)

// Delimiter opens and closes a frontmatter block. It must be the whole line.
const Delimiter = "---"

// PublishKey is the frontmatter key that marks a note for publication.
const PublishKey = "publish"

// ErrNoURL is returned when a note has no url* key in its frontmatter.
var ErrNoURL = errors.New("no URL in frontmatter")

// urlKeyPattern matches frontmatter keys that hold URLs: "url", "url2", "url_archive", ...
var urlKeyPattern = regexp.MustCompile(`^url`)

// ParseError is returned when a note's frontmatter block is not valid YAML.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("frontmatter parse error in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Note is a Markdown file split into frontmatter and body.
//
// A nil Frontmatter means the file has no frontmatter block at all; a
// non-nil empty Frontmatter means the block exists but holds no keys.
type Note struct {
	Path        string
	Name        string
	Frontmatter *Frontmatter
	Body        string
}

// Parse reads and parses the note at path.
func Parse(path string) (*Note, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseContent(path, string(content))
}

// ParseContent parses note content that was read from path.
func ParseContent(path, content string) (*Note, error) {
	n := &Note{Path: path, Name: nameFromPath(path)}

	if content == "" {
		n.Frontmatter = NewFrontmatter()
		return n, nil
	}

	raw, body, ok := splitFrontmatter(content)
	if !ok {
		n.Body = content
		return n, nil
	}

	fm, err := decodeFrontmatter(raw)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	n.Frontmatter = fm
	n.Body = body
	return n, nil
}

// splitFrontmatter returns the YAML text between the opening and closing
// delimiter lines and every byte after the closing line. ok is false when the
// first line is not a delimiter or the block is never closed.
func splitFrontmatter(content string) (raw, body string, ok bool) {
	first, rest, found := strings.Cut(content, "\n")
	if !found || !isDelimiter(first) {
		return "", "", false
	}

	offset := 0
	for offset <= len(rest) {
		line := rest[offset:]
		next := len(rest)
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
			next = offset + i + 1
		}
		if isDelimiter(line) {
			raw = rest[:offset]
			if next <= len(rest) {
				body = rest[next:]
			}
			return raw, body, true
		}
		if next >= len(rest) {
			break
		}
		offset = next
	}
	return "", "", false
}

func isDelimiter(line string) bool {
	return strings.TrimSuffix(line, "\r") == Delimiter
}

// Render serializes the note back to file content.
func (n *Note) Render() (string, error) {
	if n.Frontmatter == nil {
		return n.Body, nil
	}
	yamlText, err := encodeFrontmatter(n.Frontmatter)
	if err != nil {
		return "", fmt.Errorf("encode frontmatter for %s: %w", n.Path, err)
	}

	var b strings.Builder
	b.WriteString(Delimiter + "\n")
	b.WriteString(yamlText)
	b.WriteString(Delimiter + "\n")
	b.WriteString(n.Body)
	return b.String(), nil
}

// Save writes the note to path, or back to n.Path if path is empty.
func (n *Note) Save(path string) error {
	if path == "" {
		path = n.Path
	}
	if path == "" {
		return fmt.Errorf("note %q has no path to save to", n.Name)
	}
	content, err := n.Render()
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(path, []byte(content), 0)
}

// Published reports whether the frontmatter holds publish: "true".
//
// The comparison is on the YAML string "true". An unquoted YAML boolean does
// not mark a note as published.
func (n *Note) Published() bool {
	v, ok := n.Frontmatter.GetString(PublishKey)
	return ok && v == "true"
}

// SetPublished sets the publish flag, creating the frontmatter block if the
// note has none. The value is stored as a string so a saved note keeps the
// Published invariant.
func (n *Note) SetPublished(publish bool) {
	if n.Frontmatter == nil {
		n.Frontmatter = NewFrontmatter()
	}
	if publish {
		n.Frontmatter.Set(PublishKey, "true")
		return
	}
	n.Frontmatter.Set(PublishKey, "false")
}

// URLs returns the values of all url* frontmatter keys in mapping order.
func (n *Note) URLs() []string {
	var urls []string
	for _, key := range n.Frontmatter.Keys() {
		if !urlKeyPattern.MatchString(key) {
			continue
		}
		v, _ := n.Frontmatter.Get(key)
		if s, ok := v.(string); ok {
			urls = append(urls, s)
			continue
		}
		urls = append(urls, fmt.Sprint(v))
	}
	return urls
}

// HasURL reports whether the note has at least one url* key.
func (n *Note) HasURL() bool {
	return len(n.URLs()) > 0
}

// FirstURL returns the first url* value, or ErrNoURL.
func (n *Note) FirstURL() (string, error) {
	urls := n.URLs()
	if len(urls) == 0 {
		return "", fmt.Errorf("%s: %w", n.Path, ErrNoURL)
	}
	return urls[0], nil
}

func (n *Note) String() string {
	return n.Path
}

func nameFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
