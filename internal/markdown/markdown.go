// Package markdown converts notes to and from Markdown files with YAML
// frontmatter.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/notely/internal/models"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

const delim = "---"

// Frontmatter is the YAML header written by Render and read by Parse.
// Slug, created and updated are informational: slugs are unique across all
// users, so an imported note gets a fresh slug when it is published.
type Frontmatter struct {
	Title      string     `yaml:"title,omitempty"`
	Tags       []string   `yaml:"tags"`
	IsFavorite bool       `yaml:"favorite,omitempty"`
	IsPublic   bool       `yaml:"public,omitempty"`
	Slug       string     `yaml:"slug,omitempty"`
	CreatedAt  *time.Time `yaml:"created,omitempty"`
	UpdatedAt  *time.Time `yaml:"updated,omitempty"`
}

// Document is a parsed Markdown note.
type Document struct {
	Frontmatter
	Body string
}

// Parse splits data into frontmatter and body. When the frontmatter has a
// tags key it is the complete tag list; otherwise inline #tags are collected
// from the body. Without a frontmatter title the first H1 heading is used.
func Parse(data []byte) (*Document, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}
	doc := &Document{Frontmatter: fm, Body: body}
	if fm.Tags != nil {
		doc.Tags = mergeTags(fm.Tags, "")
	} else {
		doc.Tags = mergeTags(nil, body)
	}
	if strings.TrimSpace(doc.Title) == "" {
		doc.Title = firstHeading(body)
	}
	return doc, nil
}

// Insert returns the create payload for the document.
func (d *Document) Insert() models.NoteInsert {
	in := models.NoteInsert{Title: d.Title, Content: d.Body, Tags: d.Tags}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	return in
}

// Flags returns the patch carrying the document's favorite and public flags,
// or an empty patch when neither is set.
func (d *Document) Flags() models.NotePatch {
	var p models.NotePatch
	if d.IsFavorite {
		p.IsFavorite = models.Ptr(true)
	}
	if d.IsPublic {
		p.IsPublic = models.Ptr(true)
	}
	return p
}

// Render writes n as Markdown with a frontmatter header.
func Render(n *models.Note) ([]byte, error) {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	fm := Frontmatter{
		Title:      n.Title,
		Tags:       tags,
		IsFavorite: n.IsFavorite,
		IsPublic:   n.IsPublic,
		CreatedAt:  timePtr(n.CreatedAt),
		UpdatedAt:  timePtr(n.UpdatedAt),
	}
	if n.Slug != nil {
		fm.Slug = *n.Slug
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("markdown: encode frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	buf.Write(header)
	buf.WriteString(delim + "\n")
	buf.WriteString(n.Content)
	if n.Content != "" && !strings.HasSuffix(n.Content, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (Frontmatter, string, error) {
	var fm Frontmatter
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter; treat everything as body.
		return fm, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return Frontmatter{}, "", fmt.Errorf("markdown: invalid frontmatter: %w", err)
	}
	return fm, body, nil
}

func mergeTags(front []string, body string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range front {
		add(t)
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
