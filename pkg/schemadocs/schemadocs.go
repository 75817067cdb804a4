// Package schemadocs generates the field reference tables of the schema
// documentation pages and splices them into existing MDX files.
package schemadocs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/hardcoverapp/hardcover-explorer/pkg/schema"
)

// Format is the output format of a fields table.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

var ErrNoFieldsTable = errors.New("no fields table found")

// Descriptions are hand-written field descriptions keyed by type name and
// then field name. They fill in fields the schema leaves undocumented.
type Descriptions map[string]map[string]string

// LoadDescriptions reads a descriptions JSON file. A missing file yields an
// empty set.
func LoadDescriptions(path string) (Descriptions, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Descriptions{}, nil
	}
	if err != nil {
		return nil, err
	}
	var d Descriptions
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return d, nil
}

func (d Descriptions) lookup(typeName, field string) string {
	return d[typeName][field]
}

// Documented reports whether a field belongs in the reference table:
// fields without arguments, plus json columns (which take a path argument).
func Documented(f schema.FieldDefinition) bool {
	return !f.HasArgs || strings.Contains(f.Type, "json")
}

// Heading returns the section heading for typeName, e.g. "## Books Fields".
func Heading(typeName string) string {
	r := []rune(typeName)
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return "## " + string(r) + " Fields"
}

// Table renders the reference table of typeName. The schema description
// wins over a hand-written one. An empty format means HTML.
func Table(typeName string, fields []schema.FieldDefinition, desc Descriptions, format Format) (string, error) {
	t := table.NewWriter()
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Field", "Type", "Description"})
	for _, f := range fields {
		if !Documented(f) {
			continue
		}
		d := f.Description
		if d == "" {
			d = desc.lookup(typeName, f.Name)
		}
		t.AppendRow(table.Row{f.Name, f.Type, d})
	}

	var body string
	switch format {
	case "", FormatHTML:
		t.Style().HTML.CSSClass = "schema-fields"
		body = t.RenderHTML()
	case FormatMarkdown:
		body = t.RenderMarkdown()
	default:
		return "", fmt.Errorf("unknown table format %q", format)
	}
	return Heading(typeName) + "\n\n" + body + "\n\n", nil
}

// TypeSummary counts the fields of one type.
type TypeSummary struct {
	Type          string `json:"type"`
	Total         int    `json:"total"`
	Simple        int    `json:"simple"`
	Relationships int    `json:"relationships"`
}

// Summary counts simple and relationship (argument-taking) fields per type.
func Summary(idx *schema.Index) []TypeSummary {
	out := make([]TypeSummary, 0, idx.Len())
	for _, name := range idx.QueryTypes() {
		s := TypeSummary{Type: name}
		for _, f := range idx.Fields(name) {
			s.Total++
			if f.HasArgs {
				s.Relationships++
			} else {
				s.Simple++
			}
		}
		out = append(out, s)
	}
	return out
}

var (
	tablePattern       = regexp.MustCompile(`(?s)<table[^>]*>.*?</table>`)
	fieldsTablePattern = regexp.MustCompile(`(?s)(#{1,3} Fields\s*)<table[^>]*>.*?</table>`)
	lastUpdatedPattern = regexp.MustCompile(`lastUpdated: \d{4}-\d{2}-\d{2}`)
)

// ExtractTable returns the first HTML table in s.
func ExtractTable(s string) (string, bool) {
	loc := tablePattern.FindStringIndex(s)
	if loc == nil {
		return "", false
	}
	return s[loc[0]:loc[1]], true
}

// UpdateDoc replaces the table under the first "Fields" heading of an MDX
// page. The lastUpdated front matter is set to today only when the table
// changed.
func UpdateDoc(content, htmlTable string, today time.Time) (string, bool, error) {
	m := fieldsTablePattern.FindStringSubmatchIndex(content)
	if m == nil {
		return content, false, ErrNoFieldsTable
	}
	heading := content[m[2]:m[3]]
	updated := content[:m[0]] + heading + htmlTable + content[m[1]:]
	if updated == content {
		return content, false, nil
	}
	updated = lastUpdatedPattern.ReplaceAllLiteralString(updated, "lastUpdated: "+today.Format("2006-01-02"))
	return updated, true, nil
}

// PageName returns the page file name for a type, e.g. "ReadingFormats.mdx"
// for reading_formats.
func PageName(typeName string) string {
	var b strings.Builder
	for _, part := range strings.Split(typeName, "_") {
		r := []rune(part)
		if len(r) == 0 {
			continue
		}
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String() + ".mdx"
}

// DocStatus is the outcome for one page.
type DocStatus string

const (
	DocUpdated   DocStatus = "updated"
	DocUnchanged DocStatus = "unchanged"
	DocSkipped   DocStatus = "skipped"
)

type DocResult struct {
	Type   string
	File   string
	Status DocStatus
	Reason string
}

// Updater rewrites the reference pages in Dir from an index.
type Updater struct {
	Dir          string
	Index        *schema.Index
	Descriptions Descriptions
	Logger       *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Run updates the page of each type. Types without fields or without a
// page are skipped; a page without a fields table is an error.
func (u *Updater) Run(typeNames []string) ([]DocResult, error) {
	logger := u.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}

	var (
		results []DocResult
		errs    []error
	)
	for _, name := range typeNames {
		path := filepath.Join(u.Dir, PageName(name))
		res := DocResult{Type: name, File: path, Status: DocSkipped}

		if !u.Index.Has(name) {
			res.Reason = "no generated table"
			logger.Info("no fields for type, skipping", "type", name)
			results = append(results, res)
			continue
		}
		content, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			res.Reason = "file not found"
			logger.Info("page not found, skipping", "type", name, "file", path)
			results = append(results, res)
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}

		generated, err := Table(name, u.Index.Fields(name), u.Descriptions, FormatHTML)
		if err != nil {
			return results, err
		}
		htmlTable, _ := ExtractTable(generated)

		updated, changed, err := UpdateDoc(string(content), htmlTable, now())
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
			continue
		}
		if !changed {
			res.Status = DocUnchanged
			logger.Debug("page unchanged", "type", name)
			results = append(results, res)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Status = DocUpdated
		logger.Info("page updated", "type", name)
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}
