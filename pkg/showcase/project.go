// Package showcase manages the community project gallery: YAML project
// files, their validation, the gallery's search and sort rules, and the
// GitHub star counts recorded in each file.
package showcase

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LinkType is the kind of a project link.
type LinkType string

const (
	LinkWebsite LinkType = "website"
	LinkGitHub  LinkType = "github"
	LinkStore   LinkType = "store"
	LinkDocs    LinkType = "docs"
	LinkDemo    LinkType = "demo"
)

var linkTypes = map[LinkType]bool{
	LinkWebsite: true,
	LinkGitHub:  true,
	LinkStore:   true,
	LinkDocs:    true,
	LinkDemo:    true,
}

type Author struct {
	Name      string `yaml:"name"`
	GitHub    string `yaml:"github,omitempty"`
	Hardcover string `yaml:"hardcover,omitempty"`
}

type Link struct {
	Label string   `yaml:"label"`
	URL   string   `yaml:"url"`
	Type  LinkType `yaml:"type"`
}

type Screenshot struct {
	Src string `yaml:"src"`
	Alt string `yaml:"alt"`
}

type Stats struct {
	GitHubStars *int `yaml:"githubStars,omitempty"`
}

// Project is one showcase entry.
type Project struct {
	Name        string       `yaml:"name"`
	Slug        string       `yaml:"slug"`
	Summary     string       `yaml:"summary"`
	Description string       `yaml:"description"`
	Author      Author       `yaml:"author"`
	Links       []Link       `yaml:"links"`
	Categories  []string     `yaml:"categories"`
	DateAdded   Date         `yaml:"dateAdded"`
	DateUpdated Date         `yaml:"dateUpdated"`
	Screenshots []Screenshot `yaml:"screenshots,omitempty"`
	Tags        []string     `yaml:"tags,omitempty"`
	Featured    bool         `yaml:"featured,omitempty"`
	Stats       *Stats       `yaml:"stats,omitempty"`

	// File is the path the project was loaded from.
	File string `yaml:"-"`
}

// Stars returns the recorded GitHub star count, or 0.
func (p Project) Stars() int {
	if p.Stats == nil || p.Stats.GitHubStars == nil {
		return 0
	}
	return *p.Stats.GitHubStars
}

// GitHubURL returns the URL of the first github link.
func (p Project) GitHubURL() (string, bool) {
	for _, l := range p.Links {
		if l.Type == LinkGitHub {
			return l.URL, true
		}
	}
	return "", false
}

// Date is a calendar date written as YYYY-MM-DD. Full timestamps are
// accepted on input.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: date must be a scalar", value.Line)
	}
	for _, layout := range []string{dateLayout, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value.Value); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("line %d: invalid date %q", value.Line, value.Value)
}

func (d Date) MarshalYAML() (any, error) {
	return d.Format(dateLayout), nil
}

// Decode reads one project document. Unknown keys are rejected.
func Decode(data []byte) (Project, error) {
	var p Project
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Project{}, err
	}
	return p, nil
}

// LoadFile reads and decodes a single project file.
func LoadFile(path string) (Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Project{}, err
	}
	p, err := Decode(data)
	if err != nil {
		return Project{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	p.File = path
	return p, nil
}

// Files lists the *.yaml files of dir in name order.
func Files(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// LoadDir loads every *.yaml file in dir. Files that fail to decode are
// reported together after the rest have been read.
func LoadDir(dir string) ([]Project, error) {
	files, err := Files(dir)
	if err != nil {
		return nil, err
	}

	projects := make([]Project, 0, len(files))
	var errs []error
	for _, f := range files {
		p, err := LoadFile(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		projects = append(projects, p)
	}
	return projects, errors.Join(errs...)
}

// Validate checks the required fields and link rules of the gallery
// collection. All problems are returned joined.
func (p Project) Validate() error {
	var errs []error
	required := func(field, v string) {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%s is required", field))
		}
	}

	required("name", p.Name)
	required("slug", p.Slug)
	required("summary", p.Summary)
	required("description", p.Description)
	required("author.name", p.Author.Name)

	if len(p.Categories) == 0 {
		errs = append(errs, errors.New("at least one category is required"))
	}
	if p.DateAdded.IsZero() {
		errs = append(errs, errors.New("dateAdded is required"))
	}
	if p.DateUpdated.IsZero() {
		errs = append(errs, errors.New("dateUpdated is required"))
	}

	for i, l := range p.Links {
		required(fmt.Sprintf("links[%d].label", i), l.Label)
		if !linkTypes[l.Type] {
			errs = append(errs, fmt.Errorf("links[%d].type %q is not one of website, github, store, docs, demo", i, l.Type))
		}
		if u, err := url.Parse(l.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("links[%d].url %q is not an absolute URL", i, l.URL))
		}
	}
	for i, s := range p.Screenshots {
		required(fmt.Sprintf("screenshots[%d].src", i), s.Src)
		required(fmt.Sprintf("screenshots[%d].alt", i), s.Alt)
	}

	if err := errors.Join(errs...); err != nil {
		name := p.Slug
		if p.File != "" {
			name = filepath.Base(p.File)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// ValidateAll validates every project and reports duplicate slugs.
func ValidateAll(projects []Project) error {
	var errs []error
	seen := map[string]string{}
	for _, p := range projects {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
		}
		if p.Slug == "" {
			continue
		}
		if prev, ok := seen[p.Slug]; ok {
			errs = append(errs, fmt.Errorf("duplicate slug %q in %s and %s", p.Slug, prev, filepath.Base(p.File)))
			continue
		}
		seen[p.Slug] = filepath.Base(p.File)
	}
	return errors.Join(errs...)
}
