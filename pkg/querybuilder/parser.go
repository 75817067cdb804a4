package querybuilder

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hardcoverapp/hardcover-explorer/types"
)

var (
	errRootNotFound   = errors.New("root field not found")
	errUnterminated   = errors.New("unterminated selection set")
	fieldNamePattern  = regexp.MustCompile(`^(\w+)`)
	limitPattern      = regexp.MustCompile(`\blimit:\s*(\d+)`)
	offsetPattern     = regexp.MustCompile(`\boffset:\s*(\d+)`)
	orderByPattern    = regexp.MustCompile(`\border_by:\s*\{([^}]+)\}`)
	orderFieldPattern = regexp.MustCompile(`(\w+):\s*(\w+)`)
	operationKeyword  = regexp.MustCompile(`\b(?:query|mutation|subscription)\s*$`)
)

// rootMatch returns the submatch indexes of the first match of pattern that
// is not an operation name ("query books { books { ... } }").
func rootMatch(pattern *regexp.Regexp, query string) []int {
	for _, loc := range pattern.FindAllStringSubmatchIndex(query, -1) {
		if !operationKeyword.MatchString(query[:loc[0]]) {
			return loc
		}
	}
	return nil
}

// ParseQueryFields returns the top-level field names selected under
// rootType in query. It is best-effort: malformed input yields nil.
func ParseQueryFields(query, rootType string) []string {
	names, _ := parseQueryFields(query, rootType)
	return names
}

// ParseQueryArguments extracts limit, offset and a single-field order_by
// from the argument list of rootType. where clauses are not parsed.
// Malformed input yields an empty result.
func ParseQueryArguments(query, rootType string) QueryArgs {
	args, _ := parseQueryArguments(query, rootType)
	return args
}

func parseQueryFields(query, rootType string) ([]string, error) {
	start := regexp.MustCompile(`(?s)\b` + regexp.QuoteMeta(rootType) + `(?:\s*\([^)]*\))?\s*\{`)
	loc := rootMatch(start, query)
	if loc == nil {
		return nil, errRootNotFound
	}

	body, ok := selectionBody(query[loc[1]:])
	if !ok {
		return nil, errUnterminated
	}

	var names []string
	depth := 0
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if depth == 0 && !strings.HasPrefix(trimmed, "}") {
			if m := fieldNamePattern.FindStringSubmatch(trimmed); m != nil {
				names = append(names, m[1])
			}
		}
		depth += strings.Count(trimmed, "{") - strings.Count(trimmed, "}")
	}
	return names, nil
}

// selectionBody returns the text up to the brace closing an already opened
// selection set.
func selectionBody(s string) (string, bool) {
	depth := 1
	for i, c := range s {
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i], true
			}
		}
	}
	return "", false
}

func parseQueryArguments(query, rootType string) (QueryArgs, error) {
	invocation := regexp.MustCompile(`(?s)\b` + regexp.QuoteMeta(rootType) + `\s*\(([^)]+)\)`)
	loc := rootMatch(invocation, query)
	if loc == nil {
		return QueryArgs{}, nil
	}
	raw := query[loc[2]:loc[3]]

	args := QueryArgs{}
	for _, p := range []struct {
		key     string
		pattern *regexp.Regexp
	}{
		{"limit", limitPattern},
		{"offset", offsetPattern},
	} {
		sub := p.pattern.FindStringSubmatch(raw)
		if sub == nil {
			continue
		}
		n, err := strconv.Atoi(sub[1])
		if err != nil {
			return QueryArgs{}, fmt.Errorf("parse %s: %w", p.key, err)
		}
		args = args.Set(p.key, n)
	}

	if sub := orderByPattern.FindStringSubmatch(raw); sub != nil {
		if f := orderFieldPattern.FindStringSubmatch(strings.TrimSpace(sub[1])); f != nil {
			args = args.Set("order_by", OrderBy(f[1], f[2]))
		}
	}
	return args, nil
}

// Rehydrate rebuilds builder state from an existing query: the default tree
// for rootType with only the fields named in query selected, and the parsed
// arguments with limit defaulting to types.DefaultLimit. An empty query
// yields the default tree and DefaultArgs.
func (b *Builder) Rehydrate(query, rootType string) ([]SelectedField, QueryArgs) {
	tree := b.DefaultTree(rootType)
	if strings.TrimSpace(query) == "" {
		return tree, DefaultArgs()
	}

	names, err := parseQueryFields(query, rootType)
	if err != nil {
		b.logger().Debug("could not parse query fields", "root", rootType, "error", err)
	}
	args, err := parseQueryArguments(query, rootType)
	if err != nil {
		b.logger().Debug("could not parse query arguments", "root", rootType, "error", err)
	}

	limit, ok := args.Get("limit")
	if !ok || limit == 0 {
		limit = types.DefaultLimit
	}
	merged := QueryArgs{{Key: "limit", Value: limit}}
	for _, m := range args {
		merged = merged.Set(m.Key, m.Value)
	}
	return SelectFieldsByNames(tree, names), merged
}
