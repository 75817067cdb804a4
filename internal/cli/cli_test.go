package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	graphql "github.com/hardcoverapp/hardcover-explorer"
	"github.com/hardcoverapp/hardcover-explorer/internal/config"
	"github.com/hardcoverapp/hardcover-explorer/internal/preferences"
	"github.com/hardcoverapp/hardcover-explorer/internal/testutil"
)

// isolate runs the test in an empty directory with no HARDCOVER_ or
// GITHUB_TOKEN variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix) || name == "GITHUB_TOKEN" {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(""))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// setupSchema isolates the test and extracts the book schema into the
// default schema fields file.
func setupSchema(t *testing.T) string {
	t.Helper()
	dir := isolate(t)
	writeFile(t, dir, "books.graphql", testutil.BookSchema)
	out, err := execute(t, "schema", "extract", "--from", "books.graphql", "--all")
	require.NoError(t, err)
	require.Contains(t, out, "to "+config.DefaultSchemaFields)
	return dir
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "hardcover v"+Version+" ("+GitCommit+")\n", out)
}

func TestInvalidConfig(t *testing.T) {
	isolate(t)
	_, err := execute(t, "version", "--endpoint", "not a url")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestMissingSchemaFields(t *testing.T) {
	isolate(t)
	_, err := execute(t, "types")
	assert.ErrorContains(t, err, "hardcover schema extract")
}

func TestTypes(t *testing.T) {
	setupSchema(t)

	out, err := execute(t, "types")
	require.NoError(t, err)
	names := strings.Fields(out)
	assert.Contains(t, names, "books")
	assert.Contains(t, names, "authors")

	out, err = execute(t, "types", "--counts", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "type,total,simple,relationships")
	assert.Contains(t, out, "books,8,7,1")
}

func TestBuild(t *testing.T) {
	setupSchema(t)

	t.Run("fields", func(t *testing.T) {
		out, err := execute(t, "build", "books", "--fields", "title,pages", "--max-depth", "1")
		require.NoError(t, err)
		assert.Equal(t, "query {\n  books(limit: 10) {\n    title\n    pages\n  }\n}\n", out)
	})

	t.Run("limit and args", func(t *testing.T) {
		out, err := execute(t, "build", "books", "--fields", "title", "--limit", "3",
			"--args", `{"order_by":{"title":"asc"}}`)
		require.NoError(t, err)
		assert.Contains(t, out, "books(limit: 3, order_by: {title: asc})")
	})

	t.Run("toggle", func(t *testing.T) {
		out, err := execute(t, "build", "books")
		require.NoError(t, err)
		assert.Contains(t, out, "contributions {")
		assert.NotContains(t, out, "cached_tags")

		// contributions starts unselected, so one toggle selects its whole
		// subtree, excluded cache columns included.
		out, err = execute(t, "build", "books", "--toggle", "contributions")
		require.NoError(t, err)
		assert.Contains(t, out, "\n    contributions {\n      id\n      author {\n        id\n        name\n")
		assert.Contains(t, out, "cached_tags")
		assert.Contains(t, out, "\n    default_edition {")

		// The second toggle clears the subtree rather than restoring the
		// default mix of selected and unselected fields.
		out, err = execute(t, "build", "books", "--toggle", "contributions", "--toggle", "contributions")
		require.NoError(t, err)
		assert.NotContains(t, out, "\n    contributions {")
		assert.NotContains(t, out, "cached_tags")
		assert.Contains(t, out, "\n    default_edition {")
	})

	t.Run("from file", func(t *testing.T) {
		writeFile(t, ".", "query.graphql", "query {\n  books(limit: 20) {\n    id\n    title\n  }\n}")
		out, err := execute(t, "build", "books", "--from", "query.graphql", "--limit", "5", "--max-depth", "1")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "query {\n  books(limit: 5) {\n    id\n    title\n"), out)
		assert.NotContains(t, out, "pages")
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := execute(t, "build", "shelves")
		assert.ErrorContains(t, err, `unknown type "shelves"`)
	})
}

func TestParse(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, "query.graphql", "query {\n  books(limit: 5, offset: 10) {\n    title\n    contributions { id }\n    pages\n  }\n}")

	out, err := execute(t, "parse", "books", "query.graphql")
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":["title","contributions","pages"],"arguments":{"limit":5,"offset":10}}`, out)

	out, err = execute(t, "parse", "authors", "query.graphql")
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":[],"arguments":{}}`, out)
}

func TestGraph(t *testing.T) {
	setupSchema(t)

	out, err := execute(t, "graph", "books")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "digraph"), out)
	assert.Contains(t, out, "contributions")

	out, err = execute(t, "graph", "books", "--format", "json", "--scalars")
	require.NoError(t, err)
	var elements []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &elements))
	assert.NotEmpty(t, elements)
	assert.Contains(t, out, `"title"`)

	_, err = execute(t, "graph", "books", "--format", "svg")
	assert.ErrorContains(t, err, "unknown graph format")
}

func TestRun(t *testing.T) {
	isolate(t)
	srv := testutil.NewGraphQLServer(t, "secret")
	conn := []string{"--endpoint", srv.URL, "--token", "secret"}

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, append([]string{"run", "--view", "json", "-q", "query { books(limit: 1) { title } }"}, conn...)...)
		require.NoError(t, err)
		assert.JSONEq(t, `{"books":[{"title":"The Hobbit"}]}`, out)
	})

	t.Run("table", func(t *testing.T) {
		writeFile(t, ".", "books.graphql", "query { books { title pages } }")
		out, err := execute(t, append([]string{"run", "books.graphql", "--view", "table", "--format", "csv"}, conn...)...)
		require.NoError(t, err)
		assert.Contains(t, out, "title,pages")
		assert.Contains(t, out, "Dune,412")
	})

	t.Run("user id token", func(t *testing.T) {
		q := "query { books(limit: " + graphql.UserIDToken + ") { id } }"
		out, err := execute(t, append([]string{"run", "-o", "json", "-q", q}, conn...)...)
		require.NoError(t, err)
		assert.JSONEq(t, `{"books":[{"id":1},{"id":2},{"id":3}]}`, out)

		out, err = execute(t, "prefs", "get", preferences.UserID)
		require.NoError(t, err)
		assert.Equal(t, "42\n", out)
	})

	t.Run("mutation", func(t *testing.T) {
		_, err := execute(t, append([]string{"run", "-q", "mutation { delete_books { id } }"}, conn...)...)
		assert.ErrorIs(t, err, graphql.ErrMutationNotAllowed)
	})

	t.Run("no token", func(t *testing.T) {
		_, err := execute(t, "run", "--endpoint", srv.URL, "-q", "query { books { id } }")
		assert.ErrorIs(t, err, graphql.ErrEmptyToken)
	})

	t.Run("wrong token", func(t *testing.T) {
		_, err := execute(t, "run", "--endpoint", srv.URL, "--token", "nope", "-q", "query { books { id } }")
		assert.Error(t, err)
	})
}

func TestPrefs(t *testing.T) {
	isolate(t)

	out, err := execute(t, "prefs", "get", preferences.Theme)
	require.NoError(t, err)
	assert.Equal(t, "auto\n", out)

	_, err = execute(t, "prefs", "set", preferences.Theme, "dark")
	require.NoError(t, err)
	out, err = execute(t, "prefs", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "dark")
	assert.Contains(t, out, config.DefaultPreferences)

	_, err = execute(t, "prefs", "set", preferences.Theme, "purple")
	assert.Error(t, err)

	_, err = execute(t, "prefs", "get", "colour")
	assert.ErrorIs(t, err, preferences.ErrUnknownKey)

	_, err = execute(t, "prefs", "reset", preferences.Theme)
	require.NoError(t, err)
	out, err = execute(t, "prefs", "get", preferences.Theme)
	require.NoError(t, err)
	assert.Equal(t, "auto\n", out)
}

const shelfSync = `name: "Shelf Sync"
slug: "shelf-sync"
summary: "Sync your shelves"
description: "Keeps Hardcover shelves in sync with a local library."
author:
  name: "Ada"
links:
  - label: "Source"
    url: "https://github.com/ada/shelf-sync"
    type: "github"
categories:
  - "tools"
dateAdded: 2024-03-01
dateUpdated: 2024-05-10
`

func TestShowcase(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, "hardcover.yaml", "showcase_dir: showcase\n")
	writeFile(t, dir, "showcase/shelf-sync.yaml", shelfSync)

	out, err := execute(t, "showcase", "validate")
	require.NoError(t, err)
	assert.Equal(t, "1 projects valid\n", out)

	out, err = execute(t, "showcase", "list", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Shelf Sync,shelf-sync,Ada,tools,0,,2024-03-01")

	out, err = execute(t, "showcase", "list", "--search", "goodreads", "--format", "csv")
	require.NoError(t, err)
	assert.NotContains(t, out, "shelf-sync")

	out, err = execute(t, "showcase", "list", "--categories")
	require.NoError(t, err)
	assert.Equal(t, "tools\n", out)

	_, err = execute(t, "showcase", "list", "--sort", "random")
	assert.ErrorContains(t, err, "unknown sort order")

	writeFile(t, dir, "showcase/broken.yaml", "name: \"\"\nslug: broken\n")
	_, err = execute(t, "showcase", "validate")
	assert.ErrorContains(t, err, "broken.yaml")
}

const booksPage = `---
title: Books
lastUpdated: 2020-01-01
---

## Fields

<table>
    <tr><td>old</td></tr>
</table>
`

func TestSchemaDocs(t *testing.T) {
	dir := setupSchema(t)

	out, err := execute(t, "schema", "tables", "books", "--out", "-", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "## Books Fields")
	assert.Contains(t, out, "| title")

	_, err = execute(t, "schema", "tables", "--out", "tables")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "tables", "books.md"))
	assert.FileExists(t, filepath.Join(dir, "tables", "authors.md"))

	writeFile(t, dir, "hardcover.yaml", "docs_dir: docs\n")
	writeFile(t, dir, "docs/Books.mdx", booksPage)

	out, err = execute(t, "schema", "update-docs", "books", "users")
	require.NoError(t, err)
	assert.Equal(t, "updated   books\nskipped   users (file not found)\n", out)

	data, err := os.ReadFile(filepath.Join(dir, "docs", "Books.mdx"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "lastUpdated: 2020-01-01")
	assert.Contains(t, string(data), "release_date")

	out, err = execute(t, "schema", "update-docs", "books")
	require.NoError(t, err)
	assert.Equal(t, "unchanged books\n", out)
}

func TestSchemaSDL(t *testing.T) {
	dir := isolate(t)
	srv := testutil.NewGraphQLServer(t, "secret")

	out, err := execute(t, "schema", "sdl", "--endpoint", srv.URL, "--token", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "type books")

	_, err = execute(t, "schema", "extract", "--endpoint", srv.URL, "--token", "secret",
		"--types", "books,editions", "--save-introspection", "introspection.json")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "introspection.json"))

	out, err = execute(t, "types")
	require.NoError(t, err)
	assert.Equal(t, "books\neditions\n", out)
}
