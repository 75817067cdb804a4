package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
)

// BookSchema is a small Hasura-shaped schema used across tests. It has
// relationship cycles (books -> contributions -> books) on purpose.
const BookSchema = `
schema {
	query: query_root
}

type query_root {
	books(limit: Int, offset: Int): [books!]!
	authors(limit: Int): [authors!]!
	me: [users!]!
}

"columns and relationships of \"books\""
type books {
	id: Int!
	title: String
	pages: Int
	rating: Float
	release_date: String
	cached_tags: String
	"An array relationship"
	contributions(limit: Int): [contributions!]!
	"An object relationship"
	default_edition: editions
}

type contributions {
	id: Int!
	author: authors
	book: books!
}

type authors {
	id: Int!
	name: String
	books_count: Int
	contributions: [contributions!]!
}

type editions {
	id: Int!
	isbn_13: String
	book: books!
}

type users {
	id: Int!
	username: String
}
`

// Book is a fixture row of the books table.
type Book struct {
	ID          int32
	Title       string
	Pages       int32
	Rating      float64
	ReleaseDate string
}

// Books are the rows served by NewBookSchema.
var Books = []Book{
	{ID: 1, Title: "The Hobbit", Pages: 310, Rating: 4.3, ReleaseDate: "1937-09-21"},
	{ID: 2, Title: "Dune", Pages: 412, Rating: 4.2, ReleaseDate: "1965-08-01"},
	{ID: 3, Title: "Piranesi", Pages: 272, Rating: 4.1, ReleaseDate: "2020-09-15"},
}

// ViewerID is the id returned by the me query.
const ViewerID = 42

// NewBookSchema parses BookSchema with fixture resolvers.
func NewBookSchema() *graphql.Schema {
	return graphql.MustParseSchema(BookSchema, &rootResolver{}, graphql.UseStringDescriptions())
}

// NewGraphQLServer starts an httptest server serving the book schema at
// "/". When token is non-empty, requests must carry "Bearer <token>".
func NewGraphQLServer(t testing.TB, token string) *httptest.Server {
	t.Helper()
	handler := &relay.Handler{Schema: NewBookSchema()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid token"}`))
			return
		}
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type rootResolver struct{}

func (r *rootResolver) Books(args struct {
	Limit  *int32
	Offset *int32
}) []*bookResolver {
	rows := Books
	if args.Offset != nil && int(*args.Offset) < len(rows) {
		rows = rows[*args.Offset:]
	} else if args.Offset != nil {
		rows = nil
	}
	if args.Limit != nil && int(*args.Limit) < len(rows) {
		rows = rows[:*args.Limit]
	}
	out := make([]*bookResolver, len(rows))
	for i := range rows {
		out[i] = &bookResolver{book: rows[i]}
	}
	return out
}

func (r *rootResolver) Authors(args struct{ Limit *int32 }) []*authorResolver {
	return []*authorResolver{{id: 1, name: "J. R. R. Tolkien"}}
}

func (r *rootResolver) Me() []*userResolver {
	return []*userResolver{{id: ViewerID, username: "reader"}}
}

type bookResolver struct {
	book Book
}

func (b *bookResolver) ID() int32            { return b.book.ID }
func (b *bookResolver) Title() *string       { return &b.book.Title }
func (b *bookResolver) Pages() *int32        { return &b.book.Pages }
func (b *bookResolver) Rating() *float64     { return &b.book.Rating }
func (b *bookResolver) ReleaseDate() *string { return &b.book.ReleaseDate }
func (b *bookResolver) CachedTags() *string  { return nil }

func (b *bookResolver) Contributions(args struct{ Limit *int32 }) []*contributionResolver {
	return []*contributionResolver{{id: b.book.ID * 10, book: b.book}}
}

func (b *bookResolver) DefaultEdition() *editionResolver {
	return &editionResolver{id: b.book.ID * 100, book: b.book}
}

type contributionResolver struct {
	id   int32
	book Book
}

func (c *contributionResolver) ID() int32 { return c.id }

func (c *contributionResolver) Author() *authorResolver {
	return &authorResolver{id: 1, name: "J. R. R. Tolkien"}
}

func (c *contributionResolver) Book() *bookResolver { return &bookResolver{book: c.book} }

type authorResolver struct {
	id   int32
	name string
}

func (a *authorResolver) ID() int32           { return a.id }
func (a *authorResolver) Name() *string       { return &a.name }
func (a *authorResolver) BooksCount() *int32  { n := int32(len(Books)); return &n }
func (a *authorResolver) Contributions() []*contributionResolver {
	return nil
}

type editionResolver struct {
	id   int32
	book Book
}

func (e *editionResolver) ID() int32 { return e.id }

func (e *editionResolver) Isbn13() *string {
	s := "9780000000000"
	return &s
}

func (e *editionResolver) Book() *bookResolver { return &bookResolver{book: e.book} }

type userResolver struct {
	id       int32
	username string
}

func (u *userResolver) ID() int32         { return u.id }
func (u *userResolver) Username() *string { return &u.username }
