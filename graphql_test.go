package graphql_test

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	graphql "github.com/hardcoverapp/hardcover-explorer"
	"github.com/hardcoverapp/hardcover-explorer/internal/testutil"
)

func TestClient_Exec_bookSchema(t *testing.T) {
	srv := testutil.NewGraphQLServer(t, "secret")
	client := graphql.NewClient(srv.URL, nil).WithBearerToken("secret")

	var q struct {
		Books []struct {
			Title string `json:"title"`
			Pages int    `json:"pages"`
		} `json:"books"`
	}
	err := client.Exec(
		context.Background(),
		`query ($n: Int) { books(limit: $n) { title pages } }`,
		&q,
		map[string]any{"n": 2},
	)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := len(q.Books), 2; got != want {
		t.Fatalf("got len(q.Books): %v, want: %v", got, want)
	}
	if got, want := q.Books[1].Title, "Dune"; got != want {
		t.Errorf("got q.Books[1].Title: %q, want: %q", got, want)
	}
	if got, want := q.Books[0].Pages, 310; got != want {
		t.Errorf("got q.Books[0].Pages: %v, want: %v", got, want)
	}
}

func TestClient_ExecRaw_emptyVariables(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, req *http.Request) {
		body := mustRead(req.Body)
		if got, want := body, `{"query":"{books{title}}"}`+"\n"; got != want {
			t.Errorf("got body: %v, want %v", got, want)
		}
		w.Header().Set("Content-Type", "application/json")
		mustWrite(w, `{"data": {"books": [{"title": "Piranesi"}]}}`)
	})
	client := graphql.NewClient(
		"/graphql",
		&http.Client{Transport: localRoundTripper{handler: mux}},
	)

	raw, err := client.ExecRaw(context.Background(), "{books{title}}", map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(raw), `{"books": [{"title": "Piranesi"}]}`; got != want {
		t.Errorf("got raw: %v, want: %v", got, want)
	}
}

func TestClient_ExecRaw_partialDataWithErrorResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		mustWrite(w, `{
			"data": {
				"book1": {"id": 1},
				"book2": null
			},
			"errors": [
				{
					"message": "Could not find book with id 999",
					"path": ["book2"],
					"locations": [{"line": 3, "column": 4}]
				}
			]
		}`)
	})
	client := graphql.NewClient(
		"/graphql",
		&http.Client{Transport: localRoundTripper{handler: mux}},
	)

	raw, err := client.ExecRaw(context.Background(), "{book1: books_by_pk(id: 1){id} book2: books_by_pk(id: 999){id}}", nil)
	if err == nil {
		t.Fatal("got error: nil, want: non-nil")
	}
	if got, want := err.Error(), "Could not find book with id 999 (line 3, column 4)"; got != want {
		t.Errorf("got error: %v, want: %v", got, want)
	}

	var gqlErr graphql.Error
	if !errors.As(err, &gqlErr) {
		t.Fatalf("expected a graphql.Error in %v", err)
	}
	if got, want := gqlErr.Path, []any{"book2"}; len(got) != 1 || got[0] != want[0] {
		t.Errorf("got path: %v, want: %v", got, want)
	}

	var data struct {
		Book1 *struct{ ID int } `json:"book1"`
		Book2 *struct{ ID int } `json:"book2"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatal(err)
	}
	if data.Book1 == nil || data.Book1.ID != 1 {
		t.Errorf("got book1: %+v, want id 1", data.Book1)
	}
	if data.Book2 != nil {
		t.Errorf("got book2: %+v, want: nil", data.Book2)
	}
}

func TestClient_Exec_errorStatusCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "important message", http.StatusInternalServerError)
	})
	client := graphql.NewClient(
		"/graphql",
		&http.Client{Transport: localRoundTripper{handler: mux}},
	)

	var q struct{}
	err := client.Exec(context.Background(), "{books{id}}", &q, nil)
	if err == nil {
		t.Fatal("got error: nil, want: non-nil")
	}
	if got, want := err.Error(), `500 Internal Server Error; body: "important message\n"`; got != want {
		t.Errorf("got error: %v, want: %v", got, want)
	}

	var errs graphql.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected graphql.Errors, got %T", err)
	}
	if got, want := errs[0].GetCode(), graphql.ErrStatusError; got != want {
		t.Errorf("got code: %v, want: %v", got, want)
	}
	if got, want := errs[0].Extensions["status"], http.StatusInternalServerError; got != want {
		t.Errorf("got status: %v, want: %v", got, want)
	}
}

func TestClient_Exec_decodeFailure(t *testing.T) {
	srv := testutil.NewGraphQLServer(t, "")
	client := graphql.NewClient(srv.URL, nil)

	var q struct {
		Books string `json:"books"`
	}
	err := client.Exec(context.Background(), "{books{title}}", &q, nil)

	var errs graphql.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected graphql.Errors, got %v", err)
	}
	if got, want := errs[0].GetCode(), graphql.ErrGraphQLDecode; got != want {
		t.Errorf("got code: %v, want: %v", got, want)
	}
}

func TestClient_ExecRaw_serverErrorMember(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		mustWrite(w, `{"error": "Malformed Authorization header", "code": "invalid-headers"}`)
	})
	client := graphql.NewClient(
		"/graphql",
		&http.Client{Transport: localRoundTripper{handler: mux}},
	)

	_, err := client.ExecRaw(context.Background(), "{books{id}}", nil)
	var errs graphql.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected graphql.Errors, got %v", err)
	}
	if got, want := errs[0].Message, "Malformed Authorization header"; got != want {
		t.Errorf("got message: %v, want: %v", got, want)
	}
	if got, want := errs[0].GetCode(), graphql.ErrServerError; got != want {
		t.Errorf("got code: %v, want: %v", got, want)
	}
}

func TestClient_ExecRaw_gzip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer func() { _ = gz.Close() }()
		mustWrite(gz, `{"data":{"books":[{"id":3}]}}`)
	})
	client := graphql.NewClient(
		"/graphql",
		&http.Client{Transport: localRoundTripper{handler: mux}},
	)

	raw, err := client.ExecRaw(context.Background(), "{books{id}}", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(raw), `{"books":[{"id":3}]}`; got != want {
		t.Errorf("got raw: %v, want: %v", got, want)
	}
}

func TestClient_debugDecoration(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		mustWrite(w, `{"errors":[{"message":"field \"nope\" not found in type: 'books'"}]}`)
	})
	base := graphql.NewClient(
		"/graphql",
		&http.Client{Transport: localRoundTripper{handler: mux}},
	)

	t.Run("debug enabled", func(t *testing.T) {
		_, err := base.WithDebug(true).ExecRaw(context.Background(), "{books{nope}}", nil)
		var errs graphql.Errors
		if !errors.As(err, &errs) {
			t.Fatalf("expected graphql.Errors, got %v", err)
		}
		ext := errs[0].GetInternalExtensions()
		if ext == nil {
			t.Fatal("expected internal extensions in debug mode")
		}
		if ext.Request == nil || !strings.Contains(ext.Request.Body, `{books{nope}}`) {
			t.Errorf("got request info: %+v, want the query body", ext.Request)
		}
		if ext.Response == nil || !strings.Contains(ext.Response.Body, "not found") {
			t.Errorf("got response info: %+v, want the response body", ext.Response)
		}
	})

	t.Run("debug disabled", func(t *testing.T) {
		_, err := base.ExecRaw(context.Background(), "{books{nope}}", nil)
		var errs graphql.Errors
		if !errors.As(err, &errs) {
			t.Fatalf("expected graphql.Errors, got %v", err)
		}
		if ext := errs[0].GetInternalExtensions(); ext != nil {
			t.Errorf("expected no internal extensions, got %+v", ext)
		}
	})
}

func TestClient_DecorateError(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "http://example.com", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp := &http.Response{
		StatusCode: 200,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}

	t.Run("debug mode enabled with request and response", func(t *testing.T) {
		client := graphql.NewClient("http://example.com", nil).WithDebug(true)
		decorated := client.NewRequestError(
			graphql.ErrRequestError,
			errors.New("server error"),
			req,
			resp,
			strings.NewReader(`{"query":"{test}"}`),
			strings.NewReader(`{"data":null}`),
		)

		if decorated.Message != "server error" {
			t.Errorf("expected message 'server error', got %q", decorated.Message)
		}
		ext := decorated.GetInternalExtensions()
		if ext == nil || ext.Request == nil || ext.Response == nil {
			t.Fatalf("expected request and response info, got %+v", ext)
		}
		if got, want := ext.Response.Body, `{"data":null}`; got != want {
			t.Errorf("got response body: %q, want: %q", got, want)
		}
	})

	t.Run("debug mode disabled", func(t *testing.T) {
		client := graphql.NewClient("http://example.com", nil)
		decorated := client.DecorateError(
			graphql.Error{Message: "test error", Extensions: map[string]any{"code": graphql.ErrRequestError}},
			req,
			resp,
			strings.NewReader(`{"query":"{test}"}`),
			strings.NewReader(`{"data":null}`),
		)
		if decorated.GetInternalExtensions() != nil {
			t.Error("expected no internal extensions in non-debug mode")
		}
		if got := decorated.GetCode(); got != graphql.ErrRequestError {
			t.Errorf("expected code to be preserved, got %q", got)
		}
	})
}

func TestClient_BuildRequest(t *testing.T) {
	t.Run("builds request with query and variables", func(t *testing.T) {
		client := graphql.NewClient("http://example.com/graphql", nil)
		query := "{books{title}}"

		req, reqBody, err := client.BuildRequest(context.Background(), query, map[string]any{"limit": 5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Method != http.MethodPost {
			t.Errorf("expected method POST, got %s", req.Method)
		}
		if contentType := req.Header.Get("Content-Type"); contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}
		if auth := req.Header.Get("Authorization"); auth != "" {
			t.Errorf("expected no Authorization header, got %q", auth)
		}

		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables,omitempty"`
		}
		if err := json.Unmarshal(reqBody, &body); err != nil {
			t.Fatalf("failed to unmarshal request body: %v", err)
		}
		if body.Query != query {
			t.Errorf("expected query %q, got %q", query, body.Query)
		}
		if body.Variables["limit"] != float64(5) {
			t.Errorf("expected variables[limit]=5, got %v", body.Variables["limit"])
		}
	})

	t.Run("bearer token", func(t *testing.T) {
		tests := []struct {
			token string
			want  string
		}{
			{"abc123", "Bearer abc123"},
			{"Bearer abc123", "Bearer abc123"},
			{"  abc123\n", "Bearer abc123"},
			{"", ""},
		}
		for _, tt := range tests {
			client := graphql.NewClient("http://example.com/graphql", nil).WithBearerToken(tt.token)
			req, _, err := client.BuildRequest(context.Background(), "{me{id}}", nil)
			if err != nil {
				t.Fatal(err)
			}
			if got := req.Header.Get("Authorization"); got != tt.want {
				t.Errorf("token %q: got Authorization: %q, want: %q", tt.token, got, tt.want)
			}
		}
	})

	t.Run("request modifier runs last", func(t *testing.T) {
		client := graphql.NewClient("http://example.com/graphql", nil).
			WithBearerToken("abc").
			WithRequestModifier(func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer override")
			})

		req, _, err := client.BuildRequest(context.Background(), "{me{id}}", nil)
		if err != nil {
			t.Fatal(err)
		}
		if auth := req.Header.Get("Authorization"); auth != "Bearer override" {
			t.Errorf("expected Authorization header 'Bearer override', got %q", auth)
		}
	})
}

// TestClient_ImmutablePattern tests that With* methods return new Client
// instances without modifying the original.
func TestClient_ImmutablePattern(t *testing.T) {
	original := graphql.NewClient("http://example.com/graphql", nil)
	ctx := context.Background()

	modified := original.
		WithDebug(true).
		WithBearerToken("abc").
		WithRequestModifier(func(r *http.Request) {
			r.Header.Set("X-Chain", "test")
		})
	if modified == original {
		t.Fatal("chained client should be a new instance")
	}

	req, _, err := modified.BuildRequest(ctx, "{test}", nil)
	if err != nil {
		t.Fatal(err)
	}
	if req.Header.Get("X-Chain") != "test" || req.Header.Get("Authorization") != "Bearer abc" {
		t.Errorf("chained client lost its configuration: %v", req.Header)
	}

	req, _, err = original.BuildRequest(ctx, "{test}", nil)
	if err != nil {
		t.Fatal(err)
	}
	if req.Header.Get("X-Chain") != "" || req.Header.Get("Authorization") != "" {
		t.Errorf("original client was modified: %v", req.Header)
	}

	if got, want := modified.URL(), original.URL(); got != want {
		t.Errorf("got URL: %v, want: %v", got, want)
	}
}

func TestClient_ExecuteRequest(t *testing.T) {
	t.Run("connection failure", func(t *testing.T) {
		client := graphql.NewClient(
			"/graphql",
			&http.Client{Transport: failingRoundTripper{err: errors.New("dial tcp: connection refused")}},
		)
		req, err := http.NewRequest(http.MethodPost, "/graphql", strings.NewReader("{}"))
		if err != nil {
			t.Fatal(err)
		}

		_, _, execErr := client.ExecuteRequest(req)
		var e graphql.Error
		if !errors.As(execErr, &e) {
			t.Fatalf("expected graphql.Error, got %v", execErr)
		}
		if got, want := e.GetCode(), graphql.ErrConnectionError; got != want {
			t.Errorf("got code: %v, want: %v", got, want)
		}
	})

	t.Run("gzip body", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/graphql", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			defer func() { _ = gz.Close() }()
			mustWrite(gz, `{"data":{}}`)
		})
		client := graphql.NewClient(
			"/graphql",
			&http.Client{Transport: localRoundTripper{handler: mux}},
		)
		req, err := http.NewRequest(http.MethodPost, "/graphql", strings.NewReader("{}"))
		if err != nil {
			t.Fatal(err)
		}

		resp, r, err := client.ExecuteRequest(req)
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = resp.Body.Close() }()
		defer func() { _ = r.Close() }()
		if got, want := mustRead(r), `{"data":{}}`; got != want {
			t.Errorf("got body: %v, want: %v", got, want)
		}
	})
}

func TestClient_DecodeResponse(t *testing.T) {
	client := graphql.NewClient("http://example.com/graphql", nil)

	tests := []struct {
		name     string
		body     string
		wantData string
		wantMsg  string
		wantCode string
	}{
		{name: "data", body: `{"data":{"me":[{"id":1}]}}`, wantData: `{"me":[{"id":1}]}`},
		{name: "null data", body: `{"data":null}`},
		{name: "errors only", body: `{"errors":[{"message":"field not found"}]}`, wantMsg: "field not found"},
		{name: "partial", body: `{"data":{"a":1},"errors":[{"message":"b failed"}]}`, wantData: `{"a":1}`, wantMsg: "b failed"},
		{name: "error object", body: `{"error":{"reason":"nope"}}`, wantMsg: `{"reason":"nope"}`, wantCode: graphql.ErrServerError},
		{name: "invalid json", body: `{invalid json}`, wantCode: graphql.ErrJsonDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, errs := client.DecodeResponse(strings.NewReader(tt.body))
			if got := string(data); got != tt.wantData {
				t.Errorf("got data: %q, want: %q", got, tt.wantData)
			}
			if tt.wantMsg == "" && tt.wantCode == "" {
				if errs != nil {
					t.Errorf("unexpected errors: %v", errs)
				}
				return
			}
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %d", len(errs))
			}
			if tt.wantMsg != "" && errs[0].Message != tt.wantMsg {
				t.Errorf("got message: %q, want: %q", errs[0].Message, tt.wantMsg)
			}
			if got := errs[0].GetCode(); got != tt.wantCode {
				t.Errorf("got code: %q, want: %q", got, tt.wantCode)
			}
		})
	}
}

func TestErrors_Error(t *testing.T) {
	errs := graphql.Errors{
		{Message: "first"},
		{Message: "second", Locations: []graphql.Location{{Line: 2, Column: 7}}},
	}
	if got, want := errs.Error(), "first; second (line 2, column 7)"; got != want {
		t.Errorf("got: %v, want: %v", got, want)
	}
}

func TestError_GetCode(t *testing.T) {
	tests := []struct {
		name       string
		extensions map[string]any
		want       string
	}{
		{"present", map[string]any{"code": graphql.ErrRequestError}, graphql.ErrRequestError},
		{"nil extensions", nil, ""},
		{"missing", map[string]any{"other": "value"}, ""},
		{"wrong type", map[string]any{"code": 123}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := graphql.Error{Message: "test error", Extensions: tt.extensions}
			if got := err.GetCode(); got != tt.want {
				t.Errorf("expected code %q, got %q", tt.want, got)
			}
		})
	}
}

// localRoundTripper is an http.RoundTripper that executes HTTP transactions
// by using handler directly, instead of going over an HTTP connection.
type localRoundTripper struct {
	handler http.Handler
}

func (l localRoundTripper) RoundTrip(
	req *http.Request,
) (*http.Response, error) {
	w := httptest.NewRecorder()
	l.handler.ServeHTTP(w, req)
	return w.Result(), nil
}

type failingRoundTripper struct {
	err error
}

func (f failingRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, f.err
}

func mustRead(r io.Reader) string {
	b, err := io.ReadAll(r)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func mustWrite(w io.Writer, s string) {
	_, err := io.WriteString(w, s)
	if err != nil {
		panic(err)
	}
}
