// Package graphql is a small client for the Hardcover GraphQL API. It posts
// hand-written or generated query documents and returns the raw or decoded
// "data" object, with the explorer's read-only guards available through
// Run.
package graphql

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hardcoverapp/hardcover-explorer/types"
)

// This function allows you to tweak the HTTP request. It might be useful to set authentication
// headers  amongst other things
type RequestModifier func(*http.Request)

// Client is a GraphQL client.
//
// The Client's With* methods follow an immutable pattern: they return a new
// Client instance rather than modifying the receiver, so a configured client
// can be shared between goroutines. Always use the returned Client:
//
//	client = client.WithBearerToken(token)  // Correct
//	client.WithBearerToken(token)            // Wrong - original client unchanged
type Client struct {
	url             string // GraphQL server URL.
	httpClient      *http.Client
	requestModifier RequestModifier
	debug           bool
	token           string // full Authorization header value
	logger          *slog.Logger
}

// NewClient creates a GraphQL client targeting the specified GraphQL server URL.
// If httpClient is nil, then http.DefaultClient is used.
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		url:        url,
		httpClient: httpClient,
		logger:     slog.New(slog.DiscardHandler),
	}
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string {
	return c.url
}

// clone creates a copy of the Client with all fields preserved.
func (c *Client) clone() *Client {
	clone := *c
	return &clone
}

// WithRequestModifier returns a new Client with the request modifier set.
// The modifier runs after the client has set its own headers.
func (c *Client) WithRequestModifier(f RequestModifier) *Client {
	clone := c.clone()
	clone.requestModifier = f
	return clone
}

// WithDebug returns a new Client with debug mode enabled or disabled.
// When enabled, debug mode adds detailed request/response information to
// error extensions.
func (c *Client) WithDebug(debug bool) *Client {
	clone := c.clone()
	clone.debug = debug
	return clone
}

// WithBearerToken returns a new Client sending token in the Authorization
// header. "Bearer " is prepended unless the token already starts with it.
// Surrounding whitespace is dropped.
func (c *Client) WithBearerToken(token string) *Client {
	clone := c.clone()
	clone.token = authorization(token)
	return clone
}

// WithLogger returns a new Client logging requests to logger at debug
// level. A nil logger discards.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	clone := c.clone()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clone.logger = logger
	return clone
}

func authorization(token string) string {
	token = strings.TrimSpace(token)
	if token == "" || strings.HasPrefix(token, strings.TrimSpace(types.BearerPrefix)) {
		return token
	}
	return types.BearerPrefix + token
}

// Exec executes a query document and unmarshals the "data" object into v
// with encoding/json. Partial data is decoded even when the server also
// reported errors; the errors are returned as Errors.
func (c *Client) Exec(
	ctx context.Context,
	query string,
	v any,
	variables map[string]any,
) error {
	data, resp, respBuf, errs := c.request(ctx, query, variables)
	if len(data) > 0 && v != nil {
		if err := json.Unmarshal(data, v); err != nil {
			we := c.DecorateError(
				newError(ErrGraphQLDecode, err),
				nil,
				resp,
				nil,
				respBuf,
			)
			errs = append(errs, we)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ExecRaw executes a query document and returns the raw "data" object.
// The data is returned alongside any GraphQL errors.
func (c *Client) ExecRaw(
	ctx context.Context,
	query string,
	variables map[string]any,
) ([]byte, error) {
	data, _, _, errs := c.request(ctx, query, variables)
	if len(errs) > 0 {
		return data, errs
	}
	return data, nil
}

// handleGzipResponse wraps the response body reader with a gzip decompressor
// if the Content-Encoding header indicates gzip compression.
func handleGzipResponse(
	resp *http.Response,
	bodyReader io.Reader,
) (io.ReadCloser, error) {
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gr, err := gzip.NewReader(bodyReader)
		if err != nil {
			return nil, fmt.Errorf("problem trying to create gzip reader: %w", err)
		}
		return gr, nil
	}
	return io.NopCloser(bodyReader), nil
}

func (c *Client) request(
	ctx context.Context,
	query string,
	variables map[string]any,
) ([]byte, *http.Response, io.Reader, Errors) {
	request, reqBody, err := c.BuildRequest(ctx, query, variables)
	if err != nil {
		code := ErrRequestError
		if reqBody == nil {
			code = ErrJsonEncode
		}
		e := newError(code, fmt.Errorf("problem constructing request: %w", err))
		return nil, nil, nil, Errors{e}
	}

	start := time.Now()
	c.logger.Debug("graphql request", "url", c.url, "bytes", len(reqBody))

	resp, r, err := c.ExecuteRequest(request)
	if err != nil {
		var e Error
		if !errors.As(err, &e) {
			e = newError(ErrRequestError, err)
		}
		c.logger.Debug("graphql request failed", "code", e.GetCode(), "error", e.Message)
		return nil, resp, nil, Errors{c.DecorateError(e, request, nil, bytes.NewReader(reqBody), nil)}
	}
	defer func() { _ = resp.Body.Close() }()
	defer func() { _ = r.Close() }()

	// Keep a copy of the body for error decoration.
	body, err := io.ReadAll(r)
	if err != nil {
		e := c.NewRequestError(ErrJsonDecode, err, request, resp, bytes.NewReader(reqBody), nil)
		return nil, resp, nil, Errors{e}
	}
	c.logger.Debug("graphql response",
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start))

	rawData, gqlErrors := c.DecodeResponse(bytes.NewReader(body))
	if len(gqlErrors) == 0 {
		return rawData, resp, bytes.NewReader(body), nil
	}

	if gqlErrors[0].GetCode() == ErrJsonDecode {
		we := c.NewRequestError(
			ErrJsonDecode,
			errors.New(gqlErrors[0].Message),
			request,
			resp,
			bytes.NewReader(reqBody),
			bytes.NewReader(body),
		)
		return nil, resp, nil, Errors{we}
	}

	if c.debug && gqlErrors[0].GetInternalExtensions() == nil {
		gqlErrors[0] = c.DecorateError(
			gqlErrors[0],
			request,
			resp,
			bytes.NewReader(reqBody),
			bytes.NewReader(body),
		)
	}
	return rawData, resp, bytes.NewReader(body), gqlErrors
}

// BuildRequest constructs an HTTP request with JSON body for a GraphQL operation.
// It returns the HTTP request and the request body bytes (useful for error decoration).
func (c *Client) BuildRequest(
	ctx context.Context,
	query string,
	variables map[string]any,
) (*http.Request, []byte, error) {
	// Normalize empty variable maps to nil
	if len(variables) == 0 {
		variables = nil
	}
	in := struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables,omitempty"`
	}{
		Query:     query,
		Variables: variables,
	}
	var buf bytes.Buffer
	err := json.NewEncoder(&buf).Encode(in)
	if err != nil {
		return nil, nil, err
	}

	reqBody := buf.Bytes()
	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.url,
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return nil, reqBody, err
	}
	request.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		request.Header.Set("Authorization", c.token)
	}

	if c.requestModifier != nil {
		c.requestModifier(request)
	}

	return request, reqBody, nil
}

// ExecuteRequest executes an HTTP request and handles gzip decompression.
// On success the caller closes both the returned reader and resp.Body.
// Failures are Error values coded ErrConnectionError when the server could
// not be reached and ErrStatusError for a non-200 response; the latter
// carries the status under the "status" extension.
func (c *Client) ExecuteRequest(req *http.Request) (*http.Response, io.ReadCloser, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, newError(ErrConnectionError, err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		e := newError(ErrStatusError, fmt.Errorf("%v; body: %q", resp.Status, body))
		e.Extensions["status"] = resp.StatusCode
		return resp, nil, e
	}

	r, err := handleGzipResponse(resp, resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, nil, newError(ErrJsonDecode, err)
	}
	return resp, r, nil
}

// DecodeResponse decodes a GraphQL JSON response into raw data and errors.
// A top-level "error" member, as sent by Hasura for rejected requests, is
// returned as a single error coded ErrServerError.
func (c *Client) DecodeResponse(reader io.Reader) ([]byte, Errors) {
	var out struct {
		Data   json.RawMessage `json:"data"`
		Errors Errors          `json:"errors"`
		Error  json.RawMessage `json:"error"`
	}

	err := json.NewDecoder(reader).Decode(&out)
	if err != nil {
		return nil, newSimpleErrors(ErrJsonDecode, err)
	}

	var rawData []byte
	if len(out.Data) > 0 && string(out.Data) != "null" {
		rawData = out.Data
	}

	if len(out.Errors) > 0 {
		return rawData, out.Errors
	}

	if len(out.Error) > 0 && string(out.Error) != "null" {
		var msg string
		if json.Unmarshal(out.Error, &msg) != nil {
			msg = string(out.Error)
		}
		return rawData, newSimpleErrors(ErrServerError, errors.New(msg))
	}

	return rawData, nil
}

// DecorateError decorates an error with request/response information if debug
// mode is enabled.
func (c *Client) DecorateError(
	err Error,
	req *http.Request,
	resp *http.Response,
	reqBody,
	respBody io.Reader,
) Error {
	if !c.debug {
		return err
	}

	if req != nil && reqBody != nil {
		err = err.withRequest(req, reqBody)
	}

	if resp != nil && respBody != nil {
		err = err.withResponse(resp, respBody)
	}

	return err
}

// NewRequestError creates a new error with the given code and decorates it with
// request/response information if debug mode is enabled.
func (c *Client) NewRequestError(
	code string,
	err error,
	req *http.Request,
	resp *http.Response,
	reqBody,
	respBody io.Reader,
) Error {
	e := newError(code, err)
	return c.DecorateError(e, req, resp, reqBody, respBody)
}
