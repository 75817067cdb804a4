package graphql

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error codes stored under the "code" extension of errors produced by the
// client itself. Errors returned by the server keep their own extensions.
const (
	ErrRequestError    = "request_error"
	ErrConnectionError = "connection_error"
	ErrStatusError     = "http_status_error"
	ErrServerError     = "server_error"
	ErrJsonEncode      = "json_encode_error"
	ErrJsonDecode      = "json_decode_error"
	ErrGraphQLDecode   = "graphql_decode_error"
)

// Errors represents the "errors" array in a response from a GraphQL server.
// If returned via error interface, the slice is expected to contain at least 1 element.
//
// Specification: https://spec.graphql.org/October2021/#sec-Errors
type Errors []Error

// Location is a position in the query document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type Error struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions"`
	Locations  []Location     `json:"locations"`
	Path       []any          `json:"path"`
}

// RequestInfo contains HTTP request information stored in error extensions.
type RequestInfo struct {
	Headers http.Header
	Body    string
}

// ResponseInfo contains HTTP response information stored in error extensions.
type ResponseInfo struct {
	Headers http.Header
	Body    string
}

// InternalExtensions contains internal debugging information stored in error
// extensions. This information is added when debug mode is enabled.
type InternalExtensions struct {
	Request  *RequestInfo
	Response *ResponseInfo
	Error    error
}

// Error implements error interface. Only the message is shown, with the
// first location appended when the server reported one.
func (e Error) Error() string {
	if len(e.Locations) == 0 {
		return e.Message
	}
	l := e.Locations[0]
	return fmt.Sprintf("%s (line %d, column %d)", e.Message, l.Line, l.Column)
}

// Error implements error interface.
func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes every error to errors.Is and errors.As.
func (e Errors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, err := range e {
		errs[i] = err
	}
	return errs
}

// GetCode returns the error code from the extensions, or an empty string if
// not present.
func (e Error) GetCode() string {
	if e.Extensions == nil {
		return ""
	}
	code, ok := e.Extensions["code"].(string)
	if !ok {
		return ""
	}
	return code
}

// GetInternalExtensions returns the typed internal extensions, or nil if not
// present.
func (e Error) GetInternalExtensions() *InternalExtensions {
	if e.Extensions == nil {
		return nil
	}

	internal, ok := e.Extensions["internal"].(map[string]any)
	if !ok {
		return nil
	}

	ext := &InternalExtensions{}

	if req, ok := internal["request"].(map[string]any); ok {
		ext.Request = &RequestInfo{}
		ext.Request.Headers, _ = req["headers"].(http.Header)
		ext.Request.Body, _ = req["body"].(string)
	}

	if resp, ok := internal["response"].(map[string]any); ok {
		ext.Response = &ResponseInfo{}
		ext.Response.Headers, _ = resp["headers"].(http.Header)
		ext.Response.Body, _ = resp["body"].(string)
	}

	if err, ok := internal["error"].(error); ok {
		ext.Error = err
	}

	return ext
}

func (e Error) getInternalExtension() map[string]any {
	if ex, ok := e.Extensions["internal"].(map[string]any); ok {
		return ex
	}
	return make(map[string]any)
}

// newError creates a new Error with the given code and underlying error.
func newError(code string, err error) Error {
	return Error{
		Message: err.Error(),
		Extensions: map[string]any{
			"code": code,
		},
	}
}

// newSimpleErrors creates an Errors slice with a single error, wrapping the
// given error with the specified code.
func newSimpleErrors(code string, err error) Errors {
	return Errors{newError(code, err)}
}

// withDebugInfo adds debug information to the error's internal extensions.
// It reads the body from bodyReader and stores it along with headers under the
// specified infoType key ("request" or "response").
func (e Error) withDebugInfo(
	infoType string,
	headers http.Header,
	bodyReader io.Reader,
) Error {
	internal := e.getInternalExtension()
	bodyBytes, err := io.ReadAll(bodyReader)
	if err != nil {
		internal["error"] = err
	} else {
		internal[infoType] = map[string]any{
			"headers": headers,
			"body":    string(bodyBytes),
		}
	}

	if e.Extensions == nil {
		e.Extensions = make(map[string]any)
	}
	e.Extensions["internal"] = internal
	return e
}

func (e Error) withRequest(req *http.Request, bodyReader io.Reader) Error {
	return e.withDebugInfo("request", req.Header, bodyReader)
}

func (e Error) withResponse(res *http.Response, bodyReader io.Reader) Error {
	return e.withDebugInfo("response", res.Header, bodyReader)
}
