package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hardcoverapp/hardcover-explorer/pkg/jsonutil"
)

// Errors returned by Run and Viewer. They are checked with errors.Is.
var (
	ErrEmptyToken         = errors.New("no authorization token set")
	ErrMutationNotAllowed = errors.New("mutations cannot be run from the explorer")
	ErrEmptyQuery         = errors.New("query is empty")
	ErrRunFailed          = errors.New("error running query")
	ErrConnection         = errors.New("unable to connect to the API")
	ErrInvalidToken       = errors.New("invalid authorization token")
)

// UserIDToken is replaced by the viewer's id in ReplaceQueryTokens.
const UserIDToken = "##USER_ID##"

const viewerQuery = `query {
  me {
    id
  }
}`

// Result is the outcome of a successful Run.
type Result struct {
	// Data is the decoded "data" object in server order.
	Data jsonutil.Object
	// Raw is the undecoded "data" object.
	Raw []byte
}

// IsMutation reports whether query mentions the mutation keyword anywhere.
// Field names containing "mutation" match too.
func IsMutation(query string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(query)), "mutation")
}

// Run executes a read-only query with the client's bearer token.
//
// The guards are checked in order: a missing token, a mutation, then an
// empty query. Server failures are reduced to a single error: the first
// GraphQL error message, a top-level "error" message, ErrRunFailed for a
// non-200 status or undecodable body, and ErrConnection when the server
// could not be reached.
func (c *Client) Run(ctx context.Context, query string) (*Result, error) {
	if c.token == "" {
		return nil, ErrEmptyToken
	}
	if IsMutation(query) {
		return nil, ErrMutationNotAllowed
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	raw, _, _, errs := c.request(ctx, query, nil)
	if len(errs) > 0 {
		return nil, runError(errs[0])
	}

	res := &Result{Raw: raw, Data: jsonutil.Object{}}
	if len(raw) > 0 {
		data, err := jsonutil.UnmarshalObject(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRunFailed, err)
		}
		res.Data = data
	}
	return res, nil
}

func runError(e Error) error {
	switch e.GetCode() {
	case ErrConnectionError:
		return fmt.Errorf("%w: %w", ErrConnection, e)
	case ErrStatusError, ErrJsonDecode, ErrJsonEncode, ErrRequestError:
		return fmt.Errorf("%w: %w", ErrRunFailed, e)
	}
	if e.Message == "" {
		return ErrRunFailed
	}
	return e
}

// Viewer validates the client's token by asking for the current user and
// returns the user's id.
func (c *Client) Viewer(ctx context.Context) (int64, error) {
	res, err := c.Run(ctx, viewerQuery)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var out struct {
		Me []struct {
			ID json.Number `json:"id"`
		} `json:"me"`
	}
	if err := json.Unmarshal(res.Raw, &out); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if len(out.Me) == 0 {
		return 0, ErrInvalidToken
	}
	id, err := out.Me[0].ID.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: user id %q", ErrInvalidToken, out.Me[0].ID)
	}
	return id, nil
}

// ReplaceQueryTokens substitutes every ##USER_ID## in query with userID.
// A zero id leaves the query unchanged.
func ReplaceQueryTokens(query string, userID int64) string {
	if userID == 0 {
		return query
	}
	return strings.ReplaceAll(query, UserIDToken, strconv.FormatInt(userID, 10))
}
