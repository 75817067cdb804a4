package types

// GraphQL and API constants used throughout the codebase.
// Centralizing these prevents typos and makes refactoring safer.
const (
	// DefaultEndpoint is the public Hardcover GraphQL endpoint.
	DefaultEndpoint = "https://api.hardcover.app/v1/graphql"

	// BearerPrefix is prepended to API tokens that do not already carry it.
	BearerPrefix = "Bearer "

	// DefaultMaxDepth is the deepest nesting the query builder expands
	// automatically. It matches the API's own depth limit.
	DefaultMaxDepth = 3

	// DefaultLimit is the limit argument applied to new builder sessions.
	DefaultLimit = 10

	// IntrospectionPrefix marks introspection-only fields and types
	// (__schema, __typename, __Type, ...).
	IntrospectionPrefix = "__"

	// ServerTypePrefix marks types a server adds on its own, such as the
	// federation _Service type. It also matches IntrospectionPrefix.
	ServerTypePrefix = "_"

	// ObjectRelationshipMarker and ArrayRelationshipMarker are the phrases
	// Hasura puts in the description of relationship fields.
	ObjectRelationshipMarker = "object relationship"
	ArrayRelationshipMarker  = "array relationship"
)

// ExcludedFieldPatterns lists substrings of field names that are never
// auto-selected (cache-only columns).
var ExcludedFieldPatterns = []string{"cached_"}

// ScalarTypes lists the base type names treated as scalars by the query
// builder and the schema graph.
var ScalarTypes = []string{
	"String",
	"Int",
	"Float",
	"Boolean",
	"ID",
	"json",
	"jsonb",
	"timestamp",
	"timestamptz",
	"date",
	"uuid",
	"smallint",
	"bigint",
	"numeric",
	"float8",
	"citext",
	"Date",
	"DateTime",
}

// OrderByDirections are the Hasura order_by enum values. They are written
// unquoted inside argument object literals.
var OrderByDirections = []string{
	"asc",
	"desc",
	"asc_nulls_first",
	"asc_nulls_last",
	"desc_nulls_first",
	"desc_nulls_last",
}

// DocumentedTypes are the schema types that have a reference page.
var DocumentedTypes = []string{
	"activities",
	"authors",
	"books",
	"characters",
	"contributions",
	"countries",
	"editions",
	"goals",
	"images",
	"languages",
	"likes",
	"lists",
	"notifications",
	"platforms",
	"prompts",
	"publishers",
	"reading_formats",
	"reading_journals",
	"series",
	"book_series",
	"tags",
	"user_books",
	"users",
}
