package firmware

import (
	"encoding/json"
	"errors"
)

// TopicField is the research topic path in the query language.
const TopicField = "metadata.research.topic"

var (
	ErrWhereInvalidJSON = errors.New("Error: Invalid JSON in where filter")
	ErrWhereNotObject   = errors.New("Error: where filter must be a JSON object")
)

// Where is a filter expression in the API's query syntax, e.g.
//
//	{"metadata.research.status": {"equals": "succeeded"}}
//	{"and": [{...}, {...}]}
type Where map[string]any

// WhereOptions are the inputs to BuildWhere.
type WhereOptions struct {
	SessionID          string
	CurrentSessionOnly bool
	User               Where
}

// BuildWhere combines the session predicate with a user filter. It returns
// nil when there is nothing to filter on and never wraps a single clause.
func BuildWhere(opts WhereOptions) Where {
	var clauses []any

	if opts.CurrentSessionOnly && opts.SessionID != "" {
		clauses = append(clauses, SessionClause(opts.SessionID))
	}
	if opts.User != nil {
		clauses = append(clauses, opts.User)
	}

	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0].(Where)
	default:
		return Where{"and": clauses}
	}
}

// SessionClause matches jobs whose topic carries the tag for sessionID.
func SessionClause(sessionID string) Where {
	return Where{
		TopicField: map[string]any{"contains": "SESSION:" + sessionID},
	}
}

// ParseWhere decodes a user-supplied filter. Only JSON objects are accepted.
func ParseWhere(raw string) (Where, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, ErrWhereInvalidJSON
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrWhereNotObject
	}
	return Where(obj), nil
}
