// Package httpmsg holds the small typed value objects shared across the
// HTTP stack: the closed set of request methods and the header name/value
// pair. Neither type owns a network buffer; both are plain value types.
package httpmsg

// Method is the closed set of request methods this server understands.
// Note that the fourth member is UPDATE, not PUT — that is what the
// original implementation called it, and the wire format matches.
type Method int

const (
	// MethodUnknown is the zero value and never matches a registered route.
	MethodUnknown Method = iota
	MethodGet
	MethodPost
	MethodUpdate
	MethodDelete
)

var methodNames = map[Method]string{
	MethodGet:    "GET",
	MethodPost:   "POST",
	MethodUpdate: "UPDATE",
	MethodDelete: "DELETE",
}

var methodValues = map[string]Method{
	"GET":    MethodGet,
	"POST":   MethodPost,
	"UPDATE": MethodUpdate,
	"DELETE": MethodDelete,
}

// String returns the wire representation of m, or "" for MethodUnknown.
func (m Method) String() string {
	return methodNames[m]
}

// ParseMethod maps a wire method token to its Method value. Unknown tokens
// (including the stdlib's PUT) map to MethodUnknown, which callers should
// treat as MethodNotAllowed.
func ParseMethod(s string) Method {
	if m, ok := methodValues[s]; ok {
		return m
	}
	return MethodUnknown
}
