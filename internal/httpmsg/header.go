package httpmsg

// Header is a single name/value pair as it appeared on the wire. Requests
// and responses both keep an ordered slice of these rather than a map,
// because the parser invariant cares about non-empty name/value pairs, not
// about deduplication or case-insensitive lookup.
type Header struct {
	Name  string
	Value string
}

// IsTokenByte reports whether b is a valid RFC 7230 "token" character,
// i.e. a header-name character: an ASCII graphic character that isn't one
// of the delimiters the grammar reserves as separators.
func IsTokenByte(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '@', ',', ';', ':', '\\', '"',
		'/', '[', ']', '?', '=', '{', '}', ' ', '\t':
		return false
	}
	return b > 0x20 && b < 0x7f
}

// IsHeaderValueByte reports whether b may appear inside a header value:
// printable ASCII plus space and horizontal tab. CR and LF are handled
// separately by the parser since they terminate the value.
func IsHeaderValueByte(b byte) bool {
	return b == ' ' || b == '\t' || (b >= 0x20 && b < 0x7f)
}

// Find returns the value of the first header named name (case-sensitive,
// as the wire format and spec require for the Upgrade check) and whether
// it was present.
func Find(headers []Header, name string) (string, bool) {
	for _, h := range headers {
		if h.Name == name {
			return h.Value, true
		}
	}
	return "", false
}
