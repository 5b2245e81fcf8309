package avroskema

import (
	"strconv"
	"strings"
)

// Child appends one reference token to a JSON Pointer, escaping '~' and '/'
// per RFC 6901. The root pointer is "/" or "".
func Child(ptr, name string) string {
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	if ptr == "" || ptr == "/" {
		return "/" + esc
	}
	return ptr + "/" + esc
}

// Index appends an array index token to a JSON Pointer.
func Index(ptr string, i int) string {
	return Child(ptr, strconv.Itoa(i))
}

// NormalizePointer accepts "a/b", "/a/b" or "/" and returns the canonical
// "/a/b" form. Tokens are not re-escaped.
func NormalizePointer(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimSuffix(p, "/")
}
