package app

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Route declares an HTTP endpoint to be registered when the application is
// built. Methods defaults to GET when empty. Unless StrictSlashes is set,
// the route also answers under its trailing-slash twin, while Routes()
// reports the canonical URI only.
type Route struct {
	URI           string
	Handler       gin.HandlerFunc
	Methods       []string
	StrictSlashes bool
	Name          string
}

// methodsOrDefault returns the route methods, upper-cased, defaulting to GET
func (r Route) methodsOrDefault() []string {
	if len(r.Methods) == 0 {
		return []string{http.MethodGet}
	}
	methods := make([]string, len(r.Methods))
	for i, m := range r.Methods {
		methods[i] = strings.ToUpper(m)
	}
	return methods
}

// normalizeURI guarantees a leading slash and strips the trailing slash,
// keeping "/" itself intact
func normalizeURI(uri string) string {
	if uri == "" {
		return "/"
	}
	if !strings.HasPrefix(uri, "/") {
		uri = "/" + uri
	}
	if uri != "/" {
		uri = strings.TrimRight(uri, "/")
		if uri == "" {
			uri = "/"
		}
	}
	return uri
}

// normalizePrefix normalizes a URL prefix to "/name" form; both "" and "/"
// mean no prefix
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

// joinPrefix joins a normalized prefix and a normalized URI into the full
// path the route is served under
func joinPrefix(prefix, uri string) string {
	if prefix == "" {
		return uri
	}
	if uri == "/" {
		return prefix
	}
	return prefix + uri
}
