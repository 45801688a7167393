// Package router implements the exact Method×URI dispatch table
// (component F): no wildcards, no prefix matching, just two nested maps
// and the 404/405 fallback the original's router produces when a route
// is missing.
package router

import (
	"github.com/silentbot/wschatd/internal/filestore"
	"github.com/silentbot/wschatd/internal/handler"
	"github.com/silentbot/wschatd/internal/httpmsg"
	"github.com/silentbot/wschatd/internal/httpproto"
)

// Router resolves a method and URI to a Handler. It is built once at
// startup via AddRoute and never mutated again, so Handle needs no
// locking.
type Router struct {
	store  *filestore.Store
	routes map[httpmsg.Method]map[string]handler.Handler
}

// New returns an empty router backed by store for its error pages.
func New(store *filestore.Store) *Router {
	return &Router{
		store:  store,
		routes: make(map[httpmsg.Method]map[string]handler.Handler),
	}
}

// AddRoute registers h to serve method+uri. Calling it twice for the
// same method and uri silently replaces the earlier handler.
func (r *Router) AddRoute(method httpmsg.Method, uri string, h handler.Handler) {
	byURI, ok := r.routes[method]
	if !ok {
		byURI = make(map[string]handler.Handler)
		r.routes[method] = byURI
	}
	byURI[uri] = h
}

// Handle resolves req against the routing table and populates resp,
// falling back to a 404 or 405 error page from the file store when no
// route matches.
func (r *Router) Handle(req *httpproto.Request, resp *httpproto.Response) {
	method := httpmsg.ParseMethod(req.Method)
	if method == httpmsg.MethodUnknown {
		r.writeError(resp, 405, filestore.MethodNotAllowedFile)
		return
	}

	byURI, ok := r.routes[method]
	if !ok {
		r.writeError(resp, 405, filestore.MethodNotAllowedFile)
		return
	}

	h, ok := byURI[req.URI]
	if !ok {
		r.writeError(resp, 404, filestore.NotFoundFile)
		return
	}

	h.Handle(req, resp)
}

func (r *Router) writeError(resp *httpproto.Response, status int, file string) {
	body, _ := r.store.Get(file)
	resp.StatusCode = status
	resp.SetHeader("Content-Type", "text/html")
	resp.Body = body
}
