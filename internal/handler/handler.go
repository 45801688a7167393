// Package handler implements the polymorphic request-to-response
// transform (component E): a single-method interface with static-file,
// decorator, and request-logger variants, the same "one virtual call,
// several shapes" design the original expressed as a trait object.
package handler

import (
	"path/filepath"

	"github.com/silentbot/wschatd/internal/filestore"
	"github.com/silentbot/wschatd/internal/httpproto"
	"github.com/silentbot/wschatd/log"
)

// Handler transforms a request into a response. Implementations may read
// req freely but must leave it unmodified; resp is theirs to populate.
type Handler interface {
	Handle(req *httpproto.Request, resp *httpproto.Response)
}

// HandlerFunc adapts a plain function to the Handler interface, the same
// convenience the teacher's middleware package offers for its func-typed
// handler.
type HandlerFunc func(req *httpproto.Request, resp *httpproto.Response)

// Handle calls f.
func (f HandlerFunc) Handle(req *httpproto.Request, resp *httpproto.Response) {
	f(req, resp)
}

var contentTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".png":  "image/png",
}

// StaticFileHandler serves one fixed file out of a shared file store. A
// route owns its own StaticFileHandler; several routes may point at
// StaticFileHandlers that share the same store.
type StaticFileHandler struct {
	store    *filestore.Store
	filename string
}

// NewStaticFileHandler builds a handler that always serves filename out
// of store.
func NewStaticFileHandler(store *filestore.Store, filename string) *StaticFileHandler {
	return &StaticFileHandler{store: store, filename: filename}
}

// Handle writes the file's contents with a 200 status and the
// Content-Type inferred from its extension. A missing file or an
// extension outside the supported asset set is a configuration error in
// the original; here it degrades to a 404 instead of crashing the
// connection, per §9's recommended fallback.
func (h *StaticFileHandler) Handle(req *httpproto.Request, resp *httpproto.Response) {
	body, ok := h.store.Get(h.filename)
	if !ok {
		writeNotFound(h.store, resp)
		return
	}

	ext := filepath.Ext(h.filename)
	contentType, ok := contentTypes[ext]
	if !ok {
		log.Warn().Msgf("static file handler: %q has unsupported extension %q", h.filename, ext)
		writeNotFound(h.store, resp)
		return
	}

	resp.StatusCode = 200
	resp.SetHeader("Content-Type", contentType)
	resp.Body = body
}

func writeNotFound(store *filestore.Store, resp *httpproto.Response) {
	body, _ := store.Get(filestore.NotFoundFile)
	resp.StatusCode = 404
	resp.SetHeader("Content-Type", "text/html")
	resp.Body = body
}

// Decorator runs action then wrapped on the same request/response pair.
// action typically only observes, but since both handlers see the same
// resp, a field action sets survives unless wrapped overwrites it.
type Decorator struct {
	action  Handler
	wrapped Handler
}

// NewDecorator composes action in front of wrapped.
func NewDecorator(action, wrapped Handler) *Decorator {
	return &Decorator{action: action, wrapped: wrapped}
}

// Handle invokes action, then wrapped.
func (d *Decorator) Handle(req *httpproto.Request, resp *httpproto.Response) {
	d.action.Handle(req, resp)
	d.wrapped.Handle(req, resp)
}

// RequestLogger writes a line describing the request to the diagnostic
// log. It never touches resp.
type RequestLogger struct{}

// NewRequestLogger returns a RequestLogger ready to use; it carries no
// state of its own and a single instance may back every route.
func NewRequestLogger() *RequestLogger {
	return &RequestLogger{}
}

// Handle logs the method, URI, and HTTP version of req.
func (l *RequestLogger) Handle(req *httpproto.Request, resp *httpproto.Response) {
	log.Info().Msgf("%s %s HTTP/%d.%d", req.Method, req.URI, req.VersionMajor, req.VersionMinor)
	for _, h := range req.Headers {
		log.Debug().Msgf("  %s: %s", h.Name, h.Value)
	}
}
