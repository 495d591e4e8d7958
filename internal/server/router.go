package server

import "net/http"

// BasicRouter implements [Router] on top of [http.ServeMux], using the
// mux's method-aware patterns for routing. It is deliberately small: the
// loopback flow serves one callback path for a couple of minutes.
type BasicRouter struct {
	mux   *http.ServeMux
	chain []Middleware
}

// NewBasicRouter creates an empty router.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware to the chain. Middleware runs for every request
// the router sees, including unmatched paths.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.chain = append(r.chain, middleware...)
}

// Handle registers a handler for one HTTP method and path. Requests for
// the same path with a different method get 405 from the mux.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(method+" "+path, handler)
}

// Handler registers every route a [Handler] declares, method-agnostic.
func (r *BasicRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.mux.Handle(route, handler)
	}
}

// ServeHTTP runs the request through the middleware chain and into the
// mux. The first middleware added is the outermost.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var wrapped http.Handler = r.mux
	for i := len(r.chain) - 1; i >= 0; i-- {
		wrapped = r.chain[i](wrapped)
	}
	wrapped.ServeHTTP(w, req)
}
