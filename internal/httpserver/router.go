package httpserver

// Handler is a pure function Request -> Response registered for one
// (method, path) pair.
type Handler func(*Request) *Response

// Router is the route registry: exact-match on (method, path), no
// prefix matching, no path templating, no method fallthrough.
type Router struct {
	routes map[string]map[string]Handler
}

// NewRouter builds an empty registry scoped to GET and POST.
func NewRouter() *Router {
	return &Router{
		routes: map[string]map[string]Handler{
			"GET":  {},
			"POST": {},
		},
	}
}

// Get registers a GET handler for path.
func (rt *Router) Get(path string, handler Handler) {
	rt.routes["GET"][path] = handler
}

// Post registers a POST handler for path.
func (rt *Router) Post(path string, handler Handler) {
	rt.routes["POST"][path] = handler
}

// Lookup returns the handler registered for (method, path), and whether
// one was found. Query strings have already been stripped from path by
// the request parser before this is called.
func (rt *Router) Lookup(method, path string) (Handler, bool) {
	methodRoutes, ok := rt.routes[method]
	if !ok {
		return nil, false
	}
	handler, ok := methodRoutes[path]
	return handler, ok
}
