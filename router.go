package mllp

// Router dispatches messages by MSH-9 code^trigger, e.g. "MDM^T02".
type Router struct {
	middlewares []HandlerFunc
	handlers    map[string][]HandlerFunc
	noRoute     []HandlerFunc
}

func NewRouter() *Router {
	return &Router{
		middlewares: make([]HandlerFunc, 0),
		handlers:    make(map[string][]HandlerFunc),
	}
}

func (r *Router) Use(middleware ...HandlerFunc) {
	r.middlewares = append(r.middlewares, middleware...)
}

func (r *Router) Register(msgType string, handlers ...HandlerFunc) {
	r.handlers[msgType] = append(r.handlers[msgType], handlers...)
}

// NoRoute sets the handlers for message types nobody registered.
func (r *Router) NoRoute(handlers ...HandlerFunc) {
	r.noRoute = handlers
}

func (r *Router) GetMiddlewares() []HandlerFunc {
	return r.middlewares
}

func (r *Router) GetHandlers(msgType string) []HandlerFunc {
	if h, ok := r.handlers[msgType]; ok {
		return h
	}
	return r.noRoute
}

func (r *Router) handle(c *Context) bool {
	handlers := r.GetHandlers(c.Type())
	if len(handlers) == 0 {
		return false
	}
	chain := make([]HandlerFunc, 0, len(r.middlewares)+len(handlers))
	chain = append(chain, r.middlewares...)
	c.handlers = append(chain, handlers...)
	c.Next()
	return true
}
