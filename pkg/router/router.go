package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immersionlab/backend/pkg/xcontext"
	"github.com/rs/cors"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc may return a new context which replaces the current one, a nil
// context keeps the current one.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc runs after the response is written, even if the handler failed.
type CloserFunc func(ctx context.Context)

type Router struct {
	root   context.Context
	engine *gin.Engine

	befores []MiddlewareFunc
	afters  []MiddlewareFunc
	closers []CloserFunc
}

// New returns a router whose handlers receive a context carrying the configs,
// logger and database of root.
func New(root context.Context) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Router{root: root, engine: engine}
}

// Branch returns a router sharing the same engine. Middlewares added to the
// branch do not affect its parent.
func (r *Router) Branch() *Router {
	return &Router{
		root:    r.root,
		engine:  r.engine,
		befores: append([]MiddlewareFunc(nil), r.befores...),
		afters:  append([]MiddlewareFunc(nil), r.afters...),
		closers: append([]CloserFunc(nil), r.closers...),
	}
}

func (r *Router) Before(middlewares ...MiddlewareFunc) {
	r.befores = append(r.befores, middlewares...)
}

func (r *Router) After(middlewares ...MiddlewareFunc) {
	r.afters = append(r.afters, middlewares...)
}

func (r *Router) AddCloser(closers ...CloserFunc) {
	r.closers = append(r.closers, closers...)
}

// Handle registers a plain http.Handler, no middleware is applied.
func (r *Router) Handle(method, pattern string, handler http.Handler) {
	r.engine.Handle(method, pattern, gin.WrapH(handler))
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.engine.GET(pattern, wrapHandler(r.Branch(), http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.engine.POST(pattern, wrapHandler(r.Branch(), http.MethodPost, handler))
}

// Handler returns all registered routes behind the CORS policy.
func (r *Router) Handler(allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", UserIDHeader, AdminTokenHeader},
		AllowCredentials: true,
	}).Handler(r.engine)
}

func (r *Router) newContext(req *http.Request) context.Context {
	ctx := xcontext.NewContext(req.Context(), xcontext.Configs(r.root), xcontext.Logger(r.root))
	if db := xcontext.DB(r.root); db != nil {
		ctx = xcontext.WithDB(ctx, db)
	}

	return xcontext.WithHTTPRequest(ctx, req)
}
