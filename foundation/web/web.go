// Package web contains a small web framework extension over gin.
package web

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler is the signature used by all application handlers in this service.
type Handler func(c *Context) error

// Middleware is a function designed to run some code before and/or after
// another Handler.
type Middleware func(Handler) Handler

// App is the entrypoint into our application and what configures our context
// object for each of our http handlers.
type App struct {
	*gin.Engine
	log *slog.Logger
	mw  []Middleware
}

// NewApp creates an App value that handles a set of routes for the application.
func NewApp(log *slog.Logger, mw ...Middleware) *App {
	if log == nil {
		log = slog.Default()
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	return &App{
		Engine: engine,
		log:    log,
		mw:     mw,
	}
}

// Handle sets a handler function for a given HTTP method and path pair
// to the application server mux.
func (a *App) Handle(method string, path string, handler Handler, mw ...Middleware) {
	// Route specific middleware runs closest to the handler.
	handler = wrapMiddleware(mw, handler)
	handler = wrapMiddleware(a.mw, handler)

	a.Engine.Handle(method, path, func(gc *gin.Context) {
		c := &Context{
			Context: gc,
			Ctx:     gc.Request.Context(),
		}

		if err := handler(c); err != nil {
			a.log.ErrorContext(c.Ctx, "handler failed",
				slog.String("method", method),
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
	})
}

func (a *App) Get(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodGet, path, handler, mw...)
}

func (a *App) Post(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodPost, path, handler, mw...)
}

func (a *App) Put(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodPut, path, handler, mw...)
}

func (a *App) Patch(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodPatch, path, handler, mw...)
}

func (a *App) Delete(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodDelete, path, handler, mw...)
}

// wrapMiddleware creates a new handler by wrapping middleware around a final
// handler. The middlewares' Handlers will be executed by requests in the order
// they are provided.
func wrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if h := mw[i]; h != nil {
			handler = h(handler)
		}
	}

	return handler
}
