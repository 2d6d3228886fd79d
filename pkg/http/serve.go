package xhttp

import (
	"reflect"
	"runtime"
	"slices"
	"time"

	"github.com/nimasrn/hero-points/pkg/logger"
	"github.com/valyala/fasthttp"
)

type Server = fasthttp.Server

type ServerConfig struct {
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	RequestTimeout     time.Duration
	MaxRequestBodySize int
	Concurrency        int
}

var DefaultServerConfig = ServerConfig{
	ReadTimeout:        5 * time.Second,
	WriteTimeout:       5 * time.Second,
	IdleTimeout:        10 * time.Second,
	RequestTimeout:     5 * time.Second,
	MaxRequestBodySize: 1 << 20,
	Concurrency:        10_000,
}

type Engine struct {
	*Router
	*Server
	config ServerConfig
	middle []MiddlewareFunc
}

func newServer(cfg ServerConfig) *fasthttp.Server {
	return &fasthttp.Server{
		Handler:      NotFoundHandler,
		ErrorHandler: func(ctx *RequestCtx, err error) { logger.Warn("[xhttp] connection error", "error", err) },
		Concurrency:  cfg.Concurrency,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		// 4KB is enough for headers and keeps per-connection memory small
		ReadBufferSize:               4 * 1024,
		WriteBufferSize:              4 * 1024,
		MaxRequestBodySize:           cfg.MaxRequestBodySize,
		TCPKeepalive:                 true,
		DisablePreParseMultipartForm: true,
		NoDefaultServerHeader:        true,
		NoDefaultContentType:         true,
		CloseOnShutdown:              true,
		Logger:                       logger.GetLogger(),
	}
}

func CreateServer(cfg ServerConfig) *Engine {
	return &Engine{
		Server: newServer(cfg),
		Router: CreateDefaultRouter(),
		config: cfg,
	}
}

func (e *Engine) ListenAndServe(addr string) error {
	if err := e.DoRouting(); err != nil {
		return err
	}
	e.Server.Logger.Printf("[xhttp] server is listening on %s", addr)
	return e.Server.ListenAndServe(addr)
}

// DoRouting installs the router as the server handler wrapped by the
// registered middlewares. The first registered middleware runs first.
func (e *Engine) DoRouting() error {
	for method, route := range e.Router.List() {
		for _, r := range route {
			e.Server.Logger.Printf("[xhttp] method: %s, path: %s", method, r)
		}
	}

	handler := e.Router.Handler
	if e.config.RequestTimeout > 0 {
		handler = TimeoutMiddleware(e.config.RequestTimeout)(handler)
	}

	middle := slices.Clone(e.middle)
	slices.Reverse(middle)
	for i, m := range middle {
		handler = m(handler)
		e.Server.Logger.Printf("[xhttp] middleware %d registered - %s", i+1, runtime.FuncForPC(reflect.ValueOf(m).Pointer()).Name())
	}
	e.Server.Handler = handler
	return nil
}

// BuildHandler returns the fully wrapped handler, mainly for tests that drive the
// engine without a listener.
func (e *Engine) BuildHandler() RequestHandler {
	_ = e.DoRouting()
	return e.Server.Handler
}

// Use adds middleware to the end of the chain which is run for every request.
func (e *Engine) Use(middleware MiddlewareFunc) {
	e.middle = append(e.middle, middleware)
}

// Shutdown gracefully shuts down the server without interrupting any active connections.
func (e *Engine) Shutdown() {
	e.Server.Logger.Printf("[xhttp] server is shutting down")
	if err := e.Server.Shutdown(); err != nil {
		e.Server.Logger.Printf("[xhttp] error while shutting down: %v", err)
	}
}
