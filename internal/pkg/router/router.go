package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/krishignan/krishignan/internal/pkg/config"
	"github.com/krishignan/krishignan/internal/pkg/goerror"
	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/krishignan/krishignan/internal/pkg/uid"
	"github.com/krishignan/krishignan/internal/pkg/validator"
)

type (
	failureBody struct {
		Message string            `json:"message"`
		Error   map[string]string `json:"error,omitempty"`
	}

	successBody struct {
		Message string `json:"message"`
		Data    any    `json:"data"`
	}

	// messager lets a response payload pick its own success message.
	messager interface{ Message() string }

	// errorSink is implemented by the observability recorder so the span
	// can carry the handler error.
	errorSink interface{ SetError(error) }
)

// Handler returns a payload to wrap in the success envelope, or an error
// that is mapped onto the failure envelope by its goerror code.
type Handler func(r *Request) (any, error)

type Config struct {
	Config     config.Config
	UUID       uid.StringID // correlation IDs
	Instrument instrument.Instrumentation
}

// Router serves httprouter routes behind the shared middleware chain:
// recover, client IP, correlation ID, observability, rate limit, maintenance.
type Router struct {
	hr      *httprouter.Router
	limiter *ipRateLimiter
	mws     []Middleware
}

func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, failureBody{Message: "endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, failureBody{Message: "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}

	hr.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, map[string]string{"message": "KrishiGnan API is running"}, http.StatusOK)
	})

	limiter := newIPRateLimiter(cfg.Config)

	return &Router{
		hr:      hr,
		limiter: limiter,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareIP,
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareRateLimit(limiter),
			middlewareMaintenance(cfg.Config),
		},
	}
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

// Handle registers a plain http.Handler behind the standard middleware chain,
// for endpoints that write their own body.
func (r *Router) Handle(method, path string, h http.Handler) {
	r.hr.Handler(method, path, Chain(h, r.mws...))
}

// RunJanitor evicts idle per-IP limiters every interval until ctx is done.
func (r *Router) RunJanitor(ctx context.Context, interval time.Duration) error {
	if r.limiter == nil {
		return nil
	}

	return r.limiter.janitor(ctx, interval)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	serve := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err == nil {
			writeSuccess(w, resp)
			return
		}

		if sink, ok := w.(errorSink); ok {
			sink.SetError(err)
		}
		writeFailure(req.Context(), w, err)
	})

	r.hr.Handler(method, path, Chain(serve, append(r.mws, mws...)...))
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

// writeFailure renders a goerror as {message, error}; validator failures fill
// error with per-field messages, other goerrors with their fields such as
// reason. Anything else is logged and hidden behind a 500.
func writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		slog.ErrorContext(ctx, "handler returned an untyped error", "error", err)
		writeJSON(w, failureBody{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	body := failureBody{Message: gerr.Msg(), Error: gerr.Fields()}

	var fieldErrs validator.V10ValidationError
	if errors.As(err, &fieldErrs) {
		body.Error = fieldErrs.Values()
	}

	writeJSON(w, body, gerr.StatusCode())
}

func writeSuccess(w http.ResponseWriter, resp any) {
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	msg := "request has been successfully"
	if m, ok := resp.(messager); ok {
		msg = m.Message()
	}

	writeJSON(w, successBody{Message: msg, Data: resp}, http.StatusOK)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write json response", "status", code, "error", err)
	}
}
