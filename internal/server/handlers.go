package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/leo-stone-dot/qs_go/internal/metrics"
	"github.com/leo-stone-dot/qs_go/qs"
)

type handler struct {
	logger    *zap.Logger
	metrics   *metrics.Metrics
	parse     qs.Options
	stringify qs.StringifyOptions
	maxBody   int64
}

// routes mounts the parse and stringify endpoints on r.
func (h *handler) routes(r chi.Router) {
	r.Route("/parse", func(r chi.Router) {
		r.Get("/", h.ParseQuery)
		r.Post("/", h.ParseBody)
	})
	r.Post("/stringify", h.Stringify)
}

// ParseQuery parses the request's own query string.
func (h *handler) ParseQuery(w http.ResponseWriter, r *http.Request) {
	h.respondParse(w, r, r.URL.RawQuery)
}

// ParseBody parses the raw request body.
func (h *handler) ParseBody(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		h.fail(w, r, "parse", start, err)
		return
	}
	h.respondParse(w, r, string(body))
}

func (h *handler) respondParse(w http.ResponseWriter, r *http.Request, query string) {
	start := time.Now()
	h.metrics.InputBytes.Observe(float64(len(query)))

	tree, err := qs.ParseWithOptions(query, h.parse)
	if err != nil {
		h.fail(w, r, "parse", start, err)
		return
	}
	h.metrics.ParametersTotal.Add(float64(tree.Len()))
	h.metrics.Observe("parse", start, "")
	h.logger.Debug("parsed query", zap.Int("bytes", len(query)), zap.Int("keys", tree.Len()))

	render.Status(r, http.StatusOK)
	render.JSON(w, r, tree)
}

// Stringify encodes a JSON document as a query string.
func (h *handler) Stringify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		h.fail(w, r, "stringify", start, err)
		return
	}
	var tree qs.Node
	if err := tree.UnmarshalJSON(body); err != nil {
		h.fail(w, r, "stringify", start, err)
		return
	}

	out, err := qs.StringifyWithOptions(&tree, h.stringify)
	if err != nil {
		h.fail(w, r, "stringify", start, err)
		return
	}
	h.metrics.Observe("stringify", start, "")

	render.Status(r, http.StatusOK)
	render.PlainText(w, r, out)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, op string, start time.Time, err error) {
	kind := errorType(err)
	h.metrics.Observe(op, start, kind)
	h.logger.Warn("request rejected", zap.String("operation", op), zap.String("type", kind), zap.Error(err))

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		_ = render.Render(w, r, ErrTooLarge(err))
		return
	}
	_ = render.Render(w, r, ErrInvalidRequest(err))
}
