package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appocr "github.com/bryanwahyu/medreport-ai/internal/application/ocr"
	appsession "github.com/bryanwahyu/medreport-ai/internal/application/session"
	domai "github.com/bryanwahyu/medreport-ai/internal/domain/ai"
	"github.com/bryanwahyu/medreport-ai/internal/domain/analysis"
	"github.com/bryanwahyu/medreport-ai/internal/infra/render"
	"github.com/bryanwahyu/medreport-ai/internal/middleware"
)

// maxBodyBytes covers a base64 image of middleware.MaxImageBytes.
const maxBodyBytes = middleware.MaxImageBytes*4/3 + 1<<16

// Options configures the HTTP surface.
type Options struct {
	Logger         *slog.Logger
	Probes         *middleware.Probes
	Limiter        *middleware.Limiter // nil disables rate limiting
	APIKeys        map[string]string
	CORSOrigins    []string
	MaxReportChars int
}

type Router struct {
	sessions *appsession.Service
	logger   *slog.Logger
	maxChars int
}

func NewRouter(sessions *appsession.Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Router{sessions: sessions, logger: logger, maxChars: opts.MaxReportChars}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.Logging(logger))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))

	probes := opts.Probes
	if probes == nil {
		probes = middleware.NewProbes(nil)
	}
	mux.Get("/health", probes.Health)
	mux.Get("/ready", probes.Ready)
	mux.Get("/live", middleware.Live)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(middleware.RequireValidTenant)
		if opts.Limiter != nil {
			rt.Use(opts.Limiter.Handler)
		}
		rt.Post("/reports", r.wrap(r.handleAnalyzeText))
		rt.Post("/reports/image", r.wrap(r.handleAnalyzeImage))
		rt.Get("/reports/{id}", r.wrap(r.handleGet))
		rt.Delete("/reports/{id}", r.wrap(r.handleReset))
		rt.Post("/reports/{id}/questions", r.wrap(r.handleAsk))
		rt.Get("/reports/{id}/questions", r.wrap(r.handleQuestions))
		rt.Get("/history", r.wrap(r.handleHistory))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks client input errors.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func invalid(err error) error { return badRequest{err: err} }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequest
		switch {
		case errors.As(err, &br),
			errors.Is(err, appsession.ErrEmptyReport),
			errors.Is(err, appsession.ErrReportTooLarge),
			errors.Is(err, appsession.ErrEmptyQuestion):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, analysis.ErrNotFound):
			writeError(w, http.StatusNotFound, "not found")
		case errors.Is(err, domai.ErrQuotaExceeded):
			writeError(w, http.StatusTooManyRequests, "ai quota exceeded")
		case errors.Is(err, appocr.ErrNoText):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			r.logger.Error("http: handler failed", "path", req.URL.Path, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
	}
}

// POST /v1/{tenant}/reports
// Body: {"text": "<report text>"}
func (r *Router) handleAnalyzeText(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		Text string `json:"text"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	text := middleware.SanitizeString(body.Text)
	if err := middleware.ValidateReportText(text, r.maxChars); err != nil {
		return invalid(err)
	}

	sess, err := r.sessions.AnalyzeText(req.Context(), tenant, text)
	if err != nil {
		return err
	}
	recordAnalysis(sess)
	return writeJSON(w, http.StatusCreated, sess)
}

// POST /v1/{tenant}/reports/image
// Body: {"image_base64": "...", "mime_type": "image/jpeg"}; image_base64 may be a data URL.
func (r *Router) handleAnalyzeImage(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		ImageBase64 string `json:"image_base64"`
		MimeType    string `json:"mime_type"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	image, mime, err := middleware.DecodeImage(body.ImageBase64, body.MimeType)
	if err != nil {
		return invalid(err)
	}

	sess, err := r.sessions.AnalyzeImage(req.Context(), tenant, image, mime)
	middleware.RecordOCR(err != nil)
	if err != nil {
		return err
	}
	recordAnalysis(sess)
	return writeJSON(w, http.StatusCreated, sess)
}

// GET /v1/{tenant}/reports/{id}?format=markdown
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	tenant, id, err := sessionParams(req)
	if err != nil {
		return err
	}
	sess, err := r.sessions.Get(req.Context(), tenant, id)
	if err != nil {
		return err
	}
	if req.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		return render.Markdown(w, sess.Result, sess.QA)
	}
	return writeJSON(w, http.StatusOK, sess)
}

// DELETE /v1/{tenant}/reports/{id}
func (r *Router) handleReset(w http.ResponseWriter, req *http.Request) error {
	tenant, id, err := sessionParams(req)
	if err != nil {
		return err
	}
	if err := r.sessions.Reset(req.Context(), tenant, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/{tenant}/reports/{id}/questions
// Body: {"question": "..."}
func (r *Router) handleAsk(w http.ResponseWriter, req *http.Request) error {
	tenant, id, err := sessionParams(req)
	if err != nil {
		return err
	}
	var body struct {
		Question string `json:"question"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	q := middleware.SanitizeString(body.Question)
	if err := middleware.ValidateQuestion(q); err != nil {
		return invalid(err)
	}

	qa, err := r.sessions.Ask(req.Context(), tenant, id, q)
	if err != nil {
		return err
	}
	middleware.RecordQuestion(qa.Answer != appsession.NoAnswer)
	return writeJSON(w, http.StatusOK, qa)
}

// GET /v1/{tenant}/reports/{id}/questions
func (r *Router) handleQuestions(w http.ResponseWriter, req *http.Request) error {
	tenant, id, err := sessionParams(req)
	if err != nil {
		return err
	}
	list, err := r.sessions.Questions(req.Context(), tenant, id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/{tenant}/history?page=&page_size=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.sessions.History(req.Context(), tenant, middleware.ValidatePage(page), middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

func sessionParams(req *http.Request) (string, string, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		return "", "", invalid(err)
	}
	return chi.URLParam(req, "tenant"), id, nil
}

func decode(w http.ResponseWriter, req *http.Request, v any) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return invalid(err)
	}
	return nil
}

func recordAnalysis(sess *appsession.Session) {
	e := sess.Result.Errors
	middleware.RecordAnalysis(e.Summarization != nil, e.Classification != nil, e.NER != nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
