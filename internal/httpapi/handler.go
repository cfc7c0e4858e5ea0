// Package httpapi serves the document service over HTTP when the server runs
// in server mode.
package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/a3tai/mcp-official-forms/internal/document"
	ferrors "github.com/a3tai/mcp-official-forms/internal/errors"
	"github.com/a3tai/mcp-official-forms/internal/security"
)

// Handler wires the HTTP endpoints to the document service
type Handler struct {
	service   *document.Service
	templates *security.TemplateStore
	gatherer  prometheus.Gatherer
	logger    *log.Logger
	maxBody   int64
}

// New creates a handler. maxTemplateSize bounds inline templates; templates
// referenced by path are bounded by the store.
func New(service *document.Service, templates *security.TemplateStore, gatherer prometheus.Gatherer, logger *log.Logger, maxTemplateSize int64) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	// base64 inflates by 4/3; leave room for the rest of the JSON body
	maxBody := maxTemplateSize/3*4 + 1<<20
	return &Handler{
		service:   service,
		templates: templates,
		gatherer:  gatherer,
		logger:    logger,
		maxBody:   maxBody,
	}
}

// Router returns the HTTP routes
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(api chi.Router) {
		api.Get("/document-types", h.handleDocumentTypes)
		api.Get("/jurisdictions", h.handleJurisdictions)
		// The jurisdiction may be a canonical key such as us/florida
		api.Get("/compliance/{documentType}/*", h.handleCompliance)
		api.Post("/documents/fill", h.handleFill)
	})
	return r
}

// FillBody is the JSON body of POST /v1/documents/fill. At most one of
// TemplateBase64 and TemplatePath may be set; with neither the official form
// asset is used.
type FillBody struct {
	DocumentType   string            `json:"document_type"`
	Jurisdiction   string            `json:"jurisdiction"`
	FormData       map[string]string `json:"form_data"`
	TemplateBase64 string            `json:"template_base64,omitempty"`
	TemplatePath   string            `json:"template_path,omitempty"`
}

// FillResponse is the JSON response of a fill
type FillResponse struct {
	*document.FillResult
	PDFBase64 string `json:"pdf_base64"`
}

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (h *Handler) handleDocumentTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.DocumentTypes())
}

func (h *Handler) handleJurisdictions(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Jurisdictions(r.URL.Query().Get("document_type"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleCompliance(w http.ResponseWriter, r *http.Request) {
	jurisdictionInput := chi.URLParam(r, "*")
	if unescaped, err := url.PathUnescape(jurisdictionInput); err == nil {
		jurisdictionInput = unescaped
	}
	summary, err := h.service.Compliance(chi.URLParam(r, "documentType"), jurisdictionInput)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleFill(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body FillBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		h.writeError(w, r, ferrors.Wrap(ferrors.ErrorTypeInvalidRequest, "invalid request body", err))
		return
	}

	template, err := h.template(body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.service.FillDocument(document.FillRequest{
		DocumentType:  body.DocumentType,
		Jurisdiction:  body.Jurisdiction,
		FormData:      body.FormData,
		BaseFormBytes: template,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Printf("fill %s %s in %s: strategy=%s matched=%d/%d duration=%s",
		RequestID(r.Context()), result.DocumentType, result.Jurisdiction, result.Strategy,
		result.FieldsMatched, result.FieldsTotal, time.Since(start))

	if wantsPDF(r) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("X-Fill-Strategy", result.Strategy.String())
		w.Header().Set("X-Fields-Matched", strconv.Itoa(result.FieldsMatched))
		w.Header().Set("X-Fields-Total", strconv.Itoa(result.FieldsTotal))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Bytes)
		return
	}

	writeJSON(w, http.StatusOK, FillResponse{
		FillResult: result,
		PDFBase64:  base64.StdEncoding.EncodeToString(result.Bytes),
	})
}

func (h *Handler) template(body FillBody) ([]byte, error) {
	switch {
	case body.TemplateBase64 != "" && body.TemplatePath != "":
		return nil, ferrors.New(ferrors.ErrorTypeInvalidRequest, "template_base64 and template_path are mutually exclusive")
	case body.TemplateBase64 != "":
		b, err := base64.StdEncoding.DecodeString(body.TemplateBase64)
		if err != nil {
			return nil, ferrors.Wrap(ferrors.ErrorTypeInvalidRequest, "template_base64 is not valid base64", err)
		}
		return b, nil
	case body.TemplatePath != "":
		if h.templates == nil {
			return nil, ferrors.New(ferrors.ErrorTypeInvalidRequest, "template paths are not enabled")
		}
		return h.templates.Read(body.TemplatePath)
	default:
		return nil, nil
	}
}

func wantsPDF(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/pdf")
}

// statusFor maps error classes to HTTP statuses
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	switch ferrors.TypeOf(err) {
	case ferrors.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ferrors.ErrorTypeUnsupportedDocumentType, ferrors.ErrorTypeUnsupportedJurisdiction:
		return http.StatusNotFound
	case ferrors.ErrorTypeUnsupportedCombination, ferrors.ErrorTypeMalformedTemplate:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	id := RequestID(r.Context())
	if status >= http.StatusInternalServerError {
		h.logger.Printf("ERROR: %s %s %s: %v", id, r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, ErrorResponse{
		Error:     ferrors.TypeOf(err).String(),
		Message:   err.Error(),
		RequestID: id,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
