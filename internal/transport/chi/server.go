package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/toxmod/internal/domain"
	"github.com/kailas-cloud/toxmod/internal/logger"
	healthuc "github.com/kailas-cloud/toxmod/internal/usecase/health"
	predictionuc "github.com/kailas-cloud/toxmod/internal/usecase/prediction"
)

const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the prediction API.
type Server struct {
	prediction    *predictionuc.Service
	health        *healthuc.Service
	metrics       http.Handler
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	prediction *predictionuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		prediction: prediction,
		health:     health,
		metrics:    promhttp.Handler(),
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrModelNotLoaded, http.StatusServiceUnavailable, fixedDetail("Model not loaded")),
		sentinelHandler(domain.ErrValidation, http.StatusUnprocessableEntity, errorDetail),
		inferenceHandler,
	}
	return s
}

// WithMetricsHandler replaces the /metrics handler.
func (s *Server) WithMetricsHandler(h http.Handler) *Server {
	s.metrics = h
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Post("/predict", s.Predict)
	r.Get("/model", s.Model)
	r.Get("/metrics", s.Metrics)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Text       *string         `json:"text"`
	TrueLabels domain.LabelMap `json:"true_labels,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthCheck handles GET /health. It answers 200 whether or not a model is loaded.
func (s *Server) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	report := s.health.Check()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  string(report.Status),
		Message: report.Message,
		Model:   report.Model,
	})
}

// Predict handles POST /predict.
func (s *Server) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if req.Text == nil {
		writeError(w, http.StatusUnprocessableEntity, "field required: text")
		return
	}

	rec, err := s.prediction.Predict(r.Context(), *req.Text, req.TrueLabels)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Model handles GET /model.
func (s *Server) Model(w http.ResponseWriter, r *http.Request) {
	meta, err := s.prediction.Model()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

func fixedDetail(msg string) func(error) string {
	return func(error) string { return msg }
}

// inferenceHandler reports the pipeline cause without the sentinel text.
func inferenceHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrInference) {
		return false
	}
	cause := err
	var ie *domain.InferenceError
	if errors.As(err, &ie) {
		cause = ie.Err
	}
	writeError(w, http.StatusInternalServerError, "Error predicting: "+cause.Error())
	return true
}

func errorDetail(err error) string { return err.Error() }

// sentinelHandler creates an errorHandler for a simple sentinel error.
func sentinelHandler(sentinel error, status int, detail func(error) string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, detail(err))
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	if errors.Is(err, domain.ErrInference) {
		log.Error("prediction failed", zap.Error(err))
	} else {
		log.Warn("domain error", zap.Error(err))
	}
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
