package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/gtmscore/gtmscore/internal/health"
	"github.com/gtmscore/gtmscore/pkg/models"
)

// Gateway represents the HTTP API gateway.
type Gateway struct {
	server    *http.Server
	router    *mux.Router
	scorer    Scorer
	store     SubmissionStore
	renderer  ReportRenderer
	notifier  Notifier
	publisher EventPublisher
	checker   *health.HealthChecker
	config    GatewayConfig
	metrics   *GatewayMetrics
}

// Scorer interface for assessment scoring.
type Scorer interface {
	ComputeScores(req models.AssessmentRequest) (*models.ScoreResult, error)
}

// SubmissionStore interface for the append-only submission log.
type SubmissionStore interface {
	Append(ctx context.Context, sub models.Submission) error
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error)
	Get(ctx context.Context, id string) (models.Submission, error)
}

// ReportRenderer interface for PDF report rendering.
type ReportRenderer interface {
	Render(ctx context.Context, sub models.Submission) ([]byte, error)
}

// Notifier interface for submission notification emails.
type Notifier interface {
	NotifySubmission(ctx context.Context, sub models.Submission) error
}

// EventPublisher interface for submission event publishing.
type EventPublisher interface {
	PublishSubmission(ctx context.Context, sub models.Submission) error
}

// GatewayConfig represents gateway configuration.
type GatewayConfig struct {
	Host           string        `yaml:"host" json:"host"`
	Port           int           `yaml:"port" json:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	EnableCORS     bool          `yaml:"enable_cors" json:"enable_cors"`
	AllowedOrigins []string      `yaml:"allowed_origins" json:"allowed_origins"`
	MaxRequestSize int64         `yaml:"max_request_size" json:"max_request_size"`
}

// DefaultGatewayConfig returns default gateway configuration.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		MaxRequestSize: 1 << 20, // 1MB
	}
}

// GatewayMetrics represents gateway request metrics.
type GatewayMetrics struct {
	RequestsTotal    int64            `json:"requests_total"`
	RequestsFailed   int64            `json:"requests_failed"`
	AverageLatency   time.Duration    `json:"average_latency"`
	RequestsByPath   map[string]int64 `json:"requests_by_path"`
	RequestsByMethod map[string]int64 `json:"requests_by_method"`
	RequestsByStatus map[int]int64    `json:"requests_by_status"`
	LastRequest      time.Time        `json:"last_request"`
	mu               sync.Mutex
}

// NewGateway creates a new API gateway.
func NewGateway(config GatewayConfig, scorer Scorer, store SubmissionStore, renderer ReportRenderer, notifier Notifier, publisher EventPublisher, checker *health.HealthChecker) *Gateway {
	router := mux.NewRouter()

	gateway := &Gateway{
		router:    router,
		scorer:    scorer,
		store:     store,
		renderer:  renderer,
		notifier:  notifier,
		publisher: publisher,
		checker:   checker,
		config:    config,
		metrics: &GatewayMetrics{
			RequestsByPath:   make(map[string]int64),
			RequestsByMethod: make(map[string]int64),
			RequestsByStatus: make(map[int]int64),
		},
	}

	gateway.setupRoutes()
	gateway.setupMiddleware()

	gateway.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return gateway
}

// setupRoutes configures all API routes.
func (g *Gateway) setupRoutes() {
	api := g.router.PathPrefix("/api/v1").Subrouter()

	assessments := api.PathPrefix("/assessments").Subrouter()
	assessments.HandleFunc("", g.handleCreateAssessment).Methods("POST")
	assessments.HandleFunc("", g.handleListSubmissions).Methods("GET")
	assessments.HandleFunc("/score", g.handleScoreOnly).Methods("POST")
	assessments.HandleFunc("/{id}", g.handleGetSubmission).Methods("GET")
	assessments.HandleFunc("/{id}/report", g.handleReport).Methods("GET")

	api.HandleFunc("/health", g.checker.HTTPHandler()).Methods("GET")
	api.HandleFunc("/metrics", g.handleMetrics).Methods("GET")
}

// setupMiddleware configures HTTP middleware.
func (g *Gateway) setupMiddleware() {
	if g.config.EnableCORS {
		c := cors.New(cors.Options{
			AllowedOrigins:   g.config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		})
		g.router.Use(c.Handler)
	}

	// Metrics middleware last so it captures all requests.
	g.router.Use(g.metricsMiddleware)
}

// Start starts the API gateway.
func (g *Gateway) Start() error {
	log.Printf("Starting API gateway on %s", g.server.Addr)
	return g.server.ListenAndServe()
}

// Stop stops the API gateway.
func (g *Gateway) Stop(ctx context.Context) error {
	log.Printf("Stopping API gateway")
	return g.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Response envelope

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type APIMeta struct {
	Total   int  `json:"total,omitempty"`
	Limit   int  `json:"limit,omitempty"`
	Offset  int  `json:"offset,omitempty"`
	HasMore bool `json:"has_more,omitempty"`
}

func writeJSONResponse(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message, details string) {
	writeJSONResponse(w, status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func writeSuccessResponse(w http.ResponseWriter, data interface{}, meta *APIMeta) {
	writeJSONResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// Middleware implementations

func (g *Gateway) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		r.Body = http.MaxBytesReader(w, r.Body, g.config.MaxRequestSize)
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		g.updateMetrics(r, wrapped.statusCode, time.Since(start))
	})
}

func (g *Gateway) updateMetrics(r *http.Request, statusCode int, duration time.Duration) {
	g.metrics.mu.Lock()
	defer g.metrics.mu.Unlock()

	g.metrics.RequestsTotal++
	if statusCode >= http.StatusInternalServerError {
		g.metrics.RequestsFailed++
	}
	g.metrics.RequestsByPath[r.URL.Path]++
	g.metrics.RequestsByMethod[r.Method]++
	g.metrics.RequestsByStatus[statusCode]++
	g.metrics.LastRequest = time.Now()

	if g.metrics.AverageLatency == 0 {
		g.metrics.AverageLatency = duration
	} else {
		g.metrics.AverageLatency = (g.metrics.AverageLatency + duration) / 2
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
