package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/usecase"
)

// Config server settings
type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
	// MaxParts caps the parts of one POST /prices request
	MaxParts int
}

// DefaultConfig returns the server defaults for addr
func DefaultConfig(addr string) Config {
	return Config{
		Addr:           addr,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxRequestSize: 1 << 20,
		MaxParts:       50,
	}
}

// Server JSON API over the compatibility and pricing use cases
type Server struct {
	cfg           Config
	compatibility usecase.CompatibilityUseCase
	pricing       usecase.PricingUseCase
	logger        *slog.Logger
	now           func() time.Time
}

// NewServer creates the API server
func NewServer(cfg Config, compatibility usecase.CompatibilityUseCase, pricing usecase.PricingUseCase, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRequestSize <= 0 {
		cfg.MaxRequestSize = DefaultConfig(cfg.Addr).MaxRequestSize
	}
	if cfg.MaxParts <= 0 {
		cfg.MaxParts = DefaultConfig(cfg.Addr).MaxParts
	}
	return &Server{
		cfg:           cfg,
		compatibility: compatibility,
		pricing:       pricing,
		logger:        logger.With("component", "http"),
		now:           time.Now,
	}
}

// Handler routes wrapped with middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /compatibility", s.handleCompatibility)
	mux.HandleFunc("POST /prices", s.handlePrices)
	mux.HandleFunc("GET /prices/vendors", s.handleVendors)

	return s.requestIDMiddleware(s.loggingMiddleware(mux))
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type requestIDKey struct{}

// RequestID returns the request ID stored by the middleware
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("handler panic", "request_id", RequestID(r.Context()), "panic", fmt.Sprint(p))
				s.jsonError(rec, http.StatusInternalServerError, "internal error")
			}
			s.logger.Info("request",
				"request_id", RequestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).String(),
			)
		}()
		next.ServeHTTP(rec, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

type compatibilityRequest struct {
	Build          entity.Build `json:"build"`
	OverrideReason string       `json:"overrideReason,omitempty"`
}

func (s *Server) handleCompatibility(w http.ResponseWriter, r *http.Request) {
	var req compatibilityRequest
	if err := s.decode(w, r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.compatibility.Evaluate(r.Context(), req.Build, req.OverrideReason)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidBuild) {
			s.jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("compatibility failed", "request_id", RequestID(r.Context()), "error", err)
		s.jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

type pricesRequest struct {
	Parts []entity.PartIdentity `json:"parts"`
}

type pricesResponse struct {
	Results     []entity.PriceResult `json:"results"`
	Vendors     []string             `json:"vendors"`
	GeneratedAt time.Time            `json:"generatedAt"`
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	var req pricesRequest
	if err := s.decode(w, r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateParts(req.Parts, s.cfg.MaxParts); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := s.pricing.FetchPricesBatch(r.Context(), req.Parts)
	s.jsonResponse(w, http.StatusOK, pricesResponse{
		Results:     results,
		Vendors:     s.pricing.EnabledVendors(),
		GeneratedAt: s.now().UTC(),
	})
}

func (s *Server) handleVendors(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string][]string{"vendors": s.pricing.EnabledVendors()})
}

// validateParts non-empty list, each part names a manufacturer and model
func validateParts(parts []entity.PartIdentity, maxParts int) error {
	if len(parts) == 0 {
		return fmt.Errorf("%w: parts must not be empty", entity.ErrInvalidPart)
	}
	if maxParts > 0 && len(parts) > maxParts {
		return fmt.Errorf("%w: at most %d parts per request", entity.ErrInvalidPart, maxParts)
	}
	for i, p := range parts {
		if strings.TrimSpace(p.Manufacturer) == "" || strings.TrimSpace(p.Model) == "" {
			return fmt.Errorf("%w: parts[%d] needs manufacturer and model", entity.ErrInvalidPart, i)
		}
	}
	return nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestSize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("malformed request body: trailing data")
	}
	return nil
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
