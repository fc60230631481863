// Package server exposes chord analysis over HTTP: uploads are stored in a
// directory and analyzed with whatever Analyzer the server was built with.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/olivier-w/enchordify/internal/analysis"
	"github.com/olivier-w/enchordify/internal/logger"
)

// Options configures a Server.
type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	AllowedOrigins []string
}

// Server is the analysis HTTP API.
type Server struct {
	opts     Options
	analyzer analysis.Analyzer
	router   *mux.Router
	log      *zap.Logger
}

// New builds the router. The upload directory is created on demand.
func New(a analysis.Analyzer, opts Options) *Server {
	if opts.UploadDir == "" {
		opts.UploadDir = "uploads"
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		opts:     opts,
		analyzer: a,
		router:   mux.NewRouter(),
		log:      logger.Named("server"),
	}

	s.router.Use(s.requestID)
	s.router.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	s.router.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadDir))),
	).Methods(http.MethodGet, http.MethodHead)
	s.router.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	s.router.HandleFunc("/analyze/uploaded", s.handleAnalyzeUploaded).Methods(http.MethodPost)
	return s
}

// Handler returns the router wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         86400,
	}).Handler(s.router)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := os.MkdirAll(s.opts.UploadDir, 0o755); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 2 * time.Minute,
		// analysis of a long track can take minutes
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr), zap.String("uploads", s.opts.UploadDir))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

type ctxKey struct{}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
		s.log.Debug("request",
			zap.String("id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func requestLog(r *http.Request, l *zap.Logger) *zap.Logger {
	if id, ok := r.Context().Value(ctxKey{}).(string); ok {
		return l.With(zap.String("request", id))
	}
	return l
}
