package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/codelab-edu/grader/internal/grader"
	"github.com/codelab-edu/grader/internal/logger"
	"github.com/codelab-edu/grader/internal/validator"
	customErr "github.com/codelab-edu/grader/pkg/errors"
	"github.com/codelab-edu/grader/pkg/grading"
	"github.com/codelab-edu/grader/pkg/languages"
	"github.com/codelab-edu/grader/pkg/messages"
)

// Grader is the engine surface the transport layer depends on.
type Grader interface {
	Grade(ctx context.Context, sub *grading.Submission) (*grading.Summary, error)
	Status() grader.PoolStatus
}

type Server struct {
	engine Grader
	router *mux.Router
	srv    *http.Server
	logger *zap.SugaredLogger
}

func NewServer(port int, engine Grader) *Server {
	s := &Server{
		engine: engine,
		logger: logger.NewNamedLogger("server"),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/grade", s.GradeHandler).Methods(http.MethodPost)
	// Liveness must stay responsive under full grading load; these handlers
	// never touch the worker pool.
	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/liveness", s.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/status", s.StatusHandler).Methods(http.MethodGet)
	s.router = r

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server in a goroutine and reports startup failures on the
// returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down http server")
	return s.srv.Shutdown(ctx)
}

// GradeHandler grades one submission synchronously. The request context is
// passed through to the engine, so a disconnected client cancels all of its
// in-flight executions.
func (s *Server) GradeHandler(w http.ResponseWriter, r *http.Request) {
	var req messages.GradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messages.ErrorResponse{
			Error: "request body is not valid JSON",
		})
		return
	}

	sub, vErr := validator.Validate(&req)
	if vErr != nil {
		writeJSON(w, http.StatusBadRequest, messages.ErrorResponse{
			Error: vErr.Message,
			Field: vErr.Field,
			Code:  vErr.Code,
		})
		return
	}

	summary, err := s.engine.Grade(r.Context(), sub)
	if err != nil {
		switch {
		case errors.Is(err, customErr.ErrEngineBusy):
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusServiceUnavailable, messages.ErrorResponse{
				Error: "grading pool is saturated, retry later",
			})
		case errors.Is(err, context.Canceled):
			// Client went away; nothing useful to write.
			s.logger.Infof("Grading cancelled by client")
		default:
			// Infrastructure failure must stay visibly distinct from "the
			// student's code failed": no summary, no score.
			s.logger.Errorf("Grading failed: %s", err)
			writeJSON(w, http.StatusInternalServerError, messages.ErrorResponse{
				Error: "grading backend unavailable, retry later",
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) StatusHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pool":      s.engine.Status(),
		"languages": languages.GetSupportedLanguages(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
