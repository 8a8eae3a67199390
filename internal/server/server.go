// Package server exposes the tpsa tool interface over HTTP.
//
// Tool call endpoint: POST /tool
// Schema endpoint:    GET  /schema
// Health endpoint:    GET  /health
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	tpsa "github.com/njchilds90/gotpsa"
	"github.com/njchilds90/gotpsa/internal/config"
)

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

// NewHandler returns the tool mux.
func NewHandler(cfg config.ServerConfig, logger *log.Logger) http.Handler {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	tools := tpsa.ToolHandler{MaxOrder: cfg.MaxOrder}
	mux := http.NewServeMux()

	// POST /tool: handle a tool call
	mux.HandleFunc("/tool", func(w http.ResponseWriter, r *http.Request) {
		reqID := requestID(w, r)
		defer func() {
			if rec := recover(); rec != nil {
				logger.Printf("[%s] panic in /tool: %v\n%s", reqID, rec, string(debug.Stack()))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		defer r.Body.Close()

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		dec.UseNumber()

		var req tpsa.ToolRequest
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, logger, reqID, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		// Ensure there's no trailing junk.
		if dec.More() {
			writeJSON(w, logger, reqID, http.StatusBadRequest, map[string]string{"error": "invalid JSON: trailing data"})
			return
		}

		start := time.Now()
		resp := tools.Handle(req)
		logger.Printf("[%s] tool=%s err=%q took=%s", reqID, req.Tool, resp.Error, time.Since(start))
		writeJSON(w, logger, reqID, http.StatusOK, resp)
	})

	// GET /schema: return tool schema for agent registration
	mux.HandleFunc("/schema", func(w http.ResponseWriter, r *http.Request) {
		requestID(w, r)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, tpsa.ToolSpec())
	})

	// GET /health: liveness check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		reqID := requestID(w, r)
		writeJSON(w, logger, reqID, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	return mux
}

// requestID echoes the caller's request ID or assigns a new one.
func requestID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)
	return id
}

// writeJSON encodes v before writing the header. Encoding failures are
// logged and answered with 500.
func writeJSON(w http.ResponseWriter, logger *log.Logger, reqID string, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Printf("[%s] encoding response: %v", reqID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Printf("[%s] writing response: %v", reqID, err)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg config.ServerConfig, logger *log.Logger) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(cfg, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout.Duration,
		WriteTimeout:      cfg.WriteTimeout.Duration,
		IdleTimeout:       60 * time.Second,
	}

	logger.Printf("tpsa tool server listening on %s", addr)
	logger.Printf("  POST /tool   execute a tool call")
	logger.Printf("  GET  /schema tool schema for agent registration")
	logger.Printf("  GET  /health health check")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
