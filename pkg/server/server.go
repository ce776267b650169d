// Package server exposes copy, paste and convert over HTTP. Every request
// builds its own document, event and carrier; the response carries the
// representations a browser clipboard would have received.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gfmclip/pkg/clipboard"
	"gfmclip/pkg/config"
	"gfmclip/pkg/copyasgfm"
	"gfmclip/pkg/errors"
	"gfmclip/pkg/logger"
	"gfmclip/pkg/nodes"
	"gfmclip/pkg/paste"
	"gfmclip/pkg/selection"
	"gfmclip/pkg/surface"
)

const maxBodyBytes = 4 << 20

type CopyRequest struct {
	HTML string `json:"html"`
	// Select picks the selected elements; empty selects the whole document.
	Select string `json:"select,omitempty"`
	// Target is the element the copy starts from; defaults to the first
	// selected element.
	Target string `json:"target,omitempty"`
	// Mode is auto, structured or code. Auto dispatches through the
	// registered triggers.
	Mode string `json:"mode,omitempty"`
}

type CopyResponse struct {
	EventID string            `json:"event_id,omitempty" yaml:"event_id,omitempty"`
	Handled bool              `json:"handled" yaml:"handled"`
	Formats map[string]string `json:"formats" yaml:"formats"`
}

type PasteRequest struct {
	Text string `json:"text"`
	// Caret is a rune offset; nil means the end of Text.
	Caret   *int              `json:"caret,omitempty"`
	Formats map[string]string `json:"formats"`
}

type PasteResponse struct {
	Handled bool   `json:"handled" yaml:"handled"`
	Choice  string `json:"choice" yaml:"choice"`
	Text    string `json:"text" yaml:"text"`
	Caret   int    `json:"caret" yaml:"caret"`
}

type ConvertRequest struct {
	HTML string `json:"html"`
}

type ConvertResponse struct {
	Markup string `json:"markup"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Server serves the HTTP surface.
type Server struct {
	surface   *surface.Surface
	component *copyasgfm.Component
	router    chi.Router
}

// New builds a server from cfg. HTTP clients always receive every
// representation, so the component is created with a multi-format carrier.
func New(cfg *config.Config) (*Server, error) {
	s := surface.New()
	c, err := copyasgfm.FromConfig(s, clipboard.Supported, cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Attach(); err != nil {
		return nil, errors.NewWithError(errors.ExitCodeConfig, "failed to bind triggers", err)
	}

	srv := &Server{surface: s, component: c}
	srv.router = srv.routes()
	return srv, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Post("/copy", s.handleCopy)
	r.Post("/paste", s.handlePaste)
	r.Post("/convert", s.handleConvert)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Close detaches the component from the surface.
func (s *Server) Close() {
	s.component.Detach()
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("serving")
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.NewWithError(errors.ExitCodeServer, "server failed", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info().Msg("shutting down")
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return errors.NewWithError(errors.ExitCodeServer, "shutdown failed", err)
		}
		return nil
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		l := logger.With("request_id", middleware.GetReqID(r.Context()))
		l.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	var req CopyRequest
	if !decode(w, r, &req) {
		return
	}
	mode, err := copyasgfm.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	doc, err := nodes.Parse(req.HTML)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.NewWithError(errors.ExitCodeValidation, errors.ErrMsgParseHTML, err))
		return
	}
	selected, err := selection.Select(doc, req.Select)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.ValidationError(fmt.Sprintf("invalid select selector: %v", err)))
		return
	}
	target, err := selection.Target(doc, req.Target, selected)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.ValidationError(err.Error()))
		return
	}

	carrier := clipboard.NewMemoryCarrier()
	resp := CopyResponse{}

	if mode == "" {
		e := &surface.Event{
			ID:        middleware.GetReqID(r.Context()),
			Type:      surface.Copy,
			Target:    target,
			Selection: selection.NewRange(selected...),
			Clipboard: carrier,
		}
		if err := s.surface.Dispatch(e); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		resp.EventID = e.ID
		resp.Handled = e.DefaultPrevented()
	} else {
		err := s.component.CopyFragment(carrier, selection.NewRange(selected...).Fragment(), target, mode)
		switch {
		case err == nil:
			resp.Handled = true
		case errors.IsSkip(err):
		default:
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	if !resp.Handled {
		// The platform default copies plain text only.
		if text := selection.PlainText(selected); text != "" {
			_ = carrier.SetData(s.component.Formats().Plain, text)
		}
	}
	resp.Formats = carrier.Map()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePaste(w http.ResponseWriter, r *http.Request) {
	var req PasteRequest
	if !decode(w, r, &req) {
		return
	}

	area := paste.NewTextArea(req.Text)
	if req.Caret != nil {
		area.SetCaret(*req.Caret)
	}
	start, _ := area.Caret()
	before := string([]rune(req.Text)[:start])

	carrier := clipboard.NewMemoryCarrierFrom(req.Formats)
	formats := s.component.Formats()
	resp := PasteResponse{
		Choice: paste.Classify(before, carrier.GetData(formats.Markup)).String(),
	}

	err := s.component.PasteInto(carrier, area)
	switch {
	case err == nil:
		resp.Handled = true
	case errors.IsSkip(err):
	default:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp.Text = area.String()
	resp.Caret, _ = area.Caret()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if !decode(w, r, &req) {
		return
	}
	markup, err := s.component.Convert(req.HTML)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, ConvertResponse{Markup: markup})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Warn().Err(err).Str("path", r.URL.Path).Msg("invalid request body")
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("response encode failed")
	}
}

// statusFor maps the exit code carried by err to an HTTP status.
func statusFor(err error, fallback int) int {
	switch {
	case errors.IsExitCode(err, errors.ExitCodeValidation):
		return http.StatusBadRequest
	case errors.IsExitCode(err, errors.ExitCodeUnsupported):
		return http.StatusNotImplemented
	default:
		return fallback
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	status = statusFor(err, status)
	resp := errorResponse{Error: err.Error()}
	var gerr *errors.Error
	if stderrors.As(err, &gerr) {
		resp.Suggestion = gerr.Suggestion
	}
	writeJSON(w, status, resp)
}
