// Package web is the JSON HTTP adapter over usecases.Engine. Handlers only
// decode requests, call the engine and map errors to status codes.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/slot-scheduler/internal/application/usecases"
	"github.com/example/slot-scheduler/internal/auth"
	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/internaltypes"
	"go.uber.org/zap"
)

type Server struct {
	Engine   *usecases.Engine
	Sessions *auth.Sessions
	Log      *zap.Logger

	limits *limiterStore
}

type Limits struct {
	RPS   float64
	Burst int
}

func New(engine *usecases.Engine, sessions *auth.Sessions, log *zap.Logger, l Limits) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{Engine: engine, Sessions: sessions, Log: log, limits: newLimiterStore(l.RPS, l.Burst)}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	authed := func(h http.HandlerFunc) http.Handler {
		return s.rateLimit(s.Sessions.RequireCaller(h))
	}
	mux.Handle("POST /v1/availability", authed(s.handleDeclare))
	mux.Handle("GET /v1/providers/{id}/availability", authed(s.handleListAvailability))
	mux.Handle("GET /v1/availability", authed(s.handleSearch))
	mux.Handle("POST /v1/reservations", authed(s.handleBook))
	mux.Handle("GET /v1/reservations/mine", authed(s.handleListMine))
	mux.Handle("POST /v1/reservations/{id}/cancel", authed(s.handleCancel))
	mux.Handle("GET /internal/reservations/{id}/access", authed(s.handleAccess))

	return s.logging(mux)
}

func caller(r *http.Request) user.Caller {
	c, _ := auth.CallerFromContext(r.Context())
	return c
}

type declareBody struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (s *Server) handleDeclare(w http.ResponseWriter, r *http.Request) {
	var body declareBody
	if !s.decode(w, r, &body) {
		return
	}
	c := caller(r)
	slots, err := s.Engine.DeclareAvailability(r.Context(), c, usecases.DeclareRequest{Day: body.Day, Start: body.Start, End: body.End})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"owner_id": c.ID, "count": len(slots), "slots": slots})
}

func (s *Server) handleListAvailability(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("id")
	slots, err := s.Engine.ListAvailability(r.Context(), ownerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"owner_id": ownerID, "slots": nonNil(slots)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := reservation.SlotFilter{OwnerID: strings.TrimSpace(q.Get("owner_id"))}
	for _, b := range []struct {
		key string
		dst **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		v := strings.TrimSpace(q.Get(b.key))
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeError(w, r, badRequest(b.key+" must be RFC3339"))
			return
		}
		*b.dst = &t
	}
	if v := q.Get("include_booked"); v != "" {
		inc, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, badRequest("include_booked must be a boolean"))
			return
		}
		f.IncludeBooked = inc
	}

	slots, err := s.Engine.SearchAvailability(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(slots), "slots": nonNil(slots)})
}

type bookBody struct {
	SlotID string `json:"slot_id"`
	Kind   string `json:"kind"`
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var body bookBody
	if !s.decode(w, r, &body) {
		return
	}
	kind, err := reservation.ParseKind(body.Kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.Engine.Book(r.Context(), caller(r), usecases.BookRequest{SlotID: body.SlotID, Kind: kind})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"reservation": v})
}

func (s *Server) handleListMine(w http.ResponseWriter, r *http.Request) {
	list, err := s.Engine.ListMine(r.Context(), caller(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(list), "reservations": nonNil(list)})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	v, err := s.Engine.Cancel(r.Context(), caller(r), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservation": v})
}

// handleAccess serves the signaling collaborator: only the reservation's
// parties and admins may read it.
func (s *Server) handleAccess(w http.ResponseWriter, r *http.Request) {
	a, err := s.Engine.LookupFor(r.Context(), caller(r), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, r, badRequest("invalid JSON body"))
		return false
	}
	return true
}

func badRequest(msg string) error {
	return fmt.Errorf("%w: %s", internaltypes.ErrValidation, msg)
}

func statusFor(err error) int {
	switch internaltypes.Class(err) {
	case "validation":
		return http.StatusBadRequest
	case "conflict":
		return http.StatusConflict
	case "not_found":
		return http.StatusNotFound
	case "forbidden":
		return http.StatusForbidden
	case "unauthorized":
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		s.Log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, code, map[string]string{"error": msg, "class": internaltypes.Class(err)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.Log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
