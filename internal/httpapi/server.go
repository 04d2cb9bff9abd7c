package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"horae/internal/horae/service"
	"horae/internal/horae/store"
	"horae/internal/horae/types"
)

type Dependencies struct {
	Logger  *log.Logger
	Addr    string
	Adapter *service.CaptureAdapter
	Ledger  store.AttendanceLedger
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	adapter    *service.CaptureAdapter
	ledger     store.AttendanceLedger
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:  d.Logger,
		mux:     mux,
		adapter: d.Adapter,
		ledger:  d.Ledger,
	}

	mux.HandleFunc("POST /v1/capture", s.handleCapture)
	mux.HandleFunc("GET /v1/attendance/{day}", s.handleAttendanceDay)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleCapture ingests one normalized device event from the capture
// shim. 202 means enqueued, not recorded: the adapter loop decides what
// the event does.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	var ev types.CaptureEvent
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	if !ev.Kind.Known() {
		writeError(w, http.StatusBadRequest, "unknown_kind", "unknown capture event kind")
		return
	}

	if err := s.adapter.Submit(ev); err != nil {
		if errors.Is(err, service.ErrQueueFull) {
			writeError(w, http.StatusServiceUnavailable, "queue_full", "capture queue full, retry")
			return
		}
		s.logger.Printf("capture submit error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

type attendanceRecordResponse struct {
	RecordID    string `json:"record_id"`
	IdentityID  string `json:"identity_id"`
	DisplayName string `json:"display_name"`
	GroupLabel  string `json:"group_label"`
	Day         string `json:"day"`
	TimeIn      string `json:"time_in"`
	TimeOut     string `json:"time_out,omitempty"`
}

// handleAttendanceDay serves the day report consumed by external
// reporting tools.
func (s *Server) handleAttendanceDay(w http.ResponseWriter, r *http.Request) {
	day, err := types.ParseDay(r.PathValue("day"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_day", "day must be YYYY-MM-DD")
		return
	}

	records, err := s.ledger.ListDay(r.Context(), day)
	if err != nil {
		s.logger.Printf("attendance list error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	out := make([]attendanceRecordResponse, 0, len(records))
	for _, rec := range records {
		resp := attendanceRecordResponse{
			RecordID:    rec.RecordID,
			IdentityID:  rec.IdentityID,
			DisplayName: rec.DisplayName,
			GroupLabel:  rec.GroupLabel,
			Day:         string(rec.Day),
			TimeIn:      rec.TimeIn.Format(time.RFC3339),
		}
		if rec.TimeOut != nil {
			resp.TimeOut = rec.TimeOut.Format(time.RFC3339)
		}
		out = append(out, resp)
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": code, "message": msg})
}

func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now().UTC()
		next.ServeHTTP(w, r)
		logger.Printf("%s %s from=%s dur=%s", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}
