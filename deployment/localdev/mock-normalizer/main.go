package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

type inputEvent struct {
	Timestamp     string `json:"timestamp"`
	EventType     string `json:"event_type"`
	SourceIP      string `json:"source_ip"`
	DestinationIP string `json:"destination_ip,omitempty"`
	Username      string `json:"username,omitempty"`
	Message       string `json:"message,omitempty"`
}

type eventsRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// demoEvents builds a small dataset exercising every detector: a failed-login
// burst, a watchlisted source, a port scan and some benign background noise.
func demoEvents(base time.Time) []inputEvent {
	ts := func(offset time.Duration) string {
		return base.Add(offset).UTC().Format("2006-01-02 15:04:05")
	}
	return []inputEvent{
		{Timestamp: ts(0), EventType: "failed_login", SourceIP: "10.0.0.10", Username: "alice", Message: "Invalid password"},
		{Timestamp: ts(10 * time.Second), EventType: "failed_login", SourceIP: "10.0.0.10", Username: "alice", Message: "Invalid password"},
		{Timestamp: ts(20 * time.Second), EventType: "failed_login", SourceIP: "10.0.0.10", Username: "alice", Message: "Invalid password"},
		{Timestamp: ts(30 * time.Second), EventType: "failed_login", SourceIP: "10.0.0.10", Username: "alice", Message: "Invalid password"},
		{Timestamp: ts(2 * time.Minute), EventType: "error", SourceIP: "185.22.33.44", Message: "Unexpected payload on admin endpoint"},
		{Timestamp: ts(3 * time.Minute), EventType: "conn_attempt", SourceIP: "203.0.113.9", DestinationIP: "192.168.1.30", Message: "SYN"},
		{Timestamp: ts(3*time.Minute + 5*time.Second), EventType: "conn_attempt", SourceIP: "203.0.113.9", DestinationIP: "192.168.1.31", Message: "SYN"},
		{Timestamp: ts(3*time.Minute + 10*time.Second), EventType: "conn_attempt", SourceIP: "203.0.113.9", DestinationIP: "192.168.1.32", Message: "SYN"},
		{Timestamp: ts(3*time.Minute + 15*time.Second), EventType: "conn_attempt", SourceIP: "203.0.113.9", DestinationIP: "192.168.1.33", Message: "SYN"},
		{Timestamp: ts(5 * time.Minute), EventType: "success", SourceIP: "10.0.0.3", Username: "bob", Message: "Login ok"},
		{Timestamp: ts(6 * time.Minute), EventType: "info", SourceIP: "10.0.0.3", Message: "Session refreshed"},
		{Timestamp: ts(7 * time.Minute), EventType: "warning", SourceIP: "10.0.0.7", Message: "Disk usage above 80%"},
		{Timestamp: ts(8 * time.Minute), EventType: "process_crash", SourceIP: "10.0.0.12", Message: "payments worker exited"},
	}
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req eventsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		base := req.Start
		if base.IsZero() {
			base = time.Now().Add(-10 * time.Minute)
		}
		events := demoEvents(base)
		if !req.End.IsZero() {
			filtered := events[:0]
			for _, ev := range events {
				ts, err := time.Parse("2006-01-02 15:04:05", ev.Timestamp)
				if err != nil || !ts.After(req.End.UTC()) {
					filtered = append(filtered, ev)
				}
			}
			events = filtered
		}

		writeJSON(w, map[string]any{"events": events})
	})

	mux.HandleFunc("/api/v1/reports", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var report map[string]any
		if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		log.Printf("archived report %v", report["report_id"])
		w.WriteHeader(http.StatusCreated)
	})

	logger := log.New(log.Writer(), "normalizer-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":9090",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :9090")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
