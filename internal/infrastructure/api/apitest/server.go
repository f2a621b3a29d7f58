// Package apitest provides an in-process fake of the yield provider for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
)

// Response is a scripted reply served before falling back to the dataset
type Response struct {
	Status     int
	Body       string
	RetryAfter int
}

// Server is a fake yield provider. It checks the bearer key, replays any
// scripted responses in order and then serves observations from its dataset.
type Server struct {
	*httptest.Server

	apiKey string

	mu       sync.Mutex
	script   []Response
	data     map[string]map[string]string
	queries  []url.Values
	authSeen []string
}

// NewServer starts a fake provider that accepts apiKey
func NewServer(apiKey string) *Server {
	s := &Server{
		apiKey: apiKey,
		data:   make(map[string]map[string]string),
	}

	router := mux.NewRouter()
	router.HandleFunc("/query", s.handleQuery).
		Methods(http.MethodGet).
		Queries("function", "TREASURY_YIELD_CURVE")
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		writeJSON(w, http.StatusOK, map[string]string{"Error Message": "Invalid API call."})
	})

	s.Server = httptest.NewServer(router)
	return s
}

// SetObservation stores a yield, written as a string the way the provider does
func (s *Server) SetObservation(date, maturity string, yield string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[date] == nil {
		s.data[date] = make(map[string]string)
	}
	s.data[date][maturity] = yield
}

// Enqueue schedules responses served to the next requests, one each
func (s *Server) Enqueue(responses ...Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append(s.script, responses...)
}

// Requests returns how many requests reached the server
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

// Queries returns a copy of the query parameters of every request received
func (s *Server) Queries() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]url.Values, len(s.queries))
	copy(out, s.queries)
	return out
}

// AuthHeaders returns the Authorization headers seen, in order
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.authSeen))
	copy(out, s.authSeen)
	return out
}

func (s *Server) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, r.URL.Query())
	s.authSeen = append(s.authSeen, r.Header.Get("Authorization"))
}

func (s *Server) next() (Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.script) == 0 {
		return Response{}, false
	}
	r := s.script[0]
	s.script = s.script[1:]
	return r, true
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	s.record(r)

	if r.Header.Get("Authorization") != "Bearer "+s.apiKey {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
		return
	}

	if scripted, ok := s.next(); ok {
		if scripted.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(scripted.RetryAfter))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(scripted.Status)
		_, _ = w.Write([]byte(scripted.Body))
		return
	}

	q := r.URL.Query()
	start, end := q.Get("start_date"), q.Get("end_date")
	wanted := make(map[string]bool)
	for _, m := range strings.Split(q.Get("maturities"), ",") {
		wanted[m] = true
	}

	s.mu.Lock()
	data := make(map[string]map[string]string)
	for date, byMaturity := range s.data {
		// ISO dates compare lexically
		if (start != "" && date < start) || (end != "" && date > end) {
			continue
		}
		row := make(map[string]string)
		for m, v := range byMaturity {
			if wanted[m] {
				row[m] = v
			}
		}
		if len(row) > 0 {
			data[date] = row
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"meta": map[string]string{
			"function": q.Get("function"),
			"interval": q.Get("interval"),
			"unit":     "percent",
		},
		"data": data,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
