// Package apitest provides an in-memory coaching backend served over
// httptest for exercising the API client and everything built on it.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/julianstephens/callcoach/internal/models"
)

// Call is one request received by the backend.
type Call struct {
	Method string
	// Route is the matched route template, e.g. /api/templates/{id}/groups.
	Route string
	Path  string
	Body  []byte
}

type failure struct {
	status  int
	message string
	remain  int // <0 means forever
}

// Backend is a fake of the coaching service API.
type Backend struct {
	// Token, when set, must be presented as a bearer token.
	Token string

	mu          sync.Mutex
	seq         int
	templates   map[string]models.Template
	groups      map[string]models.Group
	criteria    map[string]models.Criterion
	assignments []models.Assignment
	sessions    map[string]models.Session
	scores      map[string]map[string]models.Score
	members     []models.TeamMember
	calls       []Call
	failures    map[string]*failure
	delay       time.Duration

	server *httptest.Server
}

// New starts a backend that is shut down when t finishes.
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		templates: make(map[string]models.Template),
		groups:    make(map[string]models.Group),
		criteria:  make(map[string]models.Criterion),
		sessions:  make(map[string]models.Session),
		scores:    make(map[string]map[string]models.Score),
		failures:  make(map[string]*failure),
	}
	b.server = httptest.NewServer(b.router())
	t.Cleanup(b.server.Close)
	return b
}

// URL is the base URL to hand to api.New.
func (b *Backend) URL() string {
	return b.server.URL
}

func (b *Backend) router() http.Handler {
	r := mux.NewRouter()
	r.Use(b.record)

	v := r.PathPrefix("/api").Subrouter()
	v.HandleFunc("/templates", b.listTemplates).Methods("GET")
	v.HandleFunc("/templates", b.createTemplate).Methods("POST")
	v.HandleFunc("/templates/{id}", b.getTemplate).Methods("GET")
	v.HandleFunc("/templates/{id}", b.updateTemplate).Methods("PUT")
	v.HandleFunc("/templates/{id}/publish", b.publishTemplate).Methods("POST")
	v.HandleFunc("/templates/{id}/groups", b.createGroup).Methods("POST")
	v.HandleFunc("/templates/{id}/groups/{groupId}", b.updateGroup).Methods("PUT")
	v.HandleFunc("/templates/{id}/groups/{groupId}", b.deleteGroup).Methods("DELETE")
	v.HandleFunc("/templates/{id}/criteria", b.createCriterion).Methods("POST")
	v.HandleFunc("/templates/{id}/criteria/{criteriaId}", b.updateCriterion).Methods("PUT")
	v.HandleFunc("/templates/{id}/criteria/{criteriaId}", b.deleteCriterion).Methods("DELETE")
	v.HandleFunc("/template-assignments", b.createAssignment).Methods("POST")
	v.HandleFunc("/sessions", b.listSessions).Methods("GET")
	v.HandleFunc("/sessions/{id}", b.getSession).Methods("GET")
	v.HandleFunc("/sessions/{id}", b.deleteSession).Methods("DELETE")
	v.HandleFunc("/sessions/{id}/scores/{criteriaId}", b.submitScore).Methods("PUT")
	v.HandleFunc("/sessions/{id}/complete", b.completeSession).Methods("POST")
	v.HandleFunc("/team", b.listTeam).Methods("GET")
	return r
}

// record logs the call, enforces the bearer token and applies injected
// failures before the handler runs.
func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		var body []byte
		if r.Body != nil {
			var raw json.RawMessage
			if err := json.NewDecoder(r.Body).Decode(&raw); err == nil {
				body = raw
			}
			r.Body.Close()
		}

		b.mu.Lock()
		b.calls = append(b.calls, Call{Method: r.Method, Route: route, Path: r.URL.Path, Body: body})
		delay := b.delay
		f := b.failures[r.Method+" "+route]
		var fail *failure
		if f != nil && f.remain != 0 {
			fail = &failure{status: f.status, message: f.message}
			if f.remain > 0 {
				f.remain--
			}
		}
		b.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if b.Token != "" && r.Header.Get("Authorization") != "Bearer "+b.Token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if fail != nil {
			writeError(w, fail.status, fail.message)
			return
		}

		r.Body = http.NoBody
		if body != nil {
			r.Body = readCloser(body)
		}
		next.ServeHTTP(w, r)
	})
}

// Fail makes every request to method+route answer with status and message.
func (b *Backend) Fail(method, route string, status int, message string) {
	b.FailTimes(method, route, status, message, -1)
}

// FailTimes is Fail limited to the next n matching requests.
func (b *Backend) FailTimes(method, route string, status int, message string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+route] = &failure{status: status, message: message, remain: n}
}

// ClearFailures removes every injected failure.
func (b *Backend) ClearFailures() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = make(map[string]*failure)
}

// SetDelay slows every response down by d.
func (b *Backend) SetDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

// Calls returns the requests received so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

// CallsTo returns the received requests matching method and route.
func (b *Backend) CallsTo(method, route string) []Call {
	var out []Call
	for _, c := range b.Calls() {
		if c.Method == method && c.Route == route {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the call log.
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

func (b *Backend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%d", prefix, b.seq)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

type bodyReader struct{ *strings.Reader }

func (bodyReader) Close() error { return nil }

func readCloser(data []byte) bodyReader {
	return bodyReader{strings.NewReader(string(data))}
}
