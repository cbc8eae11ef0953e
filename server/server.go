package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/tliron/commonlog"

	"careerplan/generator"
	"careerplan/publisher"
	"careerplan/store"
)

const (
	generateTimeout = 60 * time.Second
	maxBodyBytes    = 1 << 20
)

var log = commonlog.GetLogger("careerplan.server")

type Server struct {
	genAgent *generator.Agent
	store    store.Store
	pub      *publisher.Publisher
	locks    *surveyLocks
	newID    func() string
}

// surveyLocks serializes generation per survey so two revisions of the
// same plan never interleave their history. An entry lives only while a
// request holds or waits for it.
type surveyLocks struct {
	mu    sync.Mutex
	locks map[string]*surveyLock
}

type surveyLock struct {
	sync.Mutex
	refs int
}

func newLocks() *surveyLocks {
	return &surveyLocks{locks: make(map[string]*surveyLock)}
}

// lock blocks until id is free and returns the matching unlock.
func (l *surveyLocks) lock(id string) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &surveyLock{}
		l.locks[id] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		defer l.mu.Unlock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, id)
		}
	}
}

func New(genAgent *generator.Agent, st store.Store, pub *publisher.Publisher) (*Server, error) {
	if genAgent == nil {
		return nil, errors.New("generator agent required")
	}
	if st == nil {
		return nil, errors.New("survey store required")
	}
	if pub == nil {
		return nil, errors.New("publisher required")
	}
	return &Server{
		genAgent: genAgent,
		store:    st,
		pub:      pub,
		locks:    newLocks(),
		newID:    func() string { return ksuid.New().String() },
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/surveys", s.handleSurveyCreate)
	mux.HandleFunc("GET /api/surveys", s.handleSurveyList)
	mux.HandleFunc("GET /api/surveys/{id}", s.handleSurveyGet)
	mux.HandleFunc("PUT /api/surveys/{id}", s.handleSurveyUpdate)
	mux.HandleFunc("DELETE /api/surveys/{id}", s.handleSurveyDelete)
	mux.HandleFunc("POST /api/surveys/{id}/regenerate", s.handleRegenerate)
	mux.HandleFunc("GET /api/surveys/{id}/export/{format}", s.handleExport)
	mux.HandleFunc("GET /api/surveys/{id}/blocks", s.handleBlocks)
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("GET /api/analytics/user-stats", s.handleStats)
	mux.HandleFunc("GET /plans/{id}", s.handlePlanPage)
	return logMiddleware(mux)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encode response: %s", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps storage failures to a status.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	log.Errorf("store: %s", err)
	writeError(w, http.StatusInternalServerError, "storage failure")
}

// decodeJSON reads a JSON body. An empty body is accepted when optional.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Infof("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
