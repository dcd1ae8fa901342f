package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"phylopipe/internal/journal"
)

// server exposes a finished run directory plus the provenance journal over
// HTTP, so operators can browse index.html and audit runs without shell
// access to the pipeline host.
type server struct {
	runDir      string
	journalPath string
}

type runSummary struct {
	ID      string `json:"id"`
	Entries int    `json:"entries"`
	Failed  int    `json:"failed"`
}

// openJournal reloads the journal on every request: the pipeline appends to
// it from another process, so nothing here is worth caching.
func (s *server) openJournal(w http.ResponseWriter) (*journal.Journal, bool) {
	j, err := journal.Open(s.journalPath)
	if err != nil {
		http.Error(w, "cannot open journal: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return j, true
}

// GET /api/runs
func (s *server) handleRuns(w http.ResponseWriter, r *http.Request) {
	j, ok := s.openJournal(w)
	if !ok {
		return
	}

	order := []string{}
	summaries := make(map[string]*runSummary)
	for _, e := range j.Entries() {
		sum, seen := summaries[e.RunID]
		if !seen {
			sum = &runSummary{ID: e.RunID}
			summaries[e.RunID] = sum
			order = append(order, e.RunID)
		}
		sum.Entries++
		if e.ExitCode != 0 {
			sum.Failed++
		}
	}

	out := make([]*runSummary, 0, len(order))
	for _, id := range order {
		out = append(out, summaries[id])
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// GET /api/runs/{id}
func (s *server) handleRun(w http.ResponseWriter, r *http.Request) {
	j, ok := s.openJournal(w)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var entries []*journal.Entry
	for _, e := range j.Entries() {
		if e.RunID == id {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

// GET /api/journal/verify
func (s *server) handleVerify(w http.ResponseWriter, r *http.Request) {
	j, ok := s.openJournal(w)
	if !ok {
		return
	}
	if err := j.VerifyChain(); err != nil {
		http.Error(w, "journal verification failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := j.VerifySignatures(); err != nil {
		http.Error(w, "journal signature check failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte("journal verification ok\n"))
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	runDir := flag.String("dir", "runs", "run directory to serve")
	journalPath := flag.String("journal", "journal.jsonl", "provenance journal path")
	flag.Parse()

	if port := os.Getenv("PORT"); port != "" {
		*addr = ":" + port
	}

	s := &server{runDir: *runDir, journalPath: *journalPath}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Get("/api/runs", s.handleRuns)
	r.Get("/api/runs/{id}", s.handleRun)
	r.Get("/api/journal/verify", s.handleVerify)
	r.Handle("/*", http.FileServer(http.Dir(s.runDir)))

	fmt.Printf("phylopipe-server listening on %s (serving %s)\n", *addr, s.runDir)
	if err := http.ListenAndServe(*addr, r); err != nil {
		fmt.Println("server error:", err)
		os.Exit(1)
	}
}
