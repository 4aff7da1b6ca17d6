// Package runstore records clone runs. The default backend is an
// in-process map; setting RUN_STORE_PG_DSN switches to Postgres so
// several pagesmithd instances can share history. Run records are
// bookkeeping only and never feed back into generation.
package runstore

import (
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

type Mode string

const (
	ModeAI       Mode = "ai"
	ModeScaffold Mode = "scaffold"
)

// Record is one clone run.
type Record struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Status     Status    `json:"status"`
	Mode       Mode      `json:"mode,omitempty"`
	Passes     int       `json:"passes"`
	Error      string    `json:"error,omitempty"`
	OutDir     string    `json:"out_dir,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// Store keeps run records in memory or in Postgres. With a DB attached,
// an LRU cache absorbs repeated reads of recently touched records.
type Store struct {
	mu   sync.RWMutex
	byID map[string]Record

	db         *sql.DB
	cache      *lru.Cache[string, Record]
	schemaOnce sync.Once
	schemaErr  error
}

// New returns a memory-backed store.
func New() *Store {
	return &Store{byID: make(map[string]Record)}
}

// NewPostgres connects to Postgres through the pgx stdlib driver.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, Record](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, cache: cache}, nil
}

func (s *Store) Close() error {
	if s != nil && s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Put(rec Record) error {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.putDB(rec)
	}
	s.mu.Lock()
	s.byID[rec.ID] = rec
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(id string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	if s.db != nil {
		return s.getDB(id)
	}
	s.mu.RLock()
	rec, ok := s.byID[id]
	s.mu.RUnlock()
	return rec, ok
}

// Update applies fn to the stored record and persists the result.
func (s *Store) Update(id string, fn func(*Record)) (Record, bool) {
	if s == nil || fn == nil {
		return Record{}, false
	}
	if s.db != nil {
		rec, ok := s.getDB(id)
		if !ok {
			return Record{}, false
		}
		fn(&rec)
		if err := s.putDB(rec); err != nil {
			return Record{}, false
		}
		return rec, true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return Record{}, false
	}
	fn(&rec)
	s.byID[id] = rec
	return rec, true
}

// Recent returns up to n records, newest first.
func (s *Store) Recent(n int) []Record {
	if s == nil || n <= 0 {
		return nil
	}
	if s.db != nil {
		return s.recentDB(n)
	}
	s.mu.RLock()
	out := make([]Record, 0, len(s.byID))
	for _, rec := range s.byID {
		out = append(out, rec)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
