package inmemdb

import (
	"context"
	"sync"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
	"github.com/KushalGupta-07/Smart-Admission-System/core/profile"
	"github.com/KushalGupta-07/Smart-Admission-System/core/user"
)

// DB is an in-memory store used by tests and local runs without Postgres.
// A single lock guards every table so that joins see a consistent state.
type DB struct {
	mu sync.RWMutex

	users        map[string]*user.User
	profiles     map[string]*profile.Profile // by user ID
	applications map[string]*application.Application
	documents    map[string]*application.Document
	admitCards   map[string]*application.AdmitCard // by application ID

	onChange func(core.ChangeEvent)
}

var _ core.Transactor = (*DB)(nil) // interface compliance check

func Open() *DB {
	return &DB{
		users:        make(map[string]*user.User),
		profiles:     make(map[string]*profile.Profile),
		applications: make(map[string]*application.Application),
		documents:    make(map[string]*application.Document),
		admitCards:   make(map[string]*application.AdmitCard),
	}
}

// OnChange sets the hook called after every application row change,
// the way the Postgres trigger notifies listeners.
func (db *DB) OnChange(fn func(core.ChangeEvent)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.onChange = fn
}

// InTx runs fn directly: the in-memory store has no rollback.
func (db *DB) InTx(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	return fn(nil)
}

// notify must be called without holding db.mu.
func (db *DB) notify(table, op, id string) {
	db.mu.RLock()
	fn := db.onChange
	db.mu.RUnlock()
	if fn != nil {
		fn(core.ChangeEvent{Table: table, Op: op, ID: id})
	}
}
