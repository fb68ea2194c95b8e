// Package store provides in-memory storage for interpreter sessions.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lemonberrylabs/tscript/pkg/dispatch"
	"github.com/lemonberrylabs/tscript/pkg/expr"
	"github.com/lemonberrylabs/tscript/pkg/lexer"
	"github.com/lemonberrylabs/tscript/pkg/runtime"
	"github.com/lemonberrylabs/tscript/pkg/types"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// ErrLimit is returned when the store is full.
var ErrLimit = errors.New("session limit reached")

// Session is one interpreter with its own variable scope. Exec calls on a
// session are serialized.
type Session struct {
	id         string
	createTime time.Time

	mu         sync.Mutex
	updateTime time.Time
	statements int
	scope      *runtime.VariableScope
	interp     *expr.Interpreter
}

// SessionInfo is a point-in-time description of a session.
type SessionInfo struct {
	ID         string    `json:"id"`
	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
	Statements int       `json:"statements"`
	Variables  []string  `json:"variables"`
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Exec runs src in the session.
func (s *Session) Exec(src string) ([]expr.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.interp.Exec(src)
	s.statements += len(results)
	s.updateTime = time.Now()
	return results, err
}

// Variables returns the session's visible bindings.
func (s *Session) Variables() map[string]types.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope.Snapshot()
}

// Info describes the session.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:         s.id,
		CreateTime: s.createTime,
		UpdateTime: s.updateTime,
		Statements: s.statements,
		Variables:  s.scope.Names(),
	}
}

// Store is a thread-safe in-memory storage for sessions. All sessions share
// one tokenizer, dispatch table and function registry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	tokenizer *lexer.Tokenizer
	table     *dispatch.Table
	funcs     runtime.FunctionRegistry
	globals   *runtime.VariableScope

	// MaxSessions caps live sessions; zero means unlimited.
	MaxSessions int
}

// New creates a new empty store. globals, if not nil, is frozen and becomes
// the parent scope of every session.
func New(tk *lexer.Tokenizer, table *dispatch.Table, funcs runtime.FunctionRegistry, globals *runtime.VariableScope) *Store {
	if globals == nil {
		globals = runtime.NewScope()
	}
	globals.Freeze()
	return &Store{
		sessions:  make(map[string]*Session),
		tokenizer: tk,
		table:     table,
		funcs:     funcs,
		globals:   globals,
	}
}

// Tokenizer returns the shared tokenizer.
func (st *Store) Tokenizer() *lexer.Tokenizer { return st.tokenizer }

// Table returns the shared dispatch table.
func (st *Store) Table() *dispatch.Table { return st.table }

// Create starts a new session.
func (st *Store) Create() (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.MaxSessions > 0 && len(st.sessions) >= st.MaxSessions {
		return nil, fmt.Errorf("%w (%d)", ErrLimit, st.MaxSessions)
	}

	scope := st.globals.NewChildScope()
	now := time.Now()
	sess := &Session{
		id:         uuid.NewString(),
		createTime: now,
		updateTime: now,
		scope:      scope,
		interp:     expr.NewInterpreter(st.tokenizer, st.table, runtime.NewScopeAdapter(scope, st.funcs)),
	}
	st.sessions[sess.id] = sess
	return sess, nil
}

// Get retrieves a session by ID.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	sess, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session '%s': %w", id, ErrNotFound)
	}
	return sess, nil
}

// Delete removes a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return fmt.Errorf("session '%s': %w", id, ErrNotFound)
	}
	delete(st.sessions, id)
	return nil
}

// List returns all sessions, oldest first.
func (st *Store) List() []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()

	result := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].createTime.Equal(result[j].createTime) {
			return result[i].id < result[j].id
		}
		return result[i].createTime.Before(result[j].createTime)
	})
	return result
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Expire deletes sessions idle since before cutoff and returns how many
// were removed.
func (st *Store) Expire(cutoff time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	n := 0
	for id, s := range st.sessions {
		s.mu.Lock()
		idle := s.updateTime.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}
