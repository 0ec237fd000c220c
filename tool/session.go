package tool

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/formflow/go-formflow"
	"github.com/google/uuid"
)

// Session is the explicit per-conversation context threaded through every
// tool call: the form the caller is currently working on plus an optional
// result cache.
//
// The cache maps a hash of (operation, arguments) to the previous result.
// Identical arguments are assumed to be idempotent, which holds for the
// read operations the cache serves; mutating operations are never answered
// from cache and clear it instead.
type Session struct {
	ID string

	mu            sync.Mutex
	currentFormID formflow.FormID
	cache         map[string]Result
	cacheEnabled  bool
}

// NewSession creates a session with a fresh identifier. The cache starts
// disabled.
func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}

// EnableCache turns on result memoization for read operations.
func (s *Session) EnableCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheEnabled = true
	if s.cache == nil {
		s.cache = map[string]Result{}
	}
}

// CurrentFormID returns the form the session is working on, if any.
func (s *Session) CurrentFormID() formflow.FormID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentFormID
}

// SetCurrentFormID records the form later calls default to when their
// arguments omit one.
func (s *Session) SetCurrentFormID(id formflow.FormID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentFormID = id
}

// cacheKey hashes the operation name and the canonical JSON encoding of the
// arguments.
func cacheKey(op Operation, args json.RawMessage) string {
	canonical := args
	var decoded any
	if err := json.Unmarshal(args, &decoded); err == nil {
		if b, err := json.Marshal(decoded); err == nil {
			canonical = b
		}
	}
	sum := sha256.Sum256(append([]byte(op), canonical...))
	return hex.EncodeToString(sum[:])
}

// cached returns the memoized result for a read operation.
func (s *Session) cached(op Operation, args json.RawMessage) (Result, bool) {
	if s == nil || op.Mutating() {
		return Result{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cacheEnabled {
		return Result{}, false
	}
	r, ok := s.cache[cacheKey(op, args)]
	return r, ok
}

// remember stores a read result, or drops the whole cache after a write
// since any memoized read may now be stale.
func (s *Session) remember(op Operation, args json.RawMessage, result Result) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cacheEnabled {
		return
	}
	if op.Mutating() {
		s.cache = map[string]Result{}
		return
	}
	if result.OK() {
		s.cache[cacheKey(op, args)] = result
	}
}
