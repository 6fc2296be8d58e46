// Package store implements the in-memory keyspace scripts operate on: string,
// list, hash and set values with optional per-key expiry.
package store

import (
	"errors"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"
)

var (
	// ErrNotFound reports a missing (or expired) key.
	ErrNotFound = errors.New("store: key not found")
	// ErrWrongType reports an operation against a key holding another type.
	ErrWrongType = errors.New("store: wrong type")
	// ErrNotInteger reports a value that cannot be parsed as a 64-bit integer.
	ErrNotInteger = errors.New("store: value is not an integer or out of range")
)

// Type identifies the kind of value stored under a key.
type Type int

const (
	TypeNone Type = iota
	TypeString
	TypeList
	TypeHash
	TypeSet
)

// String returns the name the TYPE command reports.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeHash:
		return "hash"
	case TypeSet:
		return "set"
	default:
		return "none"
	}
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, bool) {
	switch s {
	case "", "string":
		return TypeString, true
	case "list":
		return TypeList, true
	case "hash":
		return TypeHash, true
	case "set":
		return TypeSet, true
	default:
		return TypeNone, false
	}
}

type entry struct {
	typ       Type
	str       string
	list      []string
	hash      map[string]string
	set       map[string]struct{}
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store is a goroutine-safe keyspace.
type Store struct {
	mu    sync.RWMutex
	items map[string]*entry
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for expiry (useful in tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		items: make(map[string]*entry),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lookup returns the live entry for key, evicting it if expired.
// Callers must hold the write lock.
func (s *Store) lookup(key string) *entry {
	e, ok := s.items[key]
	if !ok {
		return nil
	}
	if e.expired(s.now()) {
		delete(s.items, key)
		return nil
	}
	return e
}

func (s *Store) lookupTyped(key string, typ Type) (*entry, error) {
	e := s.lookup(key)
	if e == nil {
		return nil, nil
	}
	if e.typ != typ {
		return nil, ErrWrongType
	}
	return e, nil
}

// dropIfEmpty removes aggregate values that lost their last element.
func (s *Store) dropIfEmpty(key string, e *entry) {
	switch e.typ {
	case TypeList:
		if len(e.list) == 0 {
			delete(s.items, key)
		}
	case TypeHash:
		if len(e.hash) == 0 {
			delete(s.items, key)
		}
	case TypeSet:
		if len(e.set) == 0 {
			delete(s.items, key)
		}
	}
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.items {
		if s.lookup(key) != nil {
			n++
		}
	}
	return n
}

// Flush removes every key.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*entry)
}

// Del removes the given keys and returns how many existed.
func (s *Store) Del(keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, key := range keys {
		if s.lookup(key) != nil {
			delete(s.items, key)
			n++
		}
	}
	return n
}

// Exists counts the given keys that are present. Repeated keys count repeatedly.
func (s *Store) Exists(keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, key := range keys {
		if s.lookup(key) != nil {
			n++
		}
	}
	return n
}

// TypeOf reports the type stored at key, TypeNone when absent.
func (s *Store) TypeOf(key string) Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.lookup(key); e != nil {
		return e.typ
	}
	return TypeNone
}

// Keys returns the live keys matching a glob pattern, sorted.
func (s *Store) Keys(pattern string) ([]string, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		if s.lookup(key) == nil {
			continue
		}
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Expire sets a time to live on key. A non-positive ttl deletes the key.
// It reports whether the key existed.
func (s *Store) Expire(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(key)
	if e == nil {
		return false
	}
	if ttl <= 0 {
		delete(s.items, key)
		return true
	}
	e.expiresAt = s.now().Add(ttl)
	return true
}

// TTL returns the remaining time to live. exists is false for a missing key and
// a zero duration with exists true means the key has no expiry.
func (s *Store) TTL(key string) (ttl time.Duration, exists bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(key)
	if e == nil {
		return 0, false
	}
	if e.expiresAt.IsZero() {
		return 0, true
	}
	return e.expiresAt.Sub(s.now()), true
}

// Persist clears the expiry of key and reports whether one was removed.
func (s *Store) Persist(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(key)
	if e == nil || e.expiresAt.IsZero() {
		return false
	}
	e.expiresAt = time.Time{}
	return true
}

// GetString returns the string value of key.
func (s *Store) GetString(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeString)
	if err != nil {
		return "", err
	}
	if e == nil {
		return "", ErrNotFound
	}
	return e.str, nil
}

// SetString stores a string, replacing any previous value and expiry.
// A positive ttl sets an expiry.
func (s *Store) SetString(key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &entry{typ: TypeString, str: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.items[key] = e
}

// SetNX stores value only when key is absent and reports whether it did.
func (s *Store) SetNX(key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookup(key) != nil {
		return false
	}
	s.items[key] = &entry{typ: TypeString, str: value}
	return true
}

// GetSet stores value and returns the previous string, if any.
func (s *Store) GetSet(key, value string) (old string, existed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeString)
	if err != nil {
		return "", false, err
	}
	if e != nil {
		old, existed = e.str, true
	}
	s.items[key] = &entry{typ: TypeString, str: value}
	return old, existed, nil
}

// IncrBy adds delta to the integer stored at key, creating it at zero.
func (s *Store) IncrBy(key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeString)
	if err != nil {
		return 0, err
	}
	var cur int64
	if e != nil {
		cur, err = strconv.ParseInt(e.str, 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
	}
	if (delta > 0 && cur > maxInt64-delta) || (delta < 0 && cur < minInt64-delta) {
		return 0, ErrNotInteger
	}
	cur += delta
	if e == nil {
		e = &entry{typ: TypeString}
		s.items[key] = e
	}
	e.str = strconv.FormatInt(cur, 10)
	return cur, nil
}

const (
	maxInt64 = int64(^uint64(0) >> 1)
	minInt64 = -maxInt64 - 1
)

// Append appends value to the string at key and returns the new length.
func (s *Store) Append(key, value string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeString)
	if err != nil {
		return 0, err
	}
	if e == nil {
		e = &entry{typ: TypeString}
		s.items[key] = e
	}
	e.str += value
	return len(e.str), nil
}

// StrLen returns the length of the string at key, zero when absent.
func (s *Store) StrLen(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeString)
	if err != nil || e == nil {
		return 0, err
	}
	return len(e.str), nil
}
