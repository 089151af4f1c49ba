package memory

import (
	"sync"

	"github.com/yndnr/rawhttpd/pkg/cmap"
)

// TokenSet is a concurrent-safe set of session tokens.
type TokenSet struct {
	mu    sync.RWMutex
	items map[string]struct{}
}

// NewTokenSet creates an empty token set.
func NewTokenSet() *TokenSet {
	return &TokenSet{
		items: make(map[string]struct{}),
	}
}

// Add adds a token to the set.
func (s *TokenSet) Add(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[token] = struct{}{}
}

// Remove removes a token from the set.
func (s *TokenSet) Remove(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
}

// Contains checks if a token is in the set.
func (s *TokenSet) Contains(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[token]
	return ok
}

// Len returns the number of tokens in the set.
func (s *TokenSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Items returns a copy of all tokens.
func (s *TokenSet) Items() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]string, 0, len(s.items))
	for token := range s.items {
		items = append(items, token)
	}
	return items
}

// SubjectIndex maps a subject to the set of tokens issued to it.
//
// Callers that need Add/Remove/Take to be atomic with respect to each other
// must serialize them; SessionStore does so with its own mutex.
type SubjectIndex[S comparable] struct {
	index *cmap.Map[S, *TokenSet]
}

// NewSubjectIndex creates an empty subject index.
func NewSubjectIndex[S comparable]() *SubjectIndex[S] {
	return &SubjectIndex[S]{
		index: cmap.New[S, *TokenSet](),
	}
}

// Add records token under subject.
func (i *SubjectIndex[S]) Add(subject S, token string) {
	set := NewTokenSet()
	if !i.index.SetIfAbsent(subject, set) {
		set, _ = i.index.Get(subject)
	}
	set.Add(token)
}

// Remove drops token from subject's set, deleting the set once empty.
func (i *SubjectIndex[S]) Remove(subject S, token string) {
	set, ok := i.index.Get(subject)
	if !ok {
		return
	}

	set.Remove(token)

	if set.Len() == 0 {
		i.index.Delete(subject)
	}
}

// Get returns all tokens of subject.
func (i *SubjectIndex[S]) Get(subject S) []string {
	set, ok := i.index.Get(subject)
	if !ok {
		return nil
	}
	return set.Items()
}

// Take removes subject from the index and returns its tokens.
func (i *SubjectIndex[S]) Take(subject S) []string {
	set, ok := i.index.Pop(subject)
	if !ok {
		return nil
	}
	return set.Items()
}

// Count returns the number of tokens of subject.
func (i *SubjectIndex[S]) Count(subject S) int {
	set, ok := i.index.Get(subject)
	if !ok {
		return 0
	}
	return set.Len()
}

// Subjects returns the number of subjects with at least one token.
func (i *SubjectIndex[S]) Subjects() int {
	return i.index.Count()
}
