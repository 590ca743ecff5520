package session

import (
	"container/list"
	"sync"
	"time"

	"github.com/bryanwahyu/medreport-ai/internal/domain/report"
)

// Session is one analysed report and the questions asked about it.
type Session struct {
	ID         string                `json:"id"`
	TenantID   string                `json:"tenant_id"`
	ReportText string                `json:"report_text"`
	Result     report.AnalysisResult `json:"result"`
	ImageURL   string                `json:"image_url,omitempty"`
	QA         []report.QAExchange   `json:"qa"`
	CreatedAt  time.Time             `json:"created_at"`
}

// Store keeps live sessions in memory, keyed by tenant and ID. With a TTL,
// sessions idle for longer are dropped; with a capacity, the least recently
// used session is dropped first. Evicted sessions can be rebuilt from the
// history store, without their questions.
// Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	lru      *list.List // front is most recently used
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

type storeEntry struct {
	key     string
	sess    *Session
	touched time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL drops sessions not read or written for d. d <= 0 disables it.
func WithTTL(d time.Duration) StoreOption {
	return func(s *Store) { s.ttl = d }
}

// WithCapacity bounds the number of live sessions. n <= 0 disables it.
func WithCapacity(n int) StoreOption {
	return func(s *Store) { s.capacity = n }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		items: make(map[string]*list.Element),
		lru:   list.New(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func storeKey(tenant, id string) string { return tenant + "/" + id }

// Put replaces any session with the same tenant and ID.
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	k := storeKey(sess.TenantID, sess.ID)
	if el, ok := s.items[k]; ok {
		e := el.Value.(*storeEntry)
		e.sess, e.touched = clone(sess), now
		s.lru.MoveToFront(el)
	} else {
		s.items[k] = s.lru.PushFront(&storeEntry{key: k, sess: clone(sess), touched: now})
	}
	s.evict(now)
}

// Get returns a copy, so callers cannot race with AppendQA.
func (s *Store) Get(tenant, id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.touch(storeKey(tenant, id))
	if !ok {
		return nil, false
	}
	return clone(e.sess), true
}

// AppendQA adds an exchange in arrival order.
func (s *Store) AppendQA(tenant, id string, qa report.QAExchange) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.touch(storeKey(tenant, id))
	if !ok {
		return false
	}
	e.sess.QA = append(e.sess.QA, qa)
	return true
}

// Delete reports whether a session was removed.
func (s *Store) Delete(tenant, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.items[storeKey(tenant, id)]
	if !ok {
		return false
	}
	s.remove(el)
	return true
}

// Len counts live sessions, expired ones included until the next sweep.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// touch returns a live entry and marks it most recently used.
// Callers hold s.mu.
func (s *Store) touch(k string) (*storeEntry, bool) {
	el, ok := s.items[k]
	if !ok {
		return nil, false
	}
	now := s.now()
	e := el.Value.(*storeEntry)
	if s.expired(e, now) {
		s.remove(el)
		return nil, false
	}
	e.touched = now
	s.lru.MoveToFront(el)
	return e, true
}

// evict drops expired entries and then the least recently used ones over
// capacity. Callers hold s.mu.
func (s *Store) evict(now time.Time) {
	for el := s.lru.Back(); el != nil; {
		prev := el.Prev()
		e := el.Value.(*storeEntry)
		over := s.capacity > 0 && s.lru.Len() > s.capacity
		if !over && !s.expired(e, now) {
			break
		}
		s.remove(el)
		el = prev
	}
}

func (s *Store) expired(e *storeEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.touched) > s.ttl
}

func (s *Store) remove(el *list.Element) {
	delete(s.items, el.Value.(*storeEntry).key)
	s.lru.Remove(el)
}

func clone(sess *Session) *Session {
	cp := *sess
	cp.QA = append([]report.QAExchange(nil), sess.QA...)
	if cp.QA == nil {
		cp.QA = []report.QAExchange{}
	}
	return &cp
}
