package notify

import (
	"encoding/gob"
	"net/http"
	"sync"

	"github.com/gorilla/sessions"
)

// MaxQueued caps a session's queue. When full, the oldest notification is
// dropped. The cookie's own size limit may drop more; see SessionStore.Add.
const MaxQueued = 8

const queueKey = "_toasts"

func init() {
	gob.Register(Notification{})
	gob.Register([]Notification{})
}

// SessionStore keeps each browser session's queue in its session cookie.
type SessionStore struct {
	store sessions.Store
	name  string
}

// NewSessionStore returns a queue stored in the named session.
func NewSessionStore(store sessions.Store, name string) *SessionStore {
	return &SessionStore{store: store, name: name}
}

// Add appends n and saves the session. A securecookie value is limited to
// 4096 bytes, so when the encoded queue does not fit the oldest toasts are
// dropped until it does. If n alone is still too large it is kept without
// its detail.
func (s *SessionStore) Add(w http.ResponseWriter, r *http.Request, n Notification) error {
	sess, err := s.store.Get(r, s.name)
	if err != nil && sess == nil {
		return err
	}
	prev, _ := sess.Values[queueKey].([]Notification)

	queue := make([]Notification, 0, len(prev)+1)
	queue = append(queue, prev...)
	queue = append(queue, n)
	if len(queue) > MaxQueued {
		queue = queue[len(queue)-MaxQueued:]
	}

	for {
		sess.Values[queueKey] = queue
		if err = sess.Save(r, w); err == nil {
			return nil
		}
		if len(queue) == 1 {
			break
		}
		queue = queue[1:]
	}

	bare := n
	bare.Detail = ""
	sess.Values[queueKey] = []Notification{bare}
	if sess.Save(r, w) == nil {
		return nil
	}

	// Leave the queue as it was so a later Save does not fail too.
	if prev == nil {
		delete(sess.Values, queueKey)
	} else {
		sess.Values[queueKey] = prev
	}
	return err
}

func (s *SessionStore) Drain(w http.ResponseWriter, r *http.Request) ([]Notification, error) {
	sess, err := s.store.Get(r, s.name)
	if err != nil && sess == nil {
		return nil, err
	}
	queue, _ := sess.Values[queueKey].([]Notification)
	if len(queue) == 0 {
		return nil, nil
	}
	delete(sess.Values, queueKey)
	if err := sess.Save(r, w); err != nil {
		return nil, err
	}
	return queue, nil
}

// MemoryStore is a single in-process queue. Each instance is isolated,
// which is what tests want.
type MemoryStore struct {
	mu    sync.Mutex
	queue []Notification
}

// NewMemoryStore returns an empty queue.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Add(_ http.ResponseWriter, _ *http.Request, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, n)
	return nil
}

func (m *MemoryStore) Drain(_ http.ResponseWriter, _ *http.Request) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.queue
	m.queue = nil
	return q, nil
}

// Peek returns a copy of the queue without draining it.
func (m *MemoryStore) Peek() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.queue))
	copy(out, m.queue)
	return out
}
