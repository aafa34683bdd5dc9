package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"store-rating-server/entities"
	"store-rating-server/metrics"
)

const writeWait = 5 * time.Second

// Summary is the message pushed to subscribers of a store.
type Summary struct {
	Type          string  `json:"type"`
	StoreID       string  `json:"store_id"`
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
}

func NewSummary(storeID string, agg entities.RatingAggregate) Summary {
	return Summary{Type: "rating_summary", StoreID: storeID, AverageRating: agg.Average, TotalRatings: agg.Total}
}

// Subscriber is one websocket connection watching one store. Writes are
// serialized because a gorilla connection allows a single concurrent writer.
type Subscriber struct {
	storeID string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (s *Subscriber) Send(msg Summary) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

// Manager keeps track of live subscribers per store.
type Manager struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscriber]struct{} // storeID -> subscribers
	log         logrus.FieldLogger
}

func NewManager(log logrus.FieldLogger) *Manager {
	return &Manager{subscribers: make(map[string]map[*Subscriber]struct{}), log: log}
}

// Register adds a connection as a subscriber of storeID.
func (m *Manager) Register(storeID string, conn *websocket.Conn) *Subscriber {
	sub := &Subscriber{storeID: storeID, conn: conn}
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.subscribers[storeID]
	if !ok {
		set = make(map[*Subscriber]struct{})
		m.subscribers[storeID] = set
	}
	set[sub] = struct{}{}
	metrics.SubscriberOpened()
	return sub
}

// Unregister removes and closes a subscriber. Calling it twice is harmless.
func (m *Manager) Unregister(sub *Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.subscribers[sub.storeID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(m.subscribers, sub.storeID)
	}
	_ = sub.conn.Close()
	metrics.SubscriberClosed()
}

// Publish sends the aggregate to every subscriber of storeID and drops the
// ones that can no longer be written to.
func (m *Manager) Publish(storeID string, agg entities.RatingAggregate) {
	m.mu.RLock()
	subs := make([]*Subscriber, 0, len(m.subscribers[storeID]))
	for sub := range m.subscribers[storeID] {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	msg := NewSummary(storeID, agg)
	for _, sub := range subs {
		if err := sub.Send(msg); err != nil {
			m.log.WithError(err).WithField("store_id", storeID).Debug("dropping live subscriber")
			m.Unregister(sub)
		}
	}
}

// Count returns the number of subscribers watching storeID.
func (m *Manager) Count(storeID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers[storeID])
}
