package observability

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Stats holds the relay's runtime counters. All methods are safe for
// concurrent use; reads use atomic loads so hot paths never take a lock.
type Stats struct {
	startedAt         time.Time
	liveConnections   int64
	totalConnections  uint64
	messagesRelayed   uint64
	persistFailures   uint64
	droppedDeliveries uint64
}

func NewStats() *Stats {
	return &Stats{startedAt: time.Now()}
}

func (s *Stats) ConnOpened() {
	atomic.AddInt64(&s.liveConnections, 1)
	atomic.AddUint64(&s.totalConnections, 1)
}

func (s *Stats) ConnClosed() {
	atomic.AddInt64(&s.liveConnections, -1)
}

func (s *Stats) IncrRelayed() {
	atomic.AddUint64(&s.messagesRelayed, 1)
}

func (s *Stats) IncrPersistFailure() {
	atomic.AddUint64(&s.persistFailures, 1)
}

func (s *Stats) IncrDroppedDelivery() {
	atomic.AddUint64(&s.droppedDeliveries, 1)
}

func (s *Stats) LiveConnections() int64 {
	return atomic.LoadInt64(&s.liveConnections)
}

func (s *Stats) MessagesRelayed() uint64 {
	return atomic.LoadUint64(&s.messagesRelayed)
}

func (s *Stats) DroppedDeliveries() uint64 {
	return atomic.LoadUint64(&s.droppedDeliveries)
}

// Snapshot returns a point-in-time view suitable for the debug endpoint
// and heartbeat logs.
func (s *Stats) Snapshot() map[string]any {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]any{
		"uptime":             time.Since(s.startedAt).Round(time.Second).String(),
		"live_connections":   atomic.LoadInt64(&s.liveConnections),
		"total_connections":  atomic.LoadUint64(&s.totalConnections),
		"messages_relayed":   atomic.LoadUint64(&s.messagesRelayed),
		"persist_failures":   atomic.LoadUint64(&s.persistFailures),
		"dropped_deliveries": atomic.LoadUint64(&s.droppedDeliveries),
		"goroutines":         runtime.NumGoroutine(),
		"heap_alloc_bytes":   mem.HeapAlloc,
	}
}
