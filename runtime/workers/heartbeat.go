package workers

import (
	"chat-relay/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Heartbeat periodically logs process health and relay counters so an
// operator tailing the logs can see the service breathing.
type Heartbeat struct {
	log      *slog.Logger
	stats    *observability.Stats
	interval time.Duration
}

func NewHeartbeat(log *slog.Logger, stats *observability.Stats, interval time.Duration) *Heartbeat {
	return &Heartbeat{log: log, stats: stats, interval: interval}
}

func (h *Heartbeat) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			h.beat(proc)
		}
	}
}

func (h *Heartbeat) beat(proc *process.Process) {
	attrs := []any{
		"live_connections", h.stats.LiveConnections(),
		"messages_relayed", h.stats.MessagesRelayed(),
		"dropped_deliveries", h.stats.DroppedDeliveries(),
	}

	if mem, err := proc.MemoryInfo(); err == nil {
		attrs = append(attrs, "rss_mb", mem.RSS/1024/1024)
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		attrs = append(attrs, "cpu_percent", cpu)
	}

	h.log.Info("heartbeat", attrs...)
}
