package realtime

import (
	"github.com/Araz9999/naxtap-sub005/tools/safe"
)

type fanoutJob struct {
	conns   []*Conn
	payload []byte
}

// Fanout delivers one encoded payload to many connections through a small
// worker pool. Sends into per-connection queues are non-blocking: a slow
// client drops frames rather than stalling the pool, which matches the
// best-effort delivery contract. A job may outlive a connection it snapshotted
// (the close path never closes Send, see Conn), so delivery to an
// already-closed conn lands in its buffer and is discarded with it.
type Fanout struct {
	jobs chan fanoutJob
}

func NewFanout(workers, queue int) *Fanout {
	if workers <= 0 {
		workers = 4
	}
	if queue <= 0 {
		queue = 1024
	}
	f := &Fanout{jobs: make(chan fanoutJob, queue)}
	for i := 0; i < workers; i++ {
		safe.Go(func() {
			for job := range f.jobs {
				for _, c := range job.conns {
					select {
					case c.Send <- job.payload:
					default:
						// slow client: skip
					}
				}
			}
		})
	}
	return f
}

func (f *Fanout) Broadcast(conns []*Conn, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	f.jobs <- fanoutJob{conns: conns, payload: payload}
}

func (f *Fanout) Close() { close(f.jobs) }
