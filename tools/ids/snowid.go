// Package ids issues time-ordered unique ids: 41 bits of millisecond
// timestamp, 10 bits of node, 12 bits of sequence. The gateway uses them for
// connection ids so a reconnecting device never reuses the id of its previous
// connection.
package ids

import (
	"strconv"
	"sync"
	"time"
)

const (
	nodeBits = 10
	seqBits  = 12

	MaxNode = 1<<nodeBits - 1
	seqMask = 1<<seqBits - 1
)

var epochMS = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

// Generator is one id source. Each gateway process constructs its own with
// its node number and hands it to whoever mints ids; there is no package
// singleton.
type Generator struct {
	mu   sync.Mutex
	node int64
	seq  int64
	last int64 // last issued timestamp, ms since epoch
}

// New returns a generator for the given node (0..MaxNode). Out-of-range nodes
// are clamped to 1 rather than rejected; a misconfigured node number should
// not stop a gateway from serving.
func New(node int64) *Generator {
	if node < 0 || node > MaxNode {
		node = 1
	}
	return &Generator{node: node}
}

// Next returns a new id, strictly increasing per generator.
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	if now < g.last {
		// clock went backwards; keep issuing on the frozen tick
		now = g.last
	}
	if now == g.last {
		g.seq = (g.seq + 1) & seqMask
		if g.seq == 0 {
			// sequence exhausted within this millisecond, spin to the next
			for now <= g.last {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		g.seq = 0
	}
	g.last = now

	return (now-epochMS)<<(nodeBits+seqBits) | g.node<<seqBits | g.seq
}

func (g *Generator) NextString() string {
	return strconv.FormatInt(g.Next(), 10)
}
