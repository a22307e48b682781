package vm

import (
	"time"

	"github.com/ethereum/go-ethereum/log"
)

type opStats struct {
	count uint64
	total time.Duration
}

// informant collects per-opcode counts and timings for one frame when debug
// output is enabled. A nil informant records nothing.
type informant struct {
	depth   int
	stats   [256]opStats
	current OpCode
	started time.Time
	steps   uint64
}

func newInformant(debug bool, depth int) *informant {
	if !debug {
		return nil
	}
	return &informant{depth: depth}
}

func (inf *informant) before(op OpCode) {
	if inf == nil {
		return
	}
	inf.current = op
	inf.started = time.Now()
}

func (inf *informant) after() {
	if inf == nil {
		return
	}
	s := &inf.stats[inf.current]
	s.count++
	s.total += time.Since(inf.started)
	inf.steps++
}

// done logs the summary of the frame.
func (inf *informant) done(gasUsed uint64, err error) {
	if inf == nil {
		return
	}
	log.Debug("Frame executed", "depth", inf.depth, "steps", inf.steps, "gasUsed", gasUsed, "err", err)
	for op := range inf.stats {
		s := inf.stats[op]
		if s.count == 0 {
			continue
		}
		log.Debug("Opcode timing", "depth", inf.depth, "op", OpCode(op), "count", s.count,
			"total", s.total, "avg", s.total/time.Duration(s.count))
	}
}
