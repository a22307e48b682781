package vm

import (
	"github.com/ethereum/go-ethereum/common/lru"

	"github.com/eth2030/meteredvm/core/types"
	"github.com/eth2030/meteredvm/crypto"
)

// DefaultJumpDestCacheSize is the default byte budget of a JumpDestCache.
const DefaultJumpDestCacheSize = 16 * 1024 * 1024

// JumpDests is a bit vector over code offsets. A set bit marks a JUMPDEST
// opcode that is not part of any PUSH immediate.
type JumpDests []byte

func (d JumpDests) set(pos uint64) {
	d[pos/8] |= 1 << (pos % 8)
}

// Contains reports whether pos is a valid jump destination.
func (d JumpDests) Contains(pos uint64) bool {
	if pos/8 >= uint64(len(d)) {
		return false
	}
	return d[pos/8]&(1<<(pos%8)) != 0
}

// analyseJumpDests walks code once, skipping PUSH immediates, and marks
// every JUMPDEST opcode.
func analyseJumpDests(code []byte) JumpDests {
	dests := make(JumpDests, len(code)/8+1)
	for pc := uint64(0); pc < uint64(len(code)); {
		op := OpCode(code[pc])
		switch {
		case op == JUMPDEST:
			dests.set(pc)
			pc++
		case op.IsPush():
			pc += uint64(op.PushBytes()) + 1
		default:
			pc++
		}
	}
	return dests
}

// JumpDestCache memoizes jump destination analysis per code hash. It is safe
// for concurrent use; two callers racing on the same new code may both run
// the analysis, and the last insert wins.
type JumpDestCache struct {
	cache *lru.SizeConstrainedCache[types.Hash, JumpDests]
}

// NewJumpDestCache returns a cache holding at most maxBytes of analysis
// results, evicting the least recently used entries first.
func NewJumpDestCache(maxBytes uint64) *JumpDestCache {
	return &JumpDestCache{
		cache: lru.NewSizeConstrainedCache[types.Hash, JumpDests](maxBytes),
	}
}

// JumpDestinations returns the valid jump targets of code. codeHash must be
// the Keccak-256 of code, or zero to have it computed here.
func (c *JumpDestCache) JumpDestinations(codeHash types.Hash, code []byte) JumpDests {
	if codeHash == (types.Hash{}) {
		codeHash = crypto.Keccak256Hash(code)
	}
	if codeHash == types.EmptyCodeHash {
		return analyseJumpDests(code)
	}
	if dests, ok := c.cache.Get(codeHash); ok {
		jumpdestHitMeter.Mark(1)
		return dests
	}
	jumpdestMissMeter.Mark(1)
	dests := analyseJumpDests(code)
	c.cache.Add(codeHash, dests)
	return dests
}
