package pipeline

import (
	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/timing/cache"
)

// CachedMemoryStage times fld/fsd through an L1 data cache. Values are
// never held in the cache; it only decides the access latency.
type CachedMemoryStage struct {
	cache *cache.Cache
}

// NewCachedMemoryStage creates a new cached memory stage.
func NewCachedMemoryStage(dcache *cache.Cache) *CachedMemoryStage {
	return &CachedMemoryStage{
		cache: dcache,
	}
}

// Access looks up the cache for the access of st, with the base register
// read from regs. Addresses outside memory cost the miss latency without
// touching the cache.
func (s *CachedMemoryStage) Access(
	st *Station,
	isStore bool,
	regs *emu.RegFile,
	limit int64,
) cache.AccessResult {
	off, _ := emu.Imm16(st.Disp)
	addr := regs.ReadReg(st.Base) + off
	if addr < 0 || addr >= limit {
		return cache.AccessResult{Latency: s.cache.Config().MissLatency}
	}

	if isStore {
		return s.cache.Write(uint64(addr))
	}
	return s.cache.Read(uint64(addr))
}

// Flush writes back and invalidates every line.
func (s *CachedMemoryStage) Flush() {
	s.cache.Flush()
}

// CacheStats returns the D-cache statistics.
func (s *CachedMemoryStage) CacheStats() cache.Statistics {
	return s.cache.Stats()
}
