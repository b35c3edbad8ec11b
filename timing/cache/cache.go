// Package cache provides an L1 data-cache timing model using Akita cache
// components. It tracks tags only: values stay in emu.Memory and the cache
// decides how long an fld/fsd takes.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters. Sizes are counted in memory
// cells, one floating-point word per address.
type Config struct {
	// Size in cells
	Size int `json:"size" yaml:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity" yaml:"associativity"`
	// BlockSize in cells (cache line size)
	BlockSize int `json:"block_size" yaml:"block_size"`
	// HitLatency in cycles
	HitLatency uint64 `json:"hit_latency" yaml:"hit_latency"`
	// MissLatency in cycles (includes memory access time)
	MissLatency uint64 `json:"miss_latency" yaml:"miss_latency"`
}

// DefaultL1DConfig returns the default data-cache configuration: 1024
// cells, 4-way, 16-cell lines. Hit latency equals the default load/store
// latency so a warm cache matches the cacheless timing.
func DefaultL1DConfig() Config {
	return Config{
		Size:          1024,
		Associativity: 4,
		BlockSize:     16,
		HitLatency:    2,
		MissLatency:   12,
	}
}

// Validate checks that every field is positive and that Size holds a whole
// number of sets.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("size must be > 0")
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be > 0")
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block_size must be > 0")
	}
	if c.HitLatency == 0 {
		return fmt.Errorf("hit_latency must be > 0")
	}
	if c.MissLatency == 0 {
		return fmt.Errorf("miss_latency must be > 0")
	}
	if c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("size %d must be a multiple of associativity * block_size (%d)",
			c.Size, c.Associativity*c.BlockSize)
	}
	return nil
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of cycles this access takes.
	Latency uint64
	// Evicted is true if a valid block was evicted.
	Evicted bool
	// EvictedAddr is the address of the evicted block (if Evicted is true).
	EvictedAddr uint64
}

// StoreForwardLatency is the extra latency (in cycles) when a load reads
// the address of the most recent store and takes the value from the store
// buffer.
const StoreForwardLatency uint64 = 1

// Cache represents an L1 data cache using Akita cache components.
type Cache struct {
	// Configuration
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Statistics
	stats Statistics

	// Store buffer tracking for store-to-load forwarding detection.
	recentStoreAddr  uint64
	recentStoreValid bool
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64 `json:"reads"`
	Writes     uint64 `json:"writes"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Evictions  uint64 `json:"evictions"`
	Writebacks uint64 `json:"writebacks"`
}

// HitRate returns hits over accesses, or 0 with no accesses.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// New creates a new cache with the given configuration. The configuration
// must pass Validate.
func New(config Config) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	return (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
}

// Read performs a cache read access.
// Returns the access result including hit/miss and latency.
func (c *Cache) Read(addr uint64) AccessResult {
	c.stats.Reads++

	block := c.directory.Lookup(0, c.blockAddr(addr))

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)

		latency := c.config.HitLatency
		if c.recentStoreValid && c.recentStoreAddr == addr {
			latency += StoreForwardLatency
			c.recentStoreValid = false
		}

		return AccessResult{
			Hit:     true,
			Latency: latency,
		}
	}

	c.stats.Misses++
	return c.handleMiss(addr, false)
}

// Write performs a cache write access.
// Uses write-allocate policy: on miss, the block is allocated, then written.
func (c *Cache) Write(addr uint64) AccessResult {
	c.stats.Writes++

	c.recentStoreAddr = addr
	c.recentStoreValid = true

	block := c.directory.Lookup(0, c.blockAddr(addr))

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		block.IsDirty = true

		return AccessResult{
			Hit:     true,
			Latency: c.config.HitLatency,
		}
	}

	c.stats.Misses++
	return c.handleMiss(addr, true)
}

// handleMiss allocates a block for addr, evicting the LRU victim.
func (c *Cache) handleMiss(addr uint64, isWrite bool) AccessResult {
	result := AccessResult{
		Hit:     false,
		Latency: c.config.MissLatency,
	}

	blockAddr := c.blockAddr(addr)

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return result
	}

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = victim.Tag

		if victim.IsDirty {
			c.stats.Writebacks++
		}
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = isWrite

	c.directory.Visit(victim)

	return result
}

// Flush counts a writeback for every dirty block and invalidates all
// blocks.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Clone returns an independent copy of the cache state.
func (c *Cache) Clone() *Cache {
	clone := *c

	src := c.directory
	dst := akitacache.NewDirectory(src.NumSets, src.NumWays, src.BlockSize,
		akitacache.NewLRUVictimFinder())
	for i, set := range src.Sets {
		to := &dst.Sets[i]
		for j, b := range set.Blocks {
			to.Blocks[j].Tag = b.Tag
			to.Blocks[j].IsValid = b.IsValid
			to.Blocks[j].IsDirty = b.IsDirty
		}

		to.LRUQueue = to.LRUQueue[:0]
		for _, b := range set.LRUQueue {
			to.LRUQueue = append(to.LRUQueue, to.Blocks[b.WayID])
		}
	}
	clone.directory = dst

	return &clone
}
