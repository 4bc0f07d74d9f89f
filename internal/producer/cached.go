package producer

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/quantlab/backtestcore/internal/data"
	"github.com/quantlab/backtestcore/internal/domain"
)

// CachedProducer wraps a Producer core and materializes the first full
// traversal into a single in-memory sequence, so repeated replays
// (parameter sweeps) over the same container avoid re-parsing source
// columns.
type CachedProducer struct {
	container *data.Container
	inner     *Producer
	logger    *slog.Logger

	built     bool
	dataCache []domain.Tick
	tsCache   []int64

	initStart, initStop int
	cursor              int
	hasData             bool
}

// NewCachedProducer constructs a cached producer over a container. The
// cache is built lazily on the first Setup call.
func NewCachedProducer(container *data.Container, logger *slog.Logger) *CachedProducer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedProducer{
		container: container,
		inner:     New(container, logger),
		logger:    logger,
	}
}

// Setup binds a replay window. On the first call it drains the inner
// producer over the container's entire range into data_cache/ts_cache
// and clears the inner producer; every call (first and subsequent)
// resolves [startNs, stopNs] to half-open index bounds in ts_cache via
// binary search.
func (c *CachedProducer) Setup(startNs, stopNs int64) error {
	if startNs > stopNs || startNs < c.container.MinTsNs() || stopNs > c.container.MaxTsNs() {
		return fmt.Errorf("producer: cached setup(%d, %d) outside [%d, %d]: %w",
			startNs, stopNs, c.container.MinTsNs(), c.container.MaxTsNs(), ErrWindowInvalid)
	}

	if !c.built {
		if err := c.inner.Setup(c.container.MinTsNs(), c.container.MaxTsNs()); err != nil {
			return err
		}
		for {
			tick, ok := c.inner.Next()
			if !ok {
				break
			}
			c.dataCache = append(c.dataCache, tick)
			c.tsCache = append(c.tsCache, tick.TsNs())
		}
		c.inner.Clear()
		c.built = true
		c.logger.Debug("cached producer drained container", slog.Int("tick_count", len(c.dataCache)))
	}

	c.initStart = sort.Search(len(c.tsCache), func(i int) bool { return c.tsCache[i] >= startNs })
	c.initStop = sort.Search(len(c.tsCache), func(i int) bool { return c.tsCache[i] > stopNs })
	c.reposition()
	return nil
}

// Reset restores the cursor to init_start.
func (c *CachedProducer) Reset() {
	c.reposition()
}

func (c *CachedProducer) reposition() {
	c.cursor = c.initStart
	c.hasData = c.cursor < c.initStop
}

// HasData reflects the current window's non-emptiness.
func (c *CachedProducer) HasData() bool { return c.hasData }

// Next returns data_cache[cursor] and advances, or (nil, false) past
// init_stop.
func (c *CachedProducer) Next() (domain.Tick, bool) {
	if c.cursor >= c.initStop {
		c.hasData = false
		return nil, false
	}
	tick := c.dataCache[c.cursor]
	c.cursor++
	c.hasData = c.cursor < c.initStop
	return tick, true
}
