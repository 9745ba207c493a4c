package healthcheck

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Probe checks one dependency (postgres, redis) within the given context.
type Probe func(ctx context.Context) error

// Checker runs named dependency probes on an interval and keeps the last
// known status of each, so /health answers from memory instead of probing
// inline on every request.
type Checker struct {
	mu       sync.RWMutex
	probes   map[string]Probe
	names    []string
	statuses map[string]*Status

	interval    time.Duration
	timeout     time.Duration
	maxFailures int
	logger      *zap.Logger
	stopChan    chan struct{}
	running     bool
}

// Holds health checker configuration
type Config struct {
	Interval    time.Duration // How often to check (default: 10s)
	Timeout     time.Duration // Probe timeout (default: 5s)
	MaxFailures int           // Failures before marking unhealthy (default: 3)
}

func NewChecker(cfg Config, logger *zap.Logger) *Checker {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}

	return &Checker{
		probes:      make(map[string]Probe),
		statuses:    make(map[string]*Status),
		interval:    cfg.Interval,
		timeout:     cfg.Timeout,
		maxFailures: cfg.MaxFailures,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}
}

// Register adds a named dependency probe. Must be called before Start.
func (c *Checker) Register(name string, probe Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.probes[name] = probe
	c.names = append(c.names, name)
	c.statuses[name] = &Status{
		Name:      name,
		IsHealthy: true, // Assume healthy initially
		LastCheck: time.Now(),
	}
}

// Begins periodic health checks
func (c *Checker) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	c.logger.Info("starting dependency health checks",
		zap.Int("probes", len(c.probes)),
		zap.Duration("interval", c.interval),
	)

	// Run initial check immediately
	c.checkAll()

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.checkAll()
			case <-c.stopChan:
				return
			}
		}
	}()
}

// Stops the health checker
func (c *Checker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		close(c.stopChan)
		c.running = false
	}
}

func (c *Checker) checkAll() {
	c.mu.RLock()
	names := make([]string, len(c.names))
	copy(names, c.names)
	c.mu.RUnlock()

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(n string) {
			defer wg.Done()
			c.check(n)
		}(name)
	}
	wg.Wait()
}

func (c *Checker) check(name string) {
	c.mu.RLock()
	probe := c.probes[name]
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := probe(ctx); err != nil {
		c.recordFailure(name, err)
		return
	}
	c.recordSuccess(name)
}

func (c *Checker) recordSuccess(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := c.statuses[name]
	status.LastCheck = time.Now()
	status.LastSuccess = time.Now()
	status.FailureCount = 0

	if !status.IsHealthy {
		c.logger.Info("dependency recovered", zap.String("dependency", name))
		status.IsHealthy = true
	}
}

func (c *Checker) recordFailure(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := c.statuses[name]
	status.LastCheck = time.Now()
	status.LastFailure = time.Now()
	status.FailureCount++

	if status.IsHealthy && status.FailureCount >= c.maxFailures {
		c.logger.Warn("dependency unhealthy",
			zap.String("dependency", name),
			zap.Int("failures", status.FailureCount),
			zap.Error(err),
		)
		status.IsHealthy = false
	}
}

// Snapshot returns a copy of every dependency's last known status.
func (c *Checker) Snapshot() map[string]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]Status, len(c.statuses))
	for name, status := range c.statuses {
		out[name] = *status
	}
	return out
}

// Overall reduces the per-dependency statuses to one service health.
func (c *Checker) Overall() HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	unhealthy := 0
	for _, status := range c.statuses {
		if !status.IsHealthy {
			unhealthy++
		}
	}

	switch {
	case unhealthy == 0:
		return Healthy
	case unhealthy < len(c.statuses):
		return Degraded
	default:
		return Unhealthy
	}
}
