package loadbalancer

import "sync"

type RoundRobin struct {
	mu      sync.Mutex
	current int
}

func NewRoundRobin() *RoundRobin {
	return &RoundRobin{current: 0}
}

// Returns the next upstream in round-robin order
func (r *RoundRobin) Next(upstreams []string) string {
	if len(upstreams) == 0 {
		return ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	upstream := upstreams[r.current%len(upstreams)]
	r.current++

	return upstream
}

// Returns the strategy name
func (r *RoundRobin) Name() string {
	return "round_robin"
}
