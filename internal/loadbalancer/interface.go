package loadbalancer

// Strategy picks the upstream a call should go to.
type Strategy interface {
	// Selects the next upstream from the available set
	Next(upstreams []string) string

	// Returns the strategy name
	Name() string
}
