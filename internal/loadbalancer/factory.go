package loadbalancer

import "fmt"

// Creates an upstream selection strategy based on name
func NewStrategy(strategyName string) (Strategy, error) {
	switch strategyName {
	case "round-robin", "round_robin", "":
		return NewRoundRobin(), nil
	default:
		return nil, fmt.Errorf("unknown load balancing strategy: %s", strategyName)
	}
}
