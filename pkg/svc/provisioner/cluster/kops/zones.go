package kopsprovisioner

import "errors"

// ErrNoZones is returned when the region has no available zones.
var ErrNoZones = errors.New("no availability zones available")

// SelectZones keeps the provider's order and takes the first min(want, len(available)) zones.
// A want below one selects a single zone.
func SelectZones(available []string, want int) ([]string, error) {
	if len(available) == 0 {
		return nil, ErrNoZones
	}

	want = max(want, 1)
	want = min(want, len(available))

	return append([]string(nil), available[:want]...), nil
}

// NodesPerZone spreads nodes over zones round-robin: 3 nodes over [a b] gives {a:2 b:1}.
func NodesPerZone(zones []string, nodes int) map[string]int {
	placement := make(map[string]int, len(zones))
	if len(zones) == 0 {
		return placement
	}

	for _, zone := range zones {
		placement[zone] = 0
	}

	for i := range max(nodes, 0) {
		placement[zones[i%len(zones)]]++
	}

	return placement
}
