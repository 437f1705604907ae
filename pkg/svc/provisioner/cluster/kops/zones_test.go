package kopsprovisioner_test

import (
	"testing"

	kopsprovisioner "github.com/devantler-tech/kci/pkg/svc/provisioner/cluster/kops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectZones(t *testing.T) {
	t.Parallel()

	available := []string{"eu-west-1a", "eu-west-1b", "eu-west-1c"}

	tests := []struct {
		name string
		want int
		out  []string
	}{
		{name: "fewer than available", want: 2, out: []string{"eu-west-1a", "eu-west-1b"}},
		{name: "exactly available", want: 3, out: available},
		{name: "more than available", want: 5, out: available},
		{name: "zero selects one", want: 0, out: []string{"eu-west-1a"}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			zones, err := kopsprovisioner.SelectZones(available, testCase.want)

			require.NoError(t, err)
			assert.Equal(t, testCase.out, zones)
		})
	}
}

func TestSelectZones_NoneAvailable(t *testing.T) {
	t.Parallel()

	_, err := kopsprovisioner.SelectZones(nil, 3)

	require.ErrorIs(t, err, kopsprovisioner.ErrNoZones)
}

func TestSelectZones_DoesNotAliasInput(t *testing.T) {
	t.Parallel()

	available := []string{"a", "b"}

	zones, err := kopsprovisioner.SelectZones(available, 2)
	require.NoError(t, err)

	zones[0] = "changed"

	assert.Equal(t, "a", available[0])
}

func TestNodesPerZone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		zones []string
		nodes int
		want  map[string]int
	}{
		{name: "three nodes two zones", zones: []string{"a", "b"}, nodes: 3, want: map[string]int{"a": 2, "b": 1}},
		{name: "even spread", zones: []string{"a", "b", "c"}, nodes: 6, want: map[string]int{"a": 2, "b": 2, "c": 2}},
		{name: "fewer nodes than zones", zones: []string{"a", "b", "c"}, nodes: 1, want: map[string]int{"a": 1, "b": 0, "c": 0}},
		{name: "no zones", zones: nil, nodes: 3, want: map[string]int{}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, kopsprovisioner.NodesPerZone(testCase.zones, testCase.nodes))
		})
	}
}
