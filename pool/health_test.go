package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateHealth(t *testing.T) {
	h := evaluateHealth(10, 0, 10)
	require.True(t, h.Healthy)
	require.Zero(t, h.Utilization)
	require.Empty(t, h.Warnings)

	// Exactly at the threshold is still healthy.
	h = evaluateHealth(1, 9, 10)
	require.True(t, h.Healthy)

	h = evaluateHealth(0, 10, 10)
	require.False(t, h.Healthy)
	require.Len(t, h.Warnings, 2)

	h = evaluateHealth(0, 0, 0)
	require.True(t, h.Healthy)
	require.Zero(t, h.Utilization)
}

func TestPoolHealthUnderLoad(t *testing.T) {
	p, err := New("conns", []int{1, 2}, testSettings(2))
	require.NoError(t, err)
	defer p.Close()

	require.True(t, p.Health().Healthy)

	a, err := p.TryGet()
	require.NoError(t, err)
	b, err := p.TryGet()
	require.NoError(t, err)

	h := p.Health()
	require.False(t, h.Healthy)
	require.Equal(t, 1.0, h.Utilization)
	require.Contains(t, h.Warnings[0], "high utilization")
	require.Contains(t, h.Warnings, "pool is empty")

	a.Release()
	b.Release()
	require.True(t, p.Health().Healthy)
}
