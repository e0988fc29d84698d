package pool

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestStatsSnapshot(t *testing.T) {
	p, err := New("snap", []int{1, 2, 3}, testSettings(3))
	require.NoError(t, err)
	defer p.Close()

	lease, err := p.TryGet()
	require.NoError(t, err)

	st := p.Stats()
	require.Equal(t, "snap", st.Pool)
	require.Equal(t, 2, st.Available)
	require.Equal(t, 1, st.Active)
	require.Equal(t, 3, st.Capacity)
	require.Equal(t, 3, st.Live)
	require.Equal(t, uint64(3), st.TotalCreated)
	require.InDelta(t, 1.0/3.0, st.Utilization, 1e-9)
	require.Equal(t, "disabled", st.BreakerState)

	lease.Release()
}

func TestStatsJSONRoundTrip(t *testing.T) {
	p, err := New("snap", []int{1}, testSettings(1))
	require.NoError(t, err)
	defer p.Close()

	data, err := EncodeJSON(p.Stats())
	require.NoError(t, err)
	require.Contains(t, string(data), `"breaker_state":"disabled"`)

	var decoded Stats
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "snap", decoded.Pool)
	require.Equal(t, 1, decoded.Available)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, p.Stats()))
	require.Equal(t, string(data), buf.String())
}
