package transport

import (
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rdx-aegse/yamcs-link/log2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pollUntil polls until an event other than EventNone, with a deadline.
func pollUntil(t testing.TB, tr Transporter) (Event, []byte) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ev, data, err := tr.Poll()
		require.NoError(t, err)
		if ev != EventNone {
			return ev, data
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("poll timeout")
	return EventNone, nil
}

func TestNet(t *testing.T) {
	t.Parallel()
	log := log2.NewTest(t, log2.LDebug)

	gcsUDP, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer gcsUDP.Close()

	recv := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_recv_bytes"})
	tr, err := Listen(Options{
		ListenAddr:    "127.0.0.1:0",
		TelemetryAddr: gcsUDP.LocalAddr().String(),
		RecvCounter:   recv,
	}, log)
	require.NoError(t, err)
	defer tr.Close()

	// nothing pending must not block
	ev, data, err := tr.Poll()
	require.NoError(t, err)
	assert.Equal(t, EventNone, ev)
	assert.Nil(t, data)
	assert.False(t, tr.Connected())

	client, err := net.Dial("tcp", tr.Addr().String())
	require.NoError(t, err)
	ev, _ = pollUntil(t, tr)
	assert.Equal(t, EventConnected, ev)
	assert.True(t, tr.Connected())

	_, err = client.Write([]byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, err)
	ev, data = pollUntil(t, tr)
	assert.Equal(t, EventData, ev)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, data)
	assert.Equal(t, float64(4+40), testutil.ToFloat64(recv))

	require.NoError(t, tr.Send([]byte{0x2a}))
	buf := make([]byte, 16)
	require.NoError(t, gcsUDP.SetReadDeadline(time.Now().Add(5*time.Second)))
	n, _, err := gcsUDP.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x2a}, buf[:n])

	require.NoError(t, client.Close())
	ev, _ = pollUntil(t, tr)
	assert.Equal(t, EventDisconnected, ev)
	assert.False(t, tr.Connected())

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	_, _, err = tr.Poll()
	assert.Equal(t, ErrClosed, err)
	assert.Equal(t, ErrClosed, tr.Send(nil))
}

func TestMock(t *testing.T) {
	t.Parallel()

	m := NewMock()
	m.Connect()
	m.Inject([]byte{1, 2})
	assert.Equal(t, 2, m.Pending())
	ev, _, err := m.Poll()
	require.NoError(t, err)
	assert.Equal(t, EventConnected, ev)
	assert.True(t, m.Connected())
	ev, data, _ := m.Poll()
	assert.Equal(t, EventData, ev)
	assert.Equal(t, []byte{1, 2}, data)
	ev, _, _ = m.Poll()
	assert.Equal(t, EventNone, ev)

	require.NoError(t, m.Send([]byte{3}))
	assert.Equal(t, [][]byte{{3}}, m.Sent())
	assert.Nil(t, m.Sent())
	require.NoError(t, m.Close())
	assert.True(t, m.Closed())
	assert.Equal(t, ErrClosed, m.Send(nil))
}
