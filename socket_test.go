package smartsock

import (
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestSmartSocketGetOrCreateConnectionIsIdempotent(t *testing.T) {
	socket, err := NewSmartSocket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer socket.Shutdown()

	peer, _ := net.ResolveUDPAddr("udp", "127.0.0.1:2")
	c1 := socket.GetOrCreateConnection(peer)
	c2 := socket.GetOrCreateConnection(peer)
	require.Same(t, c1, c2)
}

func TestSmartSocketBadPacketSizeFiresObserverWithoutConnection(t *testing.T) {
	socket, err := NewSmartSocket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer socket.Shutdown()

	var badSizes []int
	socket.AddObserver(funcBadPacketObserver{onBad: func(_ net.Addr, size int) {
		badSizes = append(badSizes, size)
	}})
	socket.AsyncReceive()

	client, err := net.Dial("udp", socket.LocalAddr().String())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write(make([]byte, headerSize-1)) // too small
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(badSizes) == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, headerSize-1, badSizes[0])
	require.Equal(t, 0, socket.Stats().ConnectionCount, "a bad datagram never creates a connection")
}

func TestSmartSocketShutdownFiresOnce(t *testing.T) {
	socket, err := NewSmartSocket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	var shutdowns int
	socket.AddObserver(funcShutdownObserver{onShutdown: func() { shutdowns++ }})

	require.NoError(t, socket.Shutdown())
	require.NoError(t, socket.Shutdown())
	require.Equal(t, 1, shutdowns)
}

func TestSmartSocketMetricsCollectorsRegister(t *testing.T) {
	socket, err := NewSmartSocket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer socket.Shutdown()

	reg := prometheus.NewRegistry()
	for _, c := range socket.Metrics().Collectors() {
		require.NoError(t, reg.Register(c))
	}
}

type funcBadPacketObserver struct {
	NoopObserver
	onBad func(net.Addr, int)
}

func (f funcBadPacketObserver) OnBadPacketSize(addr net.Addr, size int) {
	if f.onBad != nil {
		f.onBad(addr, size)
	}
}

type funcShutdownObserver struct {
	NoopObserver
	onShutdown func()
}

func (f funcShutdownObserver) OnSocketShutdown() {
	if f.onShutdown != nil {
		f.onShutdown()
	}
}
