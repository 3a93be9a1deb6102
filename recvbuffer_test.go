package smartsock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecvBufferInsertAndRemoveOldest(t *testing.T) {
	b := NewRecvBuffer()
	b.Insert(5, Packet{Header: PacketHeader{SeqNum: 5}})
	b.Insert(2, Packet{Header: PacketHeader{SeqNum: 2}})
	b.Insert(9, Packet{Header: PacketHeader{SeqNum: 9}})

	p, ok := b.removeOldest()
	require.True(t, ok)
	require.Equal(t, SeqNum(2), p.Header.SeqNum)

	p, ok = b.removeOldest()
	require.True(t, ok)
	require.Equal(t, SeqNum(5), p.Header.SeqNum)
}

func TestRecvBufferDuplicateInsertReportsSameSeqNum(t *testing.T) {
	b := NewRecvBuffer()
	b.Insert(7, Packet{Header: PacketHeader{SeqNum: 7}, Payload: []byte("first")})
	evicted, had := b.Insert(7, Packet{Header: PacketHeader{SeqNum: 7}, Payload: []byte("second")})
	require.True(t, had)
	require.Equal(t, SeqNum(7), evicted.Header.SeqNum)
}

func TestRecvBufferOverflowDisplacesOlderSeqNum(t *testing.T) {
	b := NewRecvBuffer()
	b.Insert(0, Packet{Header: PacketHeader{SeqNum: 0}})
	evicted, had := b.Insert(recvBufferCapacity, Packet{Header: PacketHeader{SeqNum: recvBufferCapacity}})
	require.True(t, had)
	require.Equal(t, SeqNum(0), evicted.Header.SeqNum)
}

func TestRecvBufferEmpty(t *testing.T) {
	b := NewRecvBuffer()
	require.True(t, b.Empty())
	b.Insert(0, Packet{})
	require.False(t, b.Empty())
	require.Equal(t, 1, b.Len())
}
