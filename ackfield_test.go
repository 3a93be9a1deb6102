package smartsock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAckFieldInsertThenIsAcked(t *testing.T) {
	var a AckField
	a.UpdateForSeqNum(10)
	require.True(t, a.IsAcked(10))
	for k := uint16(1); k <= 32; k++ {
		require.False(t, a.IsAcked(SeqNum(10).Sub(k)), "seq 10-%d should not be acked yet", k)
	}
}

func TestAckFieldUpdateIsIdempotent(t *testing.T) {
	var a, b AckField
	a.UpdateForSeqNum(5)
	a.UpdateForSeqNum(5)
	b.UpdateForSeqNum(5)
	require.Equal(t, b, a)

	a.UpdateForSeqNum(6)
	a.UpdateForSeqNum(6)
	b.UpdateForSeqNum(6)
	require.Equal(t, b, a)
}

func TestAckFieldSlidesWindow(t *testing.T) {
	var a AckField
	for s := SeqNum(0); s < 5; s++ {
		a.UpdateForSeqNum(s)
	}
	require.Equal(t, SeqNum(4), a.Latest)

	var covered []SeqNum
	a.ForEachAckedSeqNum(func(s SeqNum) { covered = append(covered, s) })
	require.ElementsMatch(t, []SeqNum{4, 3, 2, 1, 0}, covered)
}

func TestAckFieldOutOfWindowIgnored(t *testing.T) {
	var a AckField
	a.UpdateForSeqNum(100)
	before := a
	a.UpdateForSeqNum(100 - 33) // outside the 32-bit trailing window
	require.Equal(t, before, a)
	require.False(t, a.IsAcked(SeqNum(100-33)))
}

func TestAckFieldOldAckUncovered(t *testing.T) {
	var a AckField
	a.UpdateForSeqNum(1000)
	require.False(t, a.IsAcked(SeqNum(1000-33)))
}

func TestAckFieldSkipsSeqNums(t *testing.T) {
	var a AckField
	a.UpdateForSeqNum(0)
	a.UpdateForSeqNum(2)
	a.UpdateForSeqNum(4)

	require.True(t, a.IsAcked(4))
	require.True(t, a.IsAcked(2))
	require.True(t, a.IsAcked(0))
	require.False(t, a.IsAcked(1))
	require.False(t, a.IsAcked(3))
}

func TestAckFieldOutOfOrderArrival(t *testing.T) {
	// Receiving 5 then 3 should still mark both covered, matching
	// updateForSeqNum's "else if within window, set the bit" branch.
	var a AckField
	a.UpdateForSeqNum(5)
	a.UpdateForSeqNum(3)
	require.Equal(t, SeqNum(5), a.Latest)
	require.True(t, a.IsAcked(5))
	require.True(t, a.IsAcked(3))
	require.False(t, a.IsAcked(4))
}
