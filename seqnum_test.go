package smartsock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeqNumGreaterThan(t *testing.T) {
	require.True(t, SeqNum(5).GreaterThan(SeqNum(3)))
	require.False(t, SeqNum(3).GreaterThan(SeqNum(5)))
	require.False(t, SeqNum(5).GreaterThan(SeqNum(5)))
}

func TestSeqNumGreaterThanWrapsAround(t *testing.T) {
	// 65535 is one step behind 0 on the ring, so 0 ⪴ 65535.
	require.True(t, SeqNum(0).GreaterThan(SeqNum(65535)))
	require.False(t, SeqNum(65535).GreaterThan(SeqNum(0)))
}

func TestSeqNumGreaterThanTransitive(t *testing.T) {
	// Invariant 1 from §8: s ⪴ t ∧ t ⪴ u ⇒ s ⪴ u, when pairwise
	// distances all stay under 2^15.
	s, tt, u := SeqNum(100), SeqNum(50), SeqNum(10)
	require.True(t, s.GreaterThan(tt))
	require.True(t, tt.GreaterThan(u))
	require.True(t, s.GreaterThan(u))
}

func TestSeqNumAddSub(t *testing.T) {
	assert.Equal(t, SeqNum(65535), SeqNum(0).Sub(1))
	assert.Equal(t, SeqNum(0), SeqNum(65535).Add(1))
	assert.Equal(t, uint16(1), SeqNum(0).Distance(SeqNum(65535)))
}
