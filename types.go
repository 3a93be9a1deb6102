package smartsock

// SocketStats aggregates counters across every connection currently
// registered on a SmartSocket, for callers that want a single snapshot
// rather than walking connections themselves.
type SocketStats struct {
	ConnectionCount int
	LiveCount       int
	TotalSent       uint64
	TotalRecv       uint64
	TotalAckd       uint64
}

// Stats returns a snapshot aggregated across every registered connection.
func (s *SmartSocket) Stats() SocketStats {
	s.registryMu.RLock()
	conns := make([]*Connection, 0, len(s.registry))
	for _, conn := range s.registry {
		conns = append(conns, conn)
	}
	s.registryMu.RUnlock()

	var stats SocketStats
	stats.ConnectionCount = len(conns)
	for _, conn := range conns {
		cs := conn.Stats()
		stats.TotalSent += cs.SentCount
		stats.TotalRecv += cs.RecvCount
		stats.TotalAckd += cs.AckdCount
		if !cs.IsDead {
			stats.LiveCount++
		}
	}
	return stats
}
