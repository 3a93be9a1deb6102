package smartsock

import "time"

// sweepUndelivered implements §4.E's loss-detection pass: walk the sent
// buffer from oldest to newest, releasing anything the peer's latest ack
// has moved SentEvictionWindow seqnums past, or anything older than
// SentEvictionAge, re-enqueueing each with a decremented resend budget.
func (c *Connection) sweepUndelivered(peerAck SeqNum) {
	minSeqNum := peerAck.Sub(uint16(c.socket.config.SentEvictionWindow))
	minTime := time.Now().Add(-c.socket.config.SentEvictionAge)

	for {
		c.mu.Lock()
		if c.sent.Empty() {
			c.mu.Unlock()
			return
		}
		oldest, _ := c.sent.OldestSeqNum()
		oldestTime, _ := c.sent.OldestTime()
		tooFarBehind := minSeqNum.GreaterThan(oldest)
		tooOld := oldestTime.Before(minTime)
		if !tooFarBehind && !tooOld {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		c.removeUndeliveredPacket(oldest)
	}
}

// removeUndeliveredPacket releases s and, if its resend budget allows,
// re-enqueues it with a decremented budget; otherwise the loss is
// accepted silently (§7: exhausted-budget loss is not an error).
func (c *Connection) removeUndeliveredPacket(s SeqNum) {
	c.mu.Lock()
	entry, err := c.sent.Release(s)
	c.mu.Unlock()
	if err != nil {
		return
	}
	if entry.ResendLimit > 0 {
		payload := entry.Packet.Payload
		limit := entry.ResendLimit - 1
		c.socket.executor.post(func() {
			c.doSend(payload, limit)
		})
	}
}

// sweepTimeouts is invoked periodically by the socket's executor even
// when no new packet has arrived, so a dropped packet is retried without
// waiting on the peer to send anything at all (scenario #3 in §8).
func (c *Connection) sweepTimeouts() {
	c.mu.Lock()
	lastPeerAck := c.lastPeerAck
	c.mu.Unlock()
	c.sweepUndelivered(lastPeerAck)
}

// checkLiveness evaluates the liveness policy from §7/§9: a connection
// with no received datagram within max(LivenessFloor, 10*avgRTT) of now
// transitions to Dead. Returns true if this call caused that transition.
func (c *Connection) checkLiveness(now time.Time) bool {
	c.mu.Lock()
	if c.state == connDead {
		c.mu.Unlock()
		return false
	}
	timeout := c.socket.config.livenessTimeout(c.avgRTT)
	expired := now.Sub(c.lastRecvTime) > timeout
	c.mu.Unlock()

	if !expired {
		return false
	}
	c.markDead(true)
	return true
}
