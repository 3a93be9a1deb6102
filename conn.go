package smartsock

import (
	"bytes"
	"net"
	"sync"
	"time"
)

// Conn adapts a Connection's discrete-message core onto the byte-stream
// net.Conn interface, for callers that just want Read/Write and don't
// need the message-oriented AsyncSend/DispatchReceivedPackets surface
// directly. It is additive plumbing over the core, not a new component.
type Conn struct {
	conn *Connection

	mu       sync.Mutex
	readBuf  bytes.Buffer
	readCond *sync.Cond
	stopPump chan struct{}

	readDeadline  time.Time
	writeDeadline time.Time
	deadlineTimer *time.Timer
}

func newConn(c *Connection) *Conn {
	fc := &Conn{conn: c, stopPump: make(chan struct{})}
	fc.readCond = sync.NewCond(&fc.mu)
	go fc.pump(c.watch())
	return fc
}

// pump drains the underlying Connection's recv buffer into readBuf
// whenever new data is signaled, waking any blocked Read.
func (c *Conn) pump(signal <-chan struct{}) {
	for {
		select {
		case <-c.stopPump:
			return
		case <-signal:
		}
		c.conn.DispatchReceivedPackets(func(_ *Connection, pkt Packet) {
			c.mu.Lock()
			c.readBuf.Write(pkt.Payload)
			c.mu.Unlock()
			c.readCond.Broadcast()
		})
	}
}

// Read implements net.Conn.
func (c *Conn) Read(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.readBuf.Len() == 0 {
		if c.conn.IsDead() {
			return 0, net.ErrClosed
		}
		if !c.readDeadline.IsZero() && time.Now().After(c.readDeadline) {
			return 0, &timeoutError{op: "read"}
		}
		c.readCond.Wait()
	}
	return c.readBuf.Read(b)
}

// Write implements net.Conn. Each call is sent as one datagram-sized
// message; callers writing more than ~500 bytes should chunk themselves
// since fragmentation is explicitly out of scope (§1 Non-goals).
func (c *Conn) Write(b []byte) (int, error) {
	if c.conn.IsDead() {
		return 0, net.ErrClosed
	}
	c.conn.AsyncSend(b)
	return len(b), nil
}

// Close implements net.Conn.
func (c *Conn) Close() error {
	c.conn.markDead(false)
	select {
	case <-c.stopPump:
	default:
		close(c.stopPump)
	}
	c.mu.Lock()
	if c.deadlineTimer != nil {
		c.deadlineTimer.Stop()
	}
	c.mu.Unlock()
	c.readCond.Broadcast()
	return nil
}

func (c *Conn) LocalAddr() net.Addr  { return c.conn.socket.LocalAddr() }
func (c *Conn) RemoteAddr() net.Addr { return c.conn.Peer() }

func (c *Conn) SetDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readDeadline = t
	c.writeDeadline = t
	c.armDeadlineTimerLocked(t)
	c.readCond.Broadcast()
	return nil
}

func (c *Conn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readDeadline = t
	c.armDeadlineTimerLocked(t)
	c.readCond.Broadcast()
	return nil
}

func (c *Conn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeDeadline = t
	return nil
}

// armDeadlineTimerLocked schedules a broadcast at t so a Read blocked in
// cond.Wait wakes up to notice its deadline has passed, instead of
// waiting forever for data that never arrives. Callers hold c.mu.
func (c *Conn) armDeadlineTimerLocked(t time.Time) {
	if c.deadlineTimer != nil {
		c.deadlineTimer.Stop()
		c.deadlineTimer = nil
	}
	if t.IsZero() {
		return
	}
	if d := time.Until(t); d > 0 {
		c.deadlineTimer = time.AfterFunc(d, c.readCond.Broadcast)
	}
}

// timeoutError implements net.Error for read/write deadline timeouts.
type timeoutError struct {
	op string
}

func (e *timeoutError) Error() string   { return e.op + " timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
