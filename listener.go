package smartsock

import (
	"net"
)

// Listener adapts SmartSocket onto net.Listener: each inbound peer that
// completes its first exchange is handed out exactly once via Accept.
type Listener struct {
	socket   *SmartSocket
	acceptCh chan *Conn
	closeCh  chan struct{}
}

// listenerObserver forwards newly-active connections into the
// Listener's accept channel; it implements only OnConnect, embedding
// NoopObserver for the rest.
type listenerObserver struct {
	NoopObserver
	l *Listener
}

func (o listenerObserver) OnConnect(conn *Connection) {
	select {
	case o.l.acceptCh <- newConn(conn):
	case <-o.l.closeCh:
	}
}

// Accept implements net.Listener, returning the next peer connection to
// complete its first exchange.
func (l *Listener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.acceptCh:
		return conn, nil
	case <-l.closeCh:
		return nil, ErrSocketClosed
	}
}

// Close implements net.Listener.
func (l *Listener) Close() error {
	select {
	case <-l.closeCh:
	default:
		close(l.closeCh)
	}
	return l.socket.Shutdown()
}

// Addr implements net.Listener.
func (l *Listener) Addr() net.Addr {
	return l.socket.LocalAddr()
}
