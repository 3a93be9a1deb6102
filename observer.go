package smartsock

import "net"

// Observer is the lifecycle/error capability set external code can
// register on a SmartSocket. Any type implementing all five methods may
// be registered; embed NoopObserver to implement only the ones you care
// about. Modeled on the "ConnectionTracer" full-interface pattern quic-go
// uses for its own observer surface.
type Observer interface {
	// OnConnect fires on a connection's Fresh→Active transition, i.e. the
	// first successful exchange with that peer.
	OnConnect(conn *Connection)
	// OnPeerDisconnect fires on a connection's Active→Dead transition via
	// the liveness timer.
	OnPeerDisconnect(conn *Connection)
	// OnBadPacketSize fires when a datagram fails framing validation.
	// No connection lookup has occurred at this point.
	OnBadPacketSize(peer net.Addr, size int)
	// OnError fires when the UDP substrate fails a send.
	OnError(conn *Connection, err error)
	// OnSocketShutdown fires once, when the socket finishes tearing down.
	OnSocketShutdown()
}

// NoopObserver is a zero-cost base every Observer implementation can
// embed to pick up the methods it doesn't need.
type NoopObserver struct{}

func (NoopObserver) OnConnect(*Connection)        {}
func (NoopObserver) OnPeerDisconnect(*Connection) {}
func (NoopObserver) OnBadPacketSize(net.Addr, int) {}
func (NoopObserver) OnError(*Connection, error)    {}
func (NoopObserver) OnSocketShutdown()             {}

// observerSet fans a notification out to every registered Observer, in
// insertion order, synchronously. A panicking observer is recovered and
// logged so one bad listener cannot abort the fan-out for the rest.
type observerSet struct {
	socket    *SmartSocket
	observers []Observer
}

func (s *observerSet) add(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *observerSet) notify(f func(Observer)) {
	for _, o := range s.observers {
		s.invokeSafely(o, f)
	}
}

func (s *observerSet) invokeSafely(o Observer, f func(Observer)) {
	defer func() {
		if r := recover(); r != nil {
			if s.socket != nil && s.socket.logger != nil {
				s.socket.logger.Sugar().Errorw("observer panicked", "recover", r)
			}
		}
	}()
	f(o)
}
