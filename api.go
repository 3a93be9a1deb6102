package smartsock

import (
	"net"

	"github.com/pkg/errors"
)

// Listen binds a UDP endpoint and returns a net.Listener that hands out
// one Conn per peer that completes its first exchange. The process
// entry point, flag parsing, and signal wiring around this call are an
// external collaborator's job (§1 Non-goals).
func Listen(network, address string, opts ...Option) (*Listener, error) {
	socket, err := NewSmartSocket(network, address, opts...)
	if err != nil {
		return nil, err
	}

	l := &Listener{
		socket:   socket,
		acceptCh: make(chan *Conn),
		closeCh:  make(chan struct{}),
	}
	socket.AddObserver(listenerObserver{l: l})
	socket.AsyncReceive()
	return l, nil
}

// Dial establishes a client-side Conn to address. The underlying
// connection is usable immediately. Write takes no resend budget of its
// own: every Write uses the socket's DefaultResendLimit (set with
// WithDefaultResendLimit), which is 0 unless configured.
func Dial(network, address string, opts ...Option) (*Conn, error) {
	raddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, errors.Wrap(err, "smartsock: resolve remote address")
	}

	socket, err := NewSmartSocket(network, ":0", opts...)
	if err != nil {
		return nil, err
	}
	socket.AsyncReceive()

	conn := socket.GetOrCreateConnection(raddr)
	return newConn(conn), nil
}
