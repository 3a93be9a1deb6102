package smartsock

import "github.com/pkg/errors"

// maxDatagramSize keeps every datagram below a conservative MTU floor so
// the transport never relies on IP fragmentation.
const maxDatagramSize = 512

// Packet is a decoded header plus its payload. decodePacket copies the
// payload out of the raw datagram, so a decoded Packet does not alias the
// buffer it was read from.
type Packet struct {
	Header  PacketHeader
	Payload []byte
}

// encodePacket writes header followed by payload into a single buffer
// sized to hold both. The caller must have validated len(payload) so the
// result does not exceed maxDatagramSize.
func encodePacket(h PacketHeader, payload []byte) []byte {
	buf := make([]byte, headerSize+len(payload))
	h.marshal(buf)
	copy(buf[headerSize:], payload)
	return buf
}

// decodePacket parses a raw datagram into a Packet, rejecting anything
// outside [headerSize, maxDatagramSize] per §3/§6 without touching any
// connection state.
func decodePacket(raw []byte) (Packet, error) {
	if len(raw) < headerSize || len(raw) > maxDatagramSize {
		return Packet{}, errors.Wrapf(ErrBadPacketSize, "datagram size %d", len(raw))
	}
	payload := make([]byte, len(raw)-headerSize)
	copy(payload, raw[headerSize:])
	return Packet{
		Header:  unmarshalHeader(raw),
		Payload: payload,
	}, nil
}
