package smartsock

import "encoding/binary"

// headerSize is the fixed on-wire size of a PacketHeader: 4+2+2+4 bytes.
const headerSize = 12

// protocolMagic tags a datagram as belonging to this transport and pins
// the wire version; the socket's read loop rejects any other value as a
// bad packet (decodePacket itself checks only the size).
const protocolMagic uint32 = 0x534d4b31 // "SMK1"

// PacketHeader is the fixed little-endian wire header described in §6.
type PacketHeader struct {
	Protocol uint32
	SeqNum   SeqNum
	Ack      SeqNum
	AckBits  uint32
}

// marshal writes the header's fixed little-endian layout into buf, which
// must be at least headerSize bytes.
func (h PacketHeader) marshal(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Protocol)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(h.SeqNum))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(h.Ack))
	binary.LittleEndian.PutUint32(buf[8:12], h.AckBits)
}

// unmarshalHeader reads a PacketHeader from the first headerSize bytes of buf.
// The caller is responsible for having already size-checked buf.
func unmarshalHeader(buf []byte) PacketHeader {
	return PacketHeader{
		Protocol: binary.LittleEndian.Uint32(buf[0:4]),
		SeqNum:   SeqNum(binary.LittleEndian.Uint16(buf[4:6])),
		Ack:      SeqNum(binary.LittleEndian.Uint16(buf[6:8])),
		AckBits:  binary.LittleEndian.Uint32(buf[8:12]),
	}
}
