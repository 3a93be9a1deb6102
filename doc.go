// Package smartsock implements a reliable, connection-oriented transport
// over plain UDP datagrams. It adds per-peer logical connections, sequence
// numbering, selective acknowledgement, bounded in-flight tracking, RTT
// estimation, loss detection with bounded-retry resend, and an observer
// surface for connection lifecycle events — everything above the bare
// datagram socket, short of congestion control, fragmentation, or
// encryption.
package smartsock
