// Package comm carries L1 messages over packet transports. A controller
// serves its commands through a Registrar, a client talks to a controller
// through a ControllerConn. Both sides exchange msgs.Typed packets over a
// Pipe.
package comm

import "io"

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// PacketConn is a PacketReadWriter of a single client connection.
type PacketConn interface {
	PacketReadWriter
	io.Closer
	// RemoteAddr identifies the peer in logs.
	RemoteAddr() string
}
