// Package stream carries L1 packets over byte streams such as TCP.
package stream

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/pkg/errors"
)

// MaxPacketSize limits the size of a received packet.
const MaxPacketSize = 1 << 16

// ReadWriter implements PacketReadWriter.
// Each packet is prefixed by 4-byte (little-endian) indicate the length.
type ReadWriter struct {
	io.ReadWriter
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacketSize {
		return nil, errors.Errorf("packet size %d exceeds %d", size, MaxPacketSize)
	}
	pkt := make([]byte, size)
	if _, err := io.ReadFull(p, pkt); err != nil {
		return nil, errors.Wrap(err, "read packet")
	}
	return pkt, nil
}

// WritePacket implements PacketWriter. The prefix and the packet are
// written in one call.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	_, err := p.Write(buf)
	return err
}

// Conn is a packet connection over net.Conn.
type Conn struct {
	*ReadWriter
	conn net.Conn
}

// NewConn wraps a net.Conn.
func NewConn(conn net.Conn) *Conn {
	return &Conn{ReadWriter: New(conn), conn: conn}
}

// Dial connects to a TCP server.
func Dial(addr string) (*Conn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewConn(conn), nil
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements PacketConn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
