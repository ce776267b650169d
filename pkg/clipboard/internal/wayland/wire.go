//go:build linux

package wayland

import (
	"encoding/binary"
	"fmt"
	"syscall"
)

var le = binary.LittleEndian

// conn is a buffered Wayland socket connection.
type conn struct {
	fd         int
	inBuf      []byte
	pendingFds []int
}

// message is one decoded Wayland event.
type message struct {
	object  uint32
	opcode  uint16
	payload []byte
	// fd is -1 unless a file descriptor arrived with the message.
	fd int
}

func dial(sockPath string) (*conn, error) {
	fd, err := syscall.Socket(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		return nil, err
	}
	if err := syscall.Connect(fd, &syscall.SockaddrUnix{Name: sockPath}); err != nil {
		syscall.Close(fd) //nolint:errcheck
		return nil, err
	}
	return &conn{fd: fd}, nil
}

func (c *conn) close() {
	syscall.Close(c.fd) //nolint:errcheck
}

// request sends a request with pre-encoded arguments.
func (c *conn) request(object uint32, opcode uint16, args ...[]byte) error {
	body := concat(args...)
	size := uint16(8 + len(body))
	buf := make([]byte, size)
	le.PutUint32(buf[0:], object)
	le.PutUint32(buf[4:], uint32(opcode)|uint32(size)<<16)
	copy(buf[8:], body)
	_, err := syscall.Write(c.fd, buf)
	return err
}

// next blocks until a complete event is buffered and returns it.
func (c *conn) next() (message, error) {
	for {
		if m, ok := c.pop(); ok {
			return m, nil
		}
		if err := c.fill(); err != nil {
			return message{fd: -1}, err
		}
	}
}

func (c *conn) pop() (message, bool) {
	if len(c.inBuf) < 8 {
		return message{}, false
	}
	header := le.Uint32(c.inBuf[4:8])
	size := int(header >> 16)
	if size < 8 || len(c.inBuf) < size {
		return message{}, false
	}

	m := message{
		object:  le.Uint32(c.inBuf[0:4]),
		opcode:  uint16(header & 0xffff),
		payload: append([]byte(nil), c.inBuf[8:size]...),
		fd:      -1,
	}
	c.inBuf = c.inBuf[size:]
	if len(c.pendingFds) > 0 {
		m.fd = c.pendingFds[0]
		c.pendingFds = c.pendingFds[1:]
	}
	return m, true
}

func (c *conn) fill() error {
	buf := make([]byte, 4096)
	oob := make([]byte, syscall.CmsgSpace(4*8))
	n, oobn, _, _, err := syscall.Recvmsg(c.fd, buf, oob, 0)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("wayland: connection closed")
	}
	c.inBuf = append(c.inBuf, buf[:n]...)

	if oobn == 0 {
		return nil
	}
	scms, err := syscall.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return nil
	}
	for i := range scms {
		if rights, err := syscall.ParseUnixRights(&scms[i]); err == nil {
			c.pendingFds = append(c.pendingFds, rights...)
		}
	}
	return nil
}

// closeFd releases a descriptor that arrived with an event nobody wants.
func (m message) closeFd() {
	if m.fd >= 0 {
		syscall.Close(m.fd) //nolint:errcheck
	}
}

func uint32Arg(v uint32) []byte {
	b := make([]byte, 4)
	le.PutUint32(b, v)
	return b
}

// stringArg encodes a string: length including the NUL, bytes, padding to
// four bytes.
func stringArg(s string) []byte {
	raw := append([]byte(s), 0)
	padded := (len(raw) + 3) &^ 3
	buf := make([]byte, 4+padded)
	le.PutUint32(buf[0:], uint32(len(raw)))
	copy(buf[4:], raw)
	return buf
}

func concat(parts ...[]byte) []byte {
	var total int
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func decodeString(data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", data, fmt.Errorf("wayland: short string length field")
	}
	length := int(le.Uint32(data[:4]))
	data = data[4:]
	if length == 0 {
		return "", data, nil
	}
	padded := (length + 3) &^ 3
	if len(data) < padded {
		return "", data, fmt.Errorf("wayland: short string data")
	}
	return string(data[:length-1]), data[padded:], nil
}
