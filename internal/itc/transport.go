package itc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/tarm/serial"
)

// Default transport parameters. The instrument's USB port enumerates as a
// virtual serial device; the Ethernet port listens on TCP 7020. Both speak
// the same newline-terminated text protocol.
const (
	defaultReadTimeout = 3 * time.Second
	defaultDialTimeout = 10 * time.Second
	defaultBaudRate    = 115200
	defaultTerminator  = '\n'
)

// Transport is the byte-stream session the driver exchanges command lines
// over. Implementations must strip the line terminator from ReadLine
// results and append it in WriteLine.
//
// ReadLine blocks until a full line arrives or the read timeout elapses,
// in which case the returned error wraps ErrTimeout. Clear discards any
// pending unread bytes so the link is reusable after a timeout.
type Transport interface {
	WriteLine(line string) error
	ReadLine() (string, error)
	Clear() error
	Close() error
}

// TCPConfig holds settings for a TCP (Ethernet or virtual-serial bridge)
// transport.
type TCPConfig struct {
	// Address is the host:port of the instrument, e.g. "10.0.0.5:7020".
	Address string

	// DialTimeout bounds connection establishment. Default 10s.
	DialTimeout time.Duration

	// ReadTimeout bounds each response read. Default 3s.
	ReadTimeout time.Duration
}

// DialTCP opens a TCP transport to the instrument.
func DialTCP(cfg TCPConfig) (Transport, error) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}

	conn, err := net.DialTimeout("tcp", cfg.Address, cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, cfg.Address, err)
	}

	return &tcpTransport{
		conn:        conn,
		reader:      bufio.NewReader(conn),
		readTimeout: cfg.ReadTimeout,
	}, nil
}

type tcpTransport struct {
	conn        net.Conn
	reader      *bufio.Reader
	readTimeout time.Duration
}

func (t *tcpTransport) WriteLine(line string) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.readTimeout)); err != nil {
		return fmt.Errorf("itc: set write deadline: %w", err)
	}
	if _, err := t.conn.Write(append([]byte(line), defaultTerminator)); err != nil {
		return fmt.Errorf("itc: write: %w", err)
	}
	return nil
}

func (t *tcpTransport) ReadLine() (string, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
		return "", fmt.Errorf("itc: set read deadline: %w", err)
	}
	line, err := t.reader.ReadString(defaultTerminator)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", fmt.Errorf("%w: no response within %v", ErrTimeout, t.readTimeout)
		}
		return "", fmt.Errorf("itc: read: %w", err)
	}
	return trimLine(line), nil
}

// Clear drains whatever the instrument has already sent so the next
// exchange starts with clean framing.
func (t *tcpTransport) Clear() error {
	// Anything already buffered is stale.
	if n := t.reader.Buffered(); n > 0 {
		if _, err := t.reader.Discard(n); err != nil {
			return fmt.Errorf("itc: clear: %w", err)
		}
	}
	// Pull any bytes sitting in the socket without blocking for new ones.
	if err := t.conn.SetReadDeadline(time.Now().Add(10 * time.Millisecond)); err != nil {
		return fmt.Errorf("itc: clear: %w", err)
	}
	buf := make([]byte, 256)
	for {
		n, err := t.conn.Read(buf)
		if n == 0 || err != nil {
			return nil
		}
	}
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

// SerialConfig holds settings for a raw serial (USB) transport.
type SerialConfig struct {
	// Device is the serial device path, e.g. "/dev/ttyACM0".
	Device string

	// Baud is the line rate. Default 115200.
	Baud int

	// ReadTimeout bounds each response read. Default 3s.
	ReadTimeout time.Duration
}

// OpenSerial opens a raw serial transport to the instrument.
func OpenSerial(cfg SerialConfig) (Transport, error) {
	if cfg.Baud == 0 {
		cfg.Baud = defaultBaudRate
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}

	port, err := serial.OpenPort(&serial.Config{
		Name: cfg.Device,
		Baud: cfg.Baud,
		// Short per-read timeout; ReadLine enforces the overall deadline.
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrConnectionFailed, cfg.Device, err)
	}

	return &serialTransport{
		port:        port,
		readTimeout: cfg.ReadTimeout,
	}, nil
}

// serialPort is the slice of *serial.Port the transport uses, split out
// so ReadLine's deadline handling is testable without a device.
type serialPort interface {
	io.ReadWriteCloser
	Flush() error
}

type serialTransport struct {
	port        serialPort
	readTimeout time.Duration
}

func (s *serialTransport) WriteLine(line string) error {
	if _, err := s.port.Write(append([]byte(line), defaultTerminator)); err != nil {
		return fmt.Errorf("itc: write: %w", err)
	}
	return nil
}

// ReadLine accumulates bytes until the terminator or the overall read
// timeout. The underlying port uses a short poll timeout so the deadline
// is checked between reads; an expired poll surfaces as a zero-byte read
// or io.EOF, never as a real error.
func (s *serialTransport) ReadLine() (string, error) {
	deadline := time.Now().Add(s.readTimeout)
	buf := make([]byte, 0, 64)
	one := make([]byte, 1)

	for {
		n, err := s.port.Read(one)
		if n > 0 {
			if one[0] == defaultTerminator {
				return trimLine(string(buf)), nil
			}
			buf = append(buf, one[0])
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("itc: read: %w", err)
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w: no response within %v", ErrTimeout, s.readTimeout)
		}
	}
}

func (s *serialTransport) Clear() error {
	if err := s.port.Flush(); err != nil {
		return fmt.Errorf("itc: clear: %w", err)
	}
	return nil
}

func (s *serialTransport) Close() error {
	return s.port.Close()
}

// trimLine strips the terminator and any trailing carriage return.
func trimLine(line string) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}
