package itc

import (
	"errors"
	"io"
	"testing"
	"time"
)

// fakePort simulates a serial port whose short poll timeout surfaces as
// io.EOF between data, the way a VMIN=0/VTIME port reads on Linux.
type fakePort struct {
	chunks  [][]byte // nil entry = one expired poll
	flushed bool
	written []byte
}

func (f *fakePort) Read(p []byte) (int, error) {
	if len(f.chunks) == 0 {
		return 0, io.EOF
	}
	c := f.chunks[0]
	if len(c) == 0 {
		f.chunks = f.chunks[1:]
		return 0, io.EOF
	}
	n := copy(p, c)
	if n == len(c) {
		f.chunks = f.chunks[1:]
	} else {
		f.chunks[0] = c[n:]
	}
	return n, nil
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakePort) Flush() error {
	f.flushed = true
	return nil
}

func (f *fakePort) Close() error { return nil }

func TestSerialReadLineAssemblesAcrossQuietPolls(t *testing.T) {
	port := &fakePort{chunks: [][]byte{
		[]byte("STAT:SYS"),
		nil, // instrument still composing the response
		nil,
		[]byte(":CAT:DEV:MB0.H1:HTR\r\n"),
	}}
	tr := &serialTransport{port: port, readTimeout: time.Second}

	line, err := tr.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine() unexpected error: %v", err)
	}
	if line != "STAT:SYS:CAT:DEV:MB0.H1:HTR" {
		t.Errorf("ReadLine() = %q, want STAT:SYS:CAT:DEV:MB0.H1:HTR", line)
	}
}

func TestSerialReadLineTimeoutWrapsSentinel(t *testing.T) {
	tr := &serialTransport{port: &fakePort{}, readTimeout: 20 * time.Millisecond}

	_, err := tr.ReadLine()
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("ReadLine() error = %v, want wrapped ErrTimeout", err)
	}
}

// errPort fails every read with a real device error.
type errPort struct {
	fakePort
	err error
}

func (e *errPort) Read([]byte) (int, error) { return 0, e.err }

func TestSerialReadLineSurfacesDeviceErrors(t *testing.T) {
	devErr := errors.New("device unplugged")
	tr := &serialTransport{port: &errPort{err: devErr}, readTimeout: time.Second}

	_, err := tr.ReadLine()
	if err == nil || errors.Is(err, ErrTimeout) {
		t.Fatalf("ReadLine() error = %v, want a non-timeout device error", err)
	}
	if !errors.Is(err, devErr) {
		t.Errorf("ReadLine() error = %v, does not wrap the device error", err)
	}
}

func TestSerialWriteLineAppendsTerminator(t *testing.T) {
	port := &fakePort{}
	tr := &serialTransport{port: port, readTimeout: time.Second}

	if err := tr.WriteLine("READ:SYS:CAT"); err != nil {
		t.Fatalf("WriteLine() unexpected error: %v", err)
	}
	if got := string(port.written); got != "READ:SYS:CAT\n" {
		t.Errorf("wrote %q, want %q", got, "READ:SYS:CAT\n")
	}
}

func TestSerialClearFlushesPort(t *testing.T) {
	port := &fakePort{}
	tr := &serialTransport{port: port, readTimeout: time.Second}

	if err := tr.Clear(); err != nil {
		t.Fatalf("Clear() unexpected error: %v", err)
	}
	if !port.flushed {
		t.Error("Clear() did not flush the port")
	}
}

func TestTrimLine(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"STAT:SYS:CAT\n", "STAT:SYS:CAT"},
		{"STAT:SYS:CAT\r\n", "STAT:SYS:CAT"},
		{"STAT:SYS:CAT", "STAT:SYS:CAT"},
		{"", ""},
	}
	for _, c := range cases {
		if got := trimLine(c.in); got != c.want {
			t.Errorf("trimLine(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
