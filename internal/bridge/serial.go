package bridge

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Opener opens the serial port used for unlock bytes
type Opener func(port string, baud int) (io.WriteCloser, error)

// OpenSerial opens a real serial port, 8N1 at baud
func OpenSerial(port string, baud int) (io.WriteCloser, error) {
	p, err := serial.Open(port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open serial %s: %w", port, err)
	}
	return p, nil
}

// ListPorts returns the serial ports present on the system
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// drainer is implemented by serial.Port
type drainer interface {
	Drain() error
}
