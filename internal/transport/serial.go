package transport

import (
	"fmt"

	"go.bug.st/serial"
)

// MIDIBaudRate is the wire rate of a DIN MIDI connection. Serial bridges
// (USB UARTs soldered to the module's MIDI header) run at this rate unless
// told otherwise.
const MIDIBaudRate = 31250

// SerialPort is a Connection over a raw serial port.
type SerialPort struct {
	port serial.Port
}

// OpenSerial opens the named serial port. A baudRate of zero selects the
// standard MIDI rate.
func OpenSerial(portName string, baudRate int) (*SerialPort, error) {
	if baudRate == 0 {
		baudRate = MIDIBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return &SerialPort{port: port}, nil
}

func (s *SerialPort) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialPort) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialPort) Close() error {
	return s.port.Close()
}

// SerialPorts lists the system's serial port device names.
func SerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return ports, nil
}
