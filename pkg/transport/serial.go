// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialDialer opens a serial port to a stove controller (RS-232 adapters)
type SerialDialer struct {
	PortName   string
	BaudRate   int
	PollWindow time.Duration
}

// NewSerialDialer creates a dialer for an 8N1 serial port
func NewSerialDialer(portName string, baudRate int) *SerialDialer {
	return &SerialDialer{
		PortName:   portName,
		BaudRate:   baudRate,
		PollWindow: DefaultPollWindow,
	}
}

// Dial opens the serial port
func (d *SerialDialer) Dial(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: d.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", d.PortName, err)
	}

	window := d.PollWindow
	if window <= 0 {
		window = DefaultPollWindow
	}
	if err := port.SetReadTimeout(window); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", d.PortName, err)
	}

	return &SerialConn{port: port, name: d.PortName, baud: d.BaudRate}, nil
}

func (d *SerialDialer) String() string {
	return fmt.Sprintf("Serial: %s @ %d baud", d.PortName, d.BaudRate)
}

// SerialConn wraps a serial port
type SerialConn struct {
	port serial.Port
	name string
	baud int
}

// TryRead implements Conn. The port read timeout turns an idle line into
// a zero-length read, reported as ErrWouldBlock.
func (s *SerialConn) TryRead(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, ErrWouldBlock
	}
	return n, nil
}

// TryWrite implements Conn
func (s *SerialConn) TryWrite(p []byte) (int, error) {
	return s.port.Write(p)
}

// Describe implements Conn
func (s *SerialConn) Describe() string {
	return fmt.Sprintf("Serial: %s @ %d baud", s.name, s.baud)
}

// Close implements Conn
func (s *SerialConn) Close() error {
	return s.port.Close()
}
