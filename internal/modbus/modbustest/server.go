// Package modbustest provides an in-process Modbus TCP server holding a plain
// register array, for tests of code that talks to control registers.
package modbustest

import (
	"encoding/binary"
	"io"
	"net"
	"sync"

	"github.com/KevinKickass/OpenRegMap/internal/modbus"
)

type Server struct {
	listener  net.Listener
	mu        sync.Mutex
	registers map[uint16]uint16
	exception uint8
	requests  int
	conns     map[net.Conn]struct{}
	wg        sync.WaitGroup
}

// NewServer starts listening on a random loopback port.
func NewServer() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &Server{
		listener:  ln,
		registers: make(map[uint16]uint16),
		conns:     make(map[net.Conn]struct{}),
	}

	s.wg.Add(1)
	go s.acceptLoop()

	return s, nil
}

func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func (s *Server) Close() error {
	err := s.listener.Close()

	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

func (s *Server) Register(addr uint16) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registers[addr]
}

func (s *Server) SetRegister(addr, value uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registers[addr] = value
}

// FailWith makes every following request answer with exception code. Zero restores normal replies.
func (s *Server) FailWith(code uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exception = code
}

// Requests is the number of requests served so far.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		header := make([]byte, 7)
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}
		length := binary.BigEndian.Uint16(header[4:6])
		if length < 2 {
			return
		}
		body := make([]byte, length-1)
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}

		req, err := modbus.DecodeFrame(append(header, body...))
		if err != nil {
			return
		}

		if _, err := conn.Write(s.handle(req).Encode()); err != nil {
			return
		}
	}
}

func (s *Server) handle(req *modbus.ModbusFrame) *modbus.ModbusFrame {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests++

	resp := &modbus.ModbusFrame{
		TransactionID: req.TransactionID,
		UnitID:        req.UnitID,
		FunctionCode:  req.FunctionCode,
	}

	fail := func(code uint8) *modbus.ModbusFrame {
		resp.FunctionCode |= 0x80
		resp.Data = []byte{code}
		return resp
	}

	if s.exception != 0 {
		return fail(s.exception)
	}
	if len(req.Data) < 4 {
		return fail(modbus.ExceptionIllegalDataValue)
	}

	addr := binary.BigEndian.Uint16(req.Data[0:2])
	second := binary.BigEndian.Uint16(req.Data[2:4])

	switch req.FunctionCode {
	case modbus.FuncCodeReadHoldingRegisters:
		resp.Data = make([]byte, 1+2*int(second))
		resp.Data[0] = byte(2 * second)
		for i := 0; i < int(second); i++ {
			binary.BigEndian.PutUint16(resp.Data[1+2*i:], s.registers[addr+uint16(i)])
		}
	case modbus.FuncCodeWriteSingleRegister:
		s.registers[addr] = second
		resp.Data = append([]byte(nil), req.Data[:4]...)
	case modbus.FuncCodeWriteMultipleRegisters:
		if len(req.Data) < 5+2*int(second) {
			return fail(modbus.ExceptionIllegalDataValue)
		}
		for i := 0; i < int(second); i++ {
			s.registers[addr+uint16(i)] = binary.BigEndian.Uint16(req.Data[5+2*i:])
		}
		resp.Data = append([]byte(nil), req.Data[:4]...)
	default:
		return fail(modbus.ExceptionIllegalFunction)
	}
	return resp
}
