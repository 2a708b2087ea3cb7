package modbus

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

type Client struct {
	address       string
	conn          net.Conn
	mu            sync.Mutex
	transactionID uint16
	timeout       time.Duration
	connected     bool
}

func NewClient(address string, timeout time.Duration) *Client {
	return &Client{
		address: address,
		timeout: timeout,
	}
}

func (c *Client) Address() string {
	return c.address
}

// Connect stellt TCP-Verbindung her
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	c.conn = conn
	c.connected = true

	return nil
}

// Close schließt die Verbindung
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	if !c.connected {
		return nil
	}

	err := c.conn.Close()
	c.connected = false
	c.conn = nil

	return err
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// SendFrame sendet ein Frame und wartet auf Response. A transport error drops the
// connection so the next Connect starts clean.
func (c *Client) SendFrame(ctx context.Context, request *ModbusFrame) (*ModbusFrame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, fmt.Errorf("not connected")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.transactionID++
	request.TransactionID = c.transactionID

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}

	if _, err := c.conn.Write(request.Encode()); err != nil {
		c.closeLocked()
		return nil, fmt.Errorf("write failed: %w", err)
	}

	response, err := c.readFrame()
	if err != nil {
		c.closeLocked()
		return nil, err
	}

	if response.TransactionID != request.TransactionID {
		c.closeLocked()
		return nil, fmt.Errorf("transaction ID mismatch: expected %d, got %d",
			request.TransactionID, response.TransactionID)
	}

	if err := response.Exception(); err != nil {
		return nil, err
	}
	if response.FunctionCode != request.FunctionCode {
		return nil, fmt.Errorf("function code mismatch: expected 0x%02X, got 0x%02X",
			request.FunctionCode, response.FunctionCode)
	}

	return response, nil
}

func (c *Client) readFrame() (*ModbusFrame, error) {
	header := make([]byte, mbapHeaderLen)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		return nil, fmt.Errorf("read failed: %w", err)
	}

	length := int(binary.BigEndian.Uint16(header[4:6]))
	if length < 2 || mbapHeaderLen+length-1 > maxFrameLen {
		return nil, fmt.Errorf("invalid frame length %d", length)
	}

	frame := make([]byte, mbapHeaderLen+length-1)
	copy(frame, header)
	if _, err := io.ReadFull(c.conn, frame[mbapHeaderLen:]); err != nil {
		return nil, fmt.Errorf("read failed: %w", err)
	}

	response, err := DecodeFrame(frame)
	if err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}
	return response, nil
}

// ReadHoldingRegisters liest Holding Registers
func (c *Client) ReadHoldingRegisters(ctx context.Context, unitID uint8, startAddr uint16, quantity uint16) ([]uint16, error) {
	if quantity == 0 || quantity > MaxReadQuantity {
		return nil, fmt.Errorf("invalid read quantity %d", quantity)
	}

	response, err := c.SendFrame(ctx, ReadHoldingRegistersRequest(0, unitID, startAddr, quantity))
	if err != nil {
		return nil, err
	}

	values, err := response.ParseRegisterResponse()
	if err != nil {
		return nil, err
	}
	if len(values) != int(quantity) {
		return nil, fmt.Errorf("expected %d registers, got %d", quantity, len(values))
	}
	return values, nil
}

// WriteSingleRegister schreibt ein einzelnes Register
func (c *Client) WriteSingleRegister(ctx context.Context, unitID uint8, addr uint16, value uint16) error {
	response, err := c.SendFrame(ctx, WriteSingleRegisterRequest(0, unitID, addr, value))
	if err != nil {
		return err
	}
	return response.ParseWriteResponse(addr, value)
}

// WriteMultipleRegisters schreibt einen zusammenhängenden Registerblock
func (c *Client) WriteMultipleRegisters(ctx context.Context, unitID uint8, startAddr uint16, values []uint16) error {
	if len(values) == 0 || len(values) > MaxWriteQuantity {
		return fmt.Errorf("invalid write quantity %d", len(values))
	}

	response, err := c.SendFrame(ctx, WriteMultipleRegistersRequest(0, unitID, startAddr, values))
	if err != nil {
		return err
	}
	return response.ParseWriteResponse(startAddr, uint16(len(values)))
}
