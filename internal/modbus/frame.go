package modbus

import (
	"encoding/binary"
	"fmt"
)

// MBAP Header (7 Bytes) + Function Code + Data
type ModbusFrame struct {
	TransactionID uint16 // request/response correlation
	ProtocolID    uint16 // always 0x0000
	Length        uint16 // bytes following the length field
	UnitID        uint8
	FunctionCode  uint8
	Data          []byte
}

const (
	FuncCodeReadHoldingRegisters   = 0x03
	FuncCodeWriteSingleRegister    = 0x06
	FuncCodeWriteMultipleRegisters = 0x10

	exceptionFlag = 0x80

	mbapHeaderLen = 7
	maxFrameLen   = 260

	// Protocol limits per request.
	MaxReadQuantity  = 125
	MaxWriteQuantity = 123
)

// Exception codes
const (
	ExceptionIllegalFunction    = 0x01
	ExceptionIllegalDataAddress = 0x02
	ExceptionIllegalDataValue   = 0x03
	ExceptionServerDeviceFail   = 0x04
)

// ExceptionError is returned when the server answers with an exception response.
type ExceptionError struct {
	FunctionCode  uint8
	ExceptionCode uint8
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus exception 0x%02X (%s) for function 0x%02X",
		e.ExceptionCode, exceptionText(e.ExceptionCode), e.FunctionCode)
}

func exceptionText(code uint8) string {
	switch code {
	case ExceptionIllegalFunction:
		return "illegal function"
	case ExceptionIllegalDataAddress:
		return "illegal data address"
	case ExceptionIllegalDataValue:
		return "illegal data value"
	case ExceptionServerDeviceFail:
		return "server device failure"
	default:
		return "unknown"
	}
}

// Encode erstellt das komplette TCP Frame
func (f *ModbusFrame) Encode() []byte {
	f.Length = uint16(len(f.Data) + 2) // UnitID + FunctionCode + Data

	frame := make([]byte, mbapHeaderLen+1+len(f.Data))

	binary.BigEndian.PutUint16(frame[0:2], f.TransactionID)
	binary.BigEndian.PutUint16(frame[2:4], f.ProtocolID)
	binary.BigEndian.PutUint16(frame[4:6], f.Length)
	frame[6] = f.UnitID

	frame[7] = f.FunctionCode
	copy(frame[8:], f.Data)

	return frame
}

// DecodeFrame parst ein empfangenes Frame
func DecodeFrame(data []byte) (*ModbusFrame, error) {
	if len(data) < mbapHeaderLen+1 {
		return nil, fmt.Errorf("frame too short: %d bytes", len(data))
	}

	frame := &ModbusFrame{
		TransactionID: binary.BigEndian.Uint16(data[0:2]),
		ProtocolID:    binary.BigEndian.Uint16(data[2:4]),
		Length:        binary.BigEndian.Uint16(data[4:6]),
		UnitID:        data[6],
		FunctionCode:  data[7],
	}

	if frame.ProtocolID != 0x0000 {
		return nil, fmt.Errorf("invalid protocol ID: 0x%04X", frame.ProtocolID)
	}
	if int(frame.Length) != len(data)-6 {
		return nil, fmt.Errorf("length mismatch: header says %d, frame has %d", frame.Length, len(data)-6)
	}

	if len(data) > 8 {
		frame.Data = data[8:]
	}

	return frame, nil
}

// Exception returns the exception carried by an exception response, or nil.
func (f *ModbusFrame) Exception() error {
	if f.FunctionCode&exceptionFlag == 0 {
		return nil
	}
	code := uint8(0)
	if len(f.Data) > 0 {
		code = f.Data[0]
	}
	return &ExceptionError{FunctionCode: f.FunctionCode &^ exceptionFlag, ExceptionCode: code}
}

// ReadHoldingRegistersRequest erstellt Request für Function Code 0x03
func ReadHoldingRegistersRequest(transactionID uint16, unitID uint8, startAddr uint16, quantity uint16) *ModbusFrame {
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[0:2], startAddr)
	binary.BigEndian.PutUint16(data[2:4], quantity)

	return &ModbusFrame{
		TransactionID: transactionID,
		UnitID:        unitID,
		FunctionCode:  FuncCodeReadHoldingRegisters,
		Data:          data,
	}
}

// WriteSingleRegisterRequest erstellt Request für Function Code 0x06
func WriteSingleRegisterRequest(transactionID uint16, unitID uint8, addr uint16, value uint16) *ModbusFrame {
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[0:2], addr)
	binary.BigEndian.PutUint16(data[2:4], value)

	return &ModbusFrame{
		TransactionID: transactionID,
		UnitID:        unitID,
		FunctionCode:  FuncCodeWriteSingleRegister,
		Data:          data,
	}
}

// WriteMultipleRegistersRequest erstellt Request für Function Code 0x10
func WriteMultipleRegistersRequest(transactionID uint16, unitID uint8, startAddr uint16, values []uint16) *ModbusFrame {
	data := make([]byte, 5+2*len(values))
	binary.BigEndian.PutUint16(data[0:2], startAddr)
	binary.BigEndian.PutUint16(data[2:4], uint16(len(values)))
	data[4] = byte(2 * len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(data[5+2*i:], v)
	}

	return &ModbusFrame{
		TransactionID: transactionID,
		UnitID:        unitID,
		FunctionCode:  FuncCodeWriteMultipleRegisters,
		Data:          data,
	}
}

// ParseRegisterResponse parst Holding Register Response
func (f *ModbusFrame) ParseRegisterResponse() ([]uint16, error) {
	if len(f.Data) < 1 {
		return nil, fmt.Errorf("response too short")
	}

	byteCount := int(f.Data[0])
	if byteCount%2 != 0 {
		return nil, fmt.Errorf("odd byte count %d", byteCount)
	}
	if len(f.Data) < byteCount+1 {
		return nil, fmt.Errorf("incomplete response data")
	}

	registers := make([]uint16, byteCount/2)
	for i := range registers {
		offset := 1 + i*2
		registers[i] = binary.BigEndian.Uint16(f.Data[offset : offset+2])
	}

	return registers, nil
}

// ParseWriteResponse checks the address/value (0x06) or address/quantity (0x10) echo.
func (f *ModbusFrame) ParseWriteResponse(addr uint16, second uint16) error {
	if len(f.Data) < 4 {
		return fmt.Errorf("response too short")
	}
	gotAddr := binary.BigEndian.Uint16(f.Data[0:2])
	gotSecond := binary.BigEndian.Uint16(f.Data[2:4])
	if gotAddr != addr || gotSecond != second {
		return fmt.Errorf("write echo mismatch: expected %d/%d, got %d/%d", addr, second, gotAddr, gotSecond)
	}
	return nil
}
