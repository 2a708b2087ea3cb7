package modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeReadHoldingRegisters(t *testing.T) {
	f := ReadHoldingRegistersRequest(0x0102, 0x11, 0x0010, 4)
	assert.Equal(t, []byte{
		0x01, 0x02, // transaction
		0x00, 0x00, // protocol
		0x00, 0x06, // length
		0x11,       // unit
		0x03,       // function
		0x00, 0x10, // address
		0x00, 0x04, // quantity
	}, f.Encode())
}

func TestEncodeWriteMultipleRegisters(t *testing.T) {
	f := WriteMultipleRegistersRequest(1, 1, 100, []uint16{0xDEAD, 0xBEEF})
	b := f.Encode()

	assert.Equal(t, uint16(2+5+4), f.Length)
	assert.Equal(t, byte(FuncCodeWriteMultipleRegisters), b[7])
	assert.Equal(t, []byte{0x00, 0x64, 0x00, 0x02, 0x04, 0xDE, 0xAD, 0xBE, 0xEF}, b[8:])
}

func TestDecodeRoundTrip(t *testing.T) {
	in := WriteSingleRegisterRequest(7, 3, 12, 0xCAFE)
	out, err := DecodeFrame(in.Encode())
	require.NoError(t, err)

	assert.Equal(t, uint16(7), out.TransactionID)
	assert.Equal(t, uint8(3), out.UnitID)
	assert.Equal(t, uint8(FuncCodeWriteSingleRegister), out.FunctionCode)
	assert.NoError(t, out.ParseWriteResponse(12, 0xCAFE))
	assert.Error(t, out.ParseWriteResponse(12, 0xBEEF))
}

func TestDecodeRejectsBadFrames(t *testing.T) {
	_, err := DecodeFrame([]byte{0, 1, 0, 0, 0, 2})
	assert.Error(t, err)

	_, err = DecodeFrame([]byte{0, 1, 0, 5, 0, 2, 1, 3})
	assert.ErrorContains(t, err, "protocol")

	_, err = DecodeFrame([]byte{0, 1, 0, 0, 0, 9, 1, 3})
	assert.ErrorContains(t, err, "length")
}

func TestExceptionResponse(t *testing.T) {
	f := &ModbusFrame{FunctionCode: FuncCodeReadHoldingRegisters | 0x80, Data: []byte{ExceptionIllegalDataAddress}}

	err := f.Exception()
	var ex *ExceptionError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, uint8(FuncCodeReadHoldingRegisters), ex.FunctionCode)
	assert.Equal(t, uint8(ExceptionIllegalDataAddress), ex.ExceptionCode)
	assert.Contains(t, err.Error(), "illegal data address")

	assert.NoError(t, ReadHoldingRegistersRequest(1, 1, 0, 1).Exception())
}

func TestParseRegisterResponse(t *testing.T) {
	f := &ModbusFrame{Data: []byte{4, 0x12, 0x34, 0xAB, 0xCD}}
	regs, err := f.ParseRegisterResponse()
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x1234, 0xABCD}, regs)

	_, err = (&ModbusFrame{Data: []byte{4, 0x12}}).ParseRegisterResponse()
	assert.Error(t, err)
	_, err = (&ModbusFrame{Data: []byte{3, 0x12, 0x34, 0x56}}).ParseRegisterResponse()
	assert.Error(t, err)
}

func TestWordsAndRuns(t *testing.T) {
	hi, lo := SplitWords(0x8001FFFF)
	assert.Equal(t, uint16(0x8001), hi)
	assert.Equal(t, uint16(0xFFFF), lo)
	assert.Equal(t, uint32(0x8001FFFF), JoinWords(hi, lo))

	runs := contiguousRuns([]int{9, 6, 7, 7, 12, 8, 13}, 3)
	assert.Equal(t, [][]int{{6, 7, 8}, {9}, {12, 13}}, runs)
	assert.Nil(t, contiguousRuns(nil, 3))
}

func TestControlBankAddress(t *testing.T) {
	b := NewControlBank(nil, 1, 1000)

	addr, err := b.Address(6)
	require.NoError(t, err)
	assert.Equal(t, uint16(1012), addr)

	_, err = b.Address(-1)
	assert.Error(t, err)
	_, err = NewControlBank(nil, 1, 0xFFF0).Address(10)
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	drift := Compare(
		map[int]uint32{6: 1, 7: 2, 8: 3},
		map[int]uint32{6: 1, 7: 5},
	)
	assert.Equal(t, []Drift{
		{Register: 7, Expected: 2, Actual: 5},
		{Register: 8, Expected: 3, Actual: 0},
	}, drift)
	assert.Empty(t, Compare(map[int]uint32{6: 1}, map[int]uint32{6: 1}))
}
