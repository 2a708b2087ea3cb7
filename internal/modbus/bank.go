package modbus

import (
	"context"
	"fmt"
	"sort"
)

// WordsPerControlRegister is the number of 16-bit holding registers behind one 32-bit CR.
const WordsPerControlRegister = 2

// SplitWords returns the high and low halves of a CR value, high word first.
func SplitWords(v uint32) (hi, lo uint16) {
	return uint16(v >> 16), uint16(v)
}

func JoinWords(hi, lo uint16) uint32 {
	return uint32(hi)<<16 | uint32(lo)
}

// ControlBank exposes 32-bit control registers on top of 16-bit holding registers.
// CR n lives at holding registers baseAddress+2n (high word) and baseAddress+2n+1 (low word).
type ControlBank struct {
	client      *Client
	unitID      uint8
	baseAddress uint16
}

func NewControlBank(client *Client, unitID uint8, baseAddress uint16) *ControlBank {
	return &ControlBank{
		client:      client,
		unitID:      unitID,
		baseAddress: baseAddress,
	}
}

func (b *ControlBank) Client() *Client {
	return b.client
}

// Address is the holding register address of the high word of CR cr.
func (b *ControlBank) Address(cr int) (uint16, error) {
	addr := int(b.baseAddress) + WordsPerControlRegister*cr
	if cr < 0 || addr+1 > 0xFFFF {
		return 0, fmt.Errorf("control register %d is outside the holding register space", cr)
	}
	return uint16(addr), nil
}

// WriteControlRegisters writes values, batching consecutive CRs into one request.
func (b *ControlBank) WriteControlRegisters(ctx context.Context, values map[int]uint32) error {
	indices := make([]int, 0, len(values))
	for cr := range values {
		indices = append(indices, cr)
	}

	for _, run := range contiguousRuns(indices, MaxWriteQuantity/WordsPerControlRegister) {
		start, err := b.Address(run[0])
		if err != nil {
			return err
		}
		if _, err := b.Address(run[len(run)-1]); err != nil {
			return err
		}

		words := make([]uint16, 0, len(run)*WordsPerControlRegister)
		for _, cr := range run {
			hi, lo := SplitWords(values[cr])
			words = append(words, hi, lo)
		}

		if err := b.client.WriteMultipleRegisters(ctx, b.unitID, start, words); err != nil {
			return fmt.Errorf("failed to write CR%d-CR%d: %w", run[0], run[len(run)-1], err)
		}
	}
	return nil
}

// ReadControlRegisters reads the given CRs back.
func (b *ControlBank) ReadControlRegisters(ctx context.Context, indices []int) (map[int]uint32, error) {
	out := make(map[int]uint32, len(indices))

	for _, run := range contiguousRuns(indices, MaxReadQuantity/WordsPerControlRegister) {
		start, err := b.Address(run[0])
		if err != nil {
			return nil, err
		}
		if _, err := b.Address(run[len(run)-1]); err != nil {
			return nil, err
		}

		words, err := b.client.ReadHoldingRegisters(ctx, b.unitID, start, uint16(len(run)*WordsPerControlRegister))
		if err != nil {
			return nil, fmt.Errorf("failed to read CR%d-CR%d: %w", run[0], run[len(run)-1], err)
		}

		for i, cr := range run {
			out[cr] = JoinWords(words[2*i], words[2*i+1])
		}
	}
	return out, nil
}

// contiguousRuns sorts and dedups indices and splits them into runs of consecutive
// values no longer than maxLen.
func contiguousRuns(indices []int, maxLen int) [][]int {
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)

	var runs [][]int
	var cur []int
	for i, v := range sorted {
		if i > 0 && v == sorted[i-1] {
			continue
		}
		if len(cur) > 0 && (v != cur[len(cur)-1]+1 || len(cur) == maxLen) {
			runs = append(runs, cur)
			cur = nil
		}
		cur = append(cur, v)
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}
