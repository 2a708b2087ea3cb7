package deploy

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KevinKickass/OpenRegMap/internal/modbus"
)

// Result describes one deployment of control register values to a target.
type Result struct {
	TargetID   uuid.UUID      `json:"target_id"`
	Address    string         `json:"address"`
	Registers  map[int]uint32 `json:"registers"`
	Verified   bool           `json:"verified"`
	Mismatches []modbus.Drift `json:"mismatches,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	Duration   time.Duration  `json:"duration_ns"`
}

// VerifyError is returned when read-back after a write does not match.
type VerifyError struct {
	Address    string
	Mismatches []modbus.Drift
}

func (e *VerifyError) Error() string {
	first := e.Mismatches[0]
	return fmt.Sprintf("verification failed on %s: %d control registers differ (CR%d: wrote 0x%08X, read 0x%08X)",
		e.Address, len(e.Mismatches), first.Register, first.Expected, first.Actual)
}
