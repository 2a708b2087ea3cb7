package types

import (
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const DefaultModbusPort = 502

// Target is a device exposing the control register bank over Modbus TCP.
type Target struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Host        string    `json:"host"`
	Port        int       `json:"port"`
	UnitID      uint8     `json:"unit_id"`
	BaseAddress uint16    `json:"base_address"`
}

// Address is host:port, with the Modbus default port when none is set.
func (t Target) Address() string {
	port := t.Port
	if port == 0 {
		port = DefaultModbusPort
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port))
}

// ParseTargetAddress splits "host[:port]" into a Target.
func ParseTargetAddress(addr string) (Target, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		// no port given
		return Target{Host: addr, Port: DefaultModbusPort}, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Target{}, &net.AddrError{Err: "invalid port", Addr: addr}
	}
	return Target{Host: host, Port: port}, nil
}

// TargetInfo is the runtime view of a registered target.
type TargetInfo struct {
	Target
	Connected         bool       `json:"connected"`
	Watching          bool       `json:"watching"`
	LastDeploy        *time.Time `json:"last_deploy,omitempty"`
	DeployedRegisters int        `json:"deployed_registers"`
}
