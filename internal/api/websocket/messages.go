package websocket

import (
	"time"

	"github.com/KevinKickass/OpenRegMap/internal/modbus"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Layout messages
	MessageTypeLayoutSaved   MessageType = "layout_saved"
	MessageTypeLayoutDeleted MessageType = "layout_deleted"

	// Deployment messages
	MessageTypeDeployStarted   MessageType = "deploy_started"
	MessageTypeDeployCompleted MessageType = "deploy_completed"
	MessageTypeDeployFailed    MessageType = "deploy_failed"
	MessageTypeRegisterDrift   MessageType = "register_drift"

	// System messages
	MessageTypeSystemStatus MessageType = "system_status"
)

// MessageTypes lists every type a client may subscribe to.
func MessageTypes() []MessageType {
	return []MessageType{
		MessageTypeLayoutSaved, MessageTypeLayoutDeleted,
		MessageTypeDeployStarted, MessageTypeDeployCompleted, MessageTypeDeployFailed,
		MessageTypeRegisterDrift, MessageTypeSystemStatus,
	}
}

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type LayoutData struct {
	LayoutID          string  `json:"layout_id"`
	Name              string  `json:"name"`
	Fields            int     `json:"fields,omitempty"`
	EfficiencyPercent float64 `json:"efficiency_percent,omitempty"`
}

type DeployData struct {
	LayoutID  string         `json:"layout_id"`
	Target    string         `json:"target"`
	Registers map[int]uint32 `json:"registers,omitempty"`
	Verified  bool           `json:"verified"`
	Error     string         `json:"error,omitempty"`
}

type DriftData struct {
	TargetID string         `json:"target_id"`
	Target   string         `json:"target"`
	Drift    []modbus.Drift `json:"drift"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewLayoutMessage(msgType MessageType, layoutID, name string, fields int, efficiency float64) Message {
	return NewMessage(msgType, LayoutData{
		LayoutID:          layoutID,
		Name:              name,
		Fields:            fields,
		EfficiencyPercent: efficiency,
	})
}

func NewDeployMessage(msgType MessageType, data DeployData) Message {
	return NewMessage(msgType, data)
}

func NewDriftMessage(targetID, target string, drift []modbus.Drift) Message {
	return NewMessage(MessageTypeRegisterDrift, DriftData{
		TargetID: targetID,
		Target:   target,
		Drift:    drift,
	})
}
