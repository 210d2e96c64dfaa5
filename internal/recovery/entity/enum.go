package entity

import "strings"

// StoreMode selects where reset sessions live.
type StoreMode int

const (
	StoreModeUnknown StoreMode = iota
	StoreModeMemory
	StoreModeRedis
	StoreModeToken
)

var storeModeNames = map[StoreMode]string{
	StoreModeMemory: "memory",
	StoreModeRedis:  "redis",
	StoreModeToken:  "token",
}

func (m StoreMode) String() string {
	if name, ok := storeModeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseStoreMode maps a config value to a StoreMode. Empty means memory.
func ParseStoreMode(s string) StoreMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "memory":
		return StoreModeMemory
	case "redis":
		return StoreModeRedis
	case "token", "stateless":
		return StoreModeToken
	default:
		return StoreModeUnknown
	}
}

// DeliveryMode selects how reset codes reach the user.
type DeliveryMode int

const (
	DeliveryModeUnknown DeliveryMode = iota
	DeliveryModeDirect
	DeliveryModeQueue
)

func (m DeliveryMode) String() string {
	switch m {
	case DeliveryModeDirect:
		return "direct"
	case DeliveryModeQueue:
		return "queue"
	default:
		return "unknown"
	}
}

// ParseDeliveryMode maps a config value to a DeliveryMode. Empty means direct.
func ParseDeliveryMode(s string) DeliveryMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "direct":
		return DeliveryModeDirect
	case "queue":
		return DeliveryModeQueue
	default:
		return DeliveryModeUnknown
	}
}
