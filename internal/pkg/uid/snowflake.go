package uid

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates 63-bit time-ordered IDs using a per-host node number.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake derives the node number from the hostname so replicas rarely collide.
func NewSnowflake() (*Snowflake, error) {
	host, err := os.Hostname()
	if err != nil || strings.TrimSpace(host) == "" {
		host = "krishignan"
	}

	sum := sha256.Sum256([]byte(host))
	nodeID := int64(binary.BigEndian.Uint16(sum[:2])) % (1 << snowflake.NodeBits)

	return NewSnowflakeNode(nodeID)
}

// NewSnowflakeNode creates a generator for an explicit node number.
func NewSnowflakeNode(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("uid: snowflake node %d: %w", nodeID, err)
	}

	return &Snowflake{node: node}, nil
}

// Generate returns the next ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
