package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// NewKSUID generates a new globally unique KSUID string. Used for request ids.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewSnowflakeID returns a snowflake ID string from a process-wide node.
// The node id comes from SNOWFLAKE_NODE (default 1). If the node cannot be
// created, a KSUID string is returned instead so callers always get an id.
func NewSnowflakeID() string {
	nodeOnce.Do(func() {
		id := int64(1)
		if v, err := strconv.ParseInt(os.Getenv("SNOWFLAKE_NODE"), 10, 64); err == nil {
			id = v
		}
		node, _ = snowflake.NewNode(id)
	})
	if node == nil {
		return NewKSUID()
	}
	return node.Generate().String()
}
