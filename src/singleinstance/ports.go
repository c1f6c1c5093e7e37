package singleinstance

import (
	"hash/fnv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	portBase  = 49500 // bottom of the private/dynamic slice we use
	portSpan  = 4000  // spread of derived range starts above portBase
	portCount = 10    // ports probed per range
)

// getPortRange returns the loopback TCP port range used by this binary.
// The start is derived from the executable name, so a renamed or forked
// build gets its own resident slot instead of colliding. Environment
// variables SINGLEINSTANCE_PORT_START and SINGLEINSTANCE_PORT_END
// (integers, inclusive) override; values clamp to [1024, 65535].
func getPortRange() (int, int) {
	start := portBase + int(exeNameHash()%portSpan)
	end := start + portCount - 1
	if v := os.Getenv("SINGLEINSTANCE_PORT_START"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			start = n
			end = start + portCount - 1
		}
	}
	if v := os.Getenv("SINGLEINSTANCE_PORT_END"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			end = n
		}
	}
	if start < 1024 {
		start = 1024
	}
	if end > 65535 {
		end = 65535
	}
	if end < start {
		start, end = end, start
	}
	return start, end
}

func exeNameHash() uint32 {
	exe, err := os.Executable()
	if err != nil {
		return 0
	}
	name := strings.ToLower(filepath.Base(exe))
	name = strings.TrimSuffix(name, ".exe")
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return h.Sum32()
}

// GetPortRangeForDebug exposes the current effective port range for logging/debugging.
func GetPortRangeForDebug() (int, int) { return getPortRange() }
