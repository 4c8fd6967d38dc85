package groups

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ProcLookup resolves supplementary groups from /proc/<pid>/status, the
// same source the kernel itself populates for getgroups(2) within the
// process's own namespace.
type ProcLookup struct{}

// Groups reads the "Groups:" line of /proc/<pid>/status and parses its
// space-separated gid list.
func (ProcLookup) Groups(pid uint32) ([]uint32, error) {
	path := fmt.Sprintf("/proc/%d/status", pid)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("groups: opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "Groups:") {
			continue
		}

		fields := strings.Fields(strings.TrimPrefix(line, "Groups:"))
		gids := make([]uint32, 0, len(fields))
		for _, field := range fields {
			gid, err := strconv.ParseUint(field, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("groups: parsing gid %q for pid %d: %w", field, pid, err)
			}
			gids = append(gids, uint32(gid))
		}
		return gids, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("groups: scanning %s: %w", path, err)
	}

	return nil, nil
}
