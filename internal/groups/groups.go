// Package groups implements the Groups(pid) capability the permission
// model consults on the chown path: a caller's supplementary group set,
// beyond the single gid carried on each request.
package groups

// Lookup resolves the supplementary group IDs of a process.
type Lookup interface {
	Groups(pid uint32) ([]uint32, error)
}
