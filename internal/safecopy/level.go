package safecopy

import "fmt"

// Level selects one of the five replacement protocols. Higher levels
// shrink the window in which the destination is missing or partial, paying
// for it with temporary space and extra round trips.
type Level int

const (
	// LevelOverwrite writes straight over the destination. A failed write
	// leaves it truncated or corrupt.
	LevelOverwrite Level = iota
	// LevelDelete removes the destination first, then writes it.
	LevelDelete
	// LevelBackup moves the destination aside, writes in place, then drops
	// the backup.
	LevelBackup
	// LevelStage writes a temporary and renames it into place. The
	// destination is never observed absent; atomic when the rename is.
	LevelStage
	// LevelStageBackup stages the new content, moves the old destination
	// aside, swaps the staged copy in, then drops the backup. The old
	// destination is not touched until the new content is fully staged.
	LevelStageBackup
)

// DefaultLevel applies when the caller does not choose.
const DefaultLevel = LevelStage

// ParseLevel validates an integer level from the boundary.
func ParseLevel(n int) (Level, error) {
	if n < int(LevelOverwrite) || n > int(LevelStageBackup) {
		return 0, fmt.Errorf("safecopy: level %d out of range 0..4", n)
	}
	return Level(n), nil
}

func (l Level) String() string {
	switch l {
	case LevelOverwrite:
		return "overwrite"
	case LevelDelete:
		return "delete"
	case LevelBackup:
		return "backup"
	case LevelStage:
		return "stage"
	case LevelStageBackup:
		return "stage-backup"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}
