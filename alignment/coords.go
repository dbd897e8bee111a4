package alignment

import "fmt"

// GappedIndex maps a 1-based ungapped reference position to the 0-based column
// holding that reference base, i.e. pos-1 plus the reference gaps before it.
func GappedIndex(ref string, pos int) (int, error) {
	if pos < 1 {
		return -1, fmt.Errorf("position %d: %w", pos, ErrPositionOutOfRange)
	}
	seen := 0
	for i := 0; i < len(ref); i++ {
		if ref[i] == Gap {
			continue
		}
		seen++
		if seen == pos {
			return i, nil
		}
	}
	return -1, fmt.Errorf("position %d beyond %d reference bases: %w", pos, seen, ErrPositionOutOfRange)
}

// InsertionColumn returns the first column after pos-1 reference bases, which is
// where an insertion reported at pos starts. ok is false if that column is not a
// reference gap, meaning there is no insertion there.
func InsertionColumn(ref string, pos int) (col int, ok bool, err error) {
	if pos < 1 {
		return -1, false, fmt.Errorf("position %d: %w", pos, ErrPositionOutOfRange)
	}
	seen := 0
	for i := 0; i < len(ref); i++ {
		if seen == pos-1 {
			return i, ref[i] == Gap, nil
		}
		if ref[i] != Gap {
			seen++
		}
	}
	return -1, false, fmt.Errorf("position %d beyond %d reference bases: %w", pos, seen, ErrPositionOutOfRange)
}

// UngappedPosition is the inverse of GappedIndex: the 1-based reference position of
// the first reference base at or after col.
func UngappedPosition(ref string, col int) int {
	pos := 1
	for i := 0; i < col && i < len(ref); i++ {
		if ref[i] != Gap {
			pos++
		}
	}
	return pos
}
