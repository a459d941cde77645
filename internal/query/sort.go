package query

import (
	"slices"

	"account-query/internal/domain"
)

// DefaultSortKeys are appended to every ordering so pages are stable.
var DefaultSortKeys = []string{"created_at", "id"}

// NormalizeSortDefaults normalizes keys and dirs against DefaultSortKeys
// with ascending order as the default direction.
func NormalizeSortDefaults(keys, dirs []string) ([]string, []Direction, error) {
	return NormalizeSort(keys, dirs, DefaultSortKeys, Asc)
}

// NormalizeSort returns sort keys and directions of equal length with every
// default key present.
//
// The first entry of dirs, if any, is the direction given to keys without an
// explicit direction and to appended default keys; otherwise defaultDir is
// used. More directions than keys is an error. The inputs are not modified.
func NormalizeSort(keys, dirs []string, defaultKeys []string, defaultDir Direction) ([]string, []Direction, error) {
	defaultDirValue := defaultDir
	if len(dirs) > 0 {
		defaultDirValue = Direction(dirs[0])
	}

	resultKeys := append([]string(nil), keys...)

	resultDirs := make([]Direction, 0, len(keys))
	for _, d := range dirs {
		if d != string(Asc) && d != string(Desc) {
			return nil, nil, &domain.InvalidSortDirectionError{Direction: d}
		}
		resultDirs = append(resultDirs, Direction(d))
	}

	if len(resultDirs) > len(resultKeys) {
		return nil, nil, &domain.SortSizeMismatchError{Keys: len(resultKeys), Dirs: len(resultDirs)}
	}
	for len(resultDirs) < len(resultKeys) {
		resultDirs = append(resultDirs, defaultDirValue)
	}

	for _, k := range defaultKeys {
		if !slices.Contains(resultKeys, k) {
			resultKeys = append(resultKeys, k)
			resultDirs = append(resultDirs, defaultDirValue)
		}
	}
	return resultKeys, resultDirs, nil
}
