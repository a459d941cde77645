package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-query/internal/domain"
)

func TestNormalizeSort(t *testing.T) {
	tests := []struct {
		name     string
		keys     []string
		dirs     []string
		wantKeys []string
		wantDirs []Direction
	}{
		{
			name:     "defaults only",
			wantKeys: []string{"created_at", "id"},
			wantDirs: []Direction{Asc, Asc},
		},
		{
			name:     "first direction drives defaults",
			keys:     []string{"name"},
			dirs:     []string{"desc"},
			wantKeys: []string{"name", "created_at", "id"},
			wantDirs: []Direction{Desc, Desc, Desc},
		},
		{
			name:     "short dirs padded",
			keys:     []string{"name", "size"},
			dirs:     []string{"desc"},
			wantKeys: []string{"name", "size", "created_at", "id"},
			wantDirs: []Direction{Desc, Desc, Desc, Desc},
		},
		{
			name:     "default key already present",
			keys:     []string{"id", "name"},
			dirs:     []string{"asc", "desc"},
			wantKeys: []string{"id", "name", "created_at"},
			wantDirs: []Direction{Asc, Desc, Asc},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			keys, dirs, err := NormalizeSortDefaults(tc.keys, tc.dirs)
			require.NoError(t, err)
			assert.Equal(t, tc.wantKeys, keys)
			assert.Equal(t, tc.wantDirs, dirs)
		})
	}
}

func TestNormalizeSort_DoesNotModifyInputs(t *testing.T) {
	keys := []string{"name"}
	dirs := []string{"desc"}
	_, _, err := NormalizeSort(keys, dirs, []string{"id"}, Asc)
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, keys)
	assert.Equal(t, []string{"desc"}, dirs)
}

func TestNormalizeSort_Errors(t *testing.T) {
	_, _, err := NormalizeSortDefaults([]string{"a"}, []string{"asc", "desc"})
	var mismatch *domain.SortSizeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Keys)
	assert.Equal(t, 2, mismatch.Dirs)

	_, _, err = NormalizeSortDefaults([]string{"a"}, []string{"up"})
	var badDir *domain.InvalidSortDirectionError
	require.ErrorAs(t, err, &badDir)
	assert.Equal(t, "up", badDir.Direction)
	assert.True(t, domain.IsCallerInput(err))
}
