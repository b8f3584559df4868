package access

import (
	"errors"
	"testing"

	"adops/internal/common"
	"adops/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLattice_AllowedLevels(t *testing.T) {
	l := DefaultLattice()

	levels, err := l.AllowedLevels(models.PermissionWallet)
	require.NoError(t, err)
	assert.Equal(t, []models.AccessLevel{
		models.AccessNone, models.AccessView, models.AccessManageWallet, models.AccessFull,
	}, levels)

	levels, err = l.AllowedLevels(models.PermissionFileManagement)
	require.NoError(t, err)
	assert.Equal(t, []models.AccessLevel{models.AccessNone, models.AccessView, models.AccessFull}, levels)

	_, err = l.AllowedLevels("TELEPORTATION")
	assert.True(t, errors.Is(err, common.ErrUnknownPermissionType))
}

func TestLattice_AllowedLevelsReturnsCopy(t *testing.T) {
	l := DefaultLattice()
	levels, _ := l.AllowedLevels(models.PermissionUserManagement)
	levels[0] = models.AccessFull

	again, _ := l.AllowedLevels(models.PermissionUserManagement)
	assert.Equal(t, models.AccessNone, again[0])
}

func TestLattice_MeetsOrExceedsIsMonotone(t *testing.T) {
	l := DefaultLattice()

	for _, pt := range l.Types() {
		levels, err := l.AllowedLevels(pt)
		require.NoError(t, err)

		for i := range levels {
			for j := range levels {
				got := l.MeetsOrExceeds(pt, levels[i], levels[j])
				assert.Equal(t, i >= j, got, "%s: %s vs %s", pt, levels[i], levels[j])
			}
		}
	}
}

func TestLattice_UnknownLevel(t *testing.T) {
	l := DefaultLattice()

	_, err := l.Rank(models.PermissionFileManagement, models.AccessManageWallet)
	assert.True(t, errors.Is(err, common.ErrUnknownAccessLevel))
	assert.False(t, l.MeetsOrExceeds(models.PermissionFileManagement, models.AccessManageWallet, models.AccessNone))
	assert.False(t, l.IsValid(models.PermissionFileManagement, models.AccessGenerateReports))
	assert.True(t, l.IsValid(models.PermissionReportGeneration, models.AccessGenerateReports))
}

func TestNewLattice_RejectsBadConfig(t *testing.T) {
	_, err := NewLattice(map[models.PermissionType][]models.AccessLevel{
		models.PermissionWallet: {models.AccessNone, models.AccessView, models.AccessNone},
	})
	assert.Error(t, err)

	_, err = NewLattice(map[models.PermissionType][]models.AccessLevel{
		models.PermissionWallet: {},
	})
	assert.Error(t, err)
}

func TestLattice_TypesOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg["ZZZ_CUSTOM"] = standardLevels
	cfg["AAA_CUSTOM"] = standardLevels

	l, err := NewLattice(cfg)
	require.NoError(t, err)

	types := l.Types()
	assert.Equal(t, models.AllPermissionTypes, types[:len(models.AllPermissionTypes)])
	assert.Equal(t, []models.PermissionType{"AAA_CUSTOM", "ZZZ_CUSTOM"}, types[len(models.AllPermissionTypes):])
}
