package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"home_climate/internal/models"
	"home_climate/internal/repository"
	"home_climate/internal/repository/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *repository.Repository {
	t.Helper()
	conn, err := db.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return repository.NewRepository(conn)
}

func reading(status string) models.ClimateReading {
	return models.ClimateReading{
		ZoneData:          []models.ZoneData{{LocationID: 1, Temperature: 20.5, LocationName: "living room"}},
		SelectedMode:      models.ModeHeat,
		OperatingStatus:   status,
		TargetTemperature: 21,
	}
}

func compact(t *testing.T, ctx context.Context, repo *repository.Repository, n int) models.CompactionResult {
	t.Helper()
	var res models.CompactionResult
	for i := 0; i < n; i++ {
		var err error
		res, err = repo.Climate.CompactLatest(ctx)
		require.NoError(t, err)
	}
	return res
}

func TestStore_CompactionMarksThenGrowsSpan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newStore(t)

	r1, err := repo.Climate.Create(ctx, reading("idle"))
	require.NoError(t, err)
	assert.False(t, r1.Archive)

	res := compact(t, ctx, repo, 1)
	assert.True(t, res.Archived)
	assert.Equal(t, 1, res.ArchiveSpan)

	res = compact(t, ctx, repo, 1)
	assert.False(t, res.Archived)
	assert.Equal(t, 2, res.ArchiveSpan)

	latest, err := repo.Climate.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, r1.ID, latest.ID)
	assert.True(t, latest.Archive)
	assert.Equal(t, 2, latest.ArchiveSpan)
}

func TestStore_CompactionOnEmptyCollection(t *testing.T) {
	t.Parallel()
	repo := newStore(t)

	res, err := repo.Climate.CompactLatest(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Empty)
}

// A transient reading superseded before the first tick is never archived;
// ten quiet ticks later the survivor stands for all ten intervals.
func TestStore_CleanupKeepsOnlyRepresentative(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newStore(t)

	_, err := repo.Climate.Create(ctx, reading("heating"))
	require.NoError(t, err)
	kept, err := repo.Climate.Create(ctx, reading("idle"))
	require.NoError(t, err)

	compact(t, ctx, repo, 10)

	deleted, err := repo.Climate.DeleteUnarchived(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	archived, err := repo.Climate.ListArchived(ctx, 100)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, kept.ID, archived[0].ID)
	assert.Equal(t, 10, archived[0].ArchiveSpan)
}

func TestStore_LaterReadingDoesNotArchiveEarlierOne(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newStore(t)

	first, err := repo.Climate.Create(ctx, reading("idle"))
	require.NoError(t, err)
	compact(t, ctx, repo, 2)

	// Two readings land inside one interval; only the newer is archived.
	_, err = repo.Climate.Create(ctx, reading("heating"))
	require.NoError(t, err)
	third, err := repo.Climate.Create(ctx, reading("idle"))
	require.NoError(t, err)
	compact(t, ctx, repo, 1)

	deleted, err := repo.Climate.DeleteUnarchived(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	archived, err := repo.Climate.ListArchived(ctx, 10)
	require.NoError(t, err)
	require.Len(t, archived, 2)
	assert.Equal(t, third.ID, archived[0].ID)
	assert.Equal(t, 1, archived[0].ArchiveSpan)
	assert.Equal(t, first.ID, archived[1].ID)
	assert.Equal(t, 2, archived[1].ArchiveSpan)
}

func TestStore_PatchAndCompactionCommute(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	target := 23.5
	mode := models.ModeCool
	patch := models.ClimateSettings{TargetTemperature: &target, SelectedMode: &mode}

	run := func(patchFirst bool) models.ClimateReading {
		repo := newStore(t)
		_, err := repo.Climate.Create(ctx, reading("idle"))
		require.NoError(t, err)
		compact(t, ctx, repo, 1)

		if patchFirst {
			_, err = repo.Climate.PatchLatest(ctx, patch)
			require.NoError(t, err)
			compact(t, ctx, repo, 1)
		} else {
			compact(t, ctx, repo, 1)
			_, err = repo.Climate.PatchLatest(ctx, patch)
			require.NoError(t, err)
		}
		latest, err := repo.Climate.Latest(ctx)
		require.NoError(t, err)
		return latest
	}

	a, b := run(true), run(false)
	for _, r := range []models.ClimateReading{a, b} {
		assert.True(t, r.Archive)
		assert.Equal(t, 2, r.ArchiveSpan)
		assert.Equal(t, 23.5, r.TargetTemperature)
		assert.Equal(t, models.ModeCool, r.SelectedMode)
	}
}

func TestStore_PatchLatestWithoutReadings(t *testing.T) {
	t.Parallel()
	repo := newStore(t)

	sleep := true
	_, err := repo.Climate.PatchLatest(context.Background(), models.ClimateSettings{Sleep: &sleep})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func program(name string) models.ClimateProgram {
	return models.ClimateProgram{Name: name, Program: []float64{19, 20, 21}, Mode: models.ModeHeat}
}

func activeIDs(t *testing.T, repo *repository.Repository) []int64 {
	t.Helper()
	all, err := repo.Programs.List(context.Background())
	require.NoError(t, err)
	var ids []int64
	for _, p := range all {
		if p.IsActive {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func TestStore_AtMostOneActiveProgram(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newStore(t)

	p1, err := repo.Programs.Create(ctx, program("weekday"))
	require.NoError(t, err)
	p2, err := repo.Programs.Create(ctx, program("weekend"))
	require.NoError(t, err)
	p3, err := repo.Programs.Create(ctx, program("away"))
	require.NoError(t, err)
	assert.Empty(t, activeIDs(t, repo))

	_, err = repo.Programs.Activate(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{p1.ID}, activeIDs(t, repo))

	got, err := repo.Programs.Activate(ctx, p2.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Equal(t, []int64{p2.ID}, activeIDs(t, repo))

	active := true
	_, err = repo.Programs.Update(ctx, p3.ID, models.ProgramPatch{IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, []int64{p3.ID}, activeIDs(t, repo))

	current, err := repo.Programs.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, p3.ID, current.ID)

	n, err := repo.Programs.DeactivateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = repo.Programs.Active(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_ActivateUnknownProgramKeepsCurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newStore(t)

	p1, err := repo.Programs.Create(ctx, program("weekday"))
	require.NoError(t, err)
	_, err = repo.Programs.Activate(ctx, p1.ID)
	require.NoError(t, err)

	_, err = repo.Programs.Activate(ctx, 404)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, []int64{p1.ID}, activeIDs(t, repo))
}

func TestStore_ConditionalDeactivate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newStore(t)

	p1, err := repo.Programs.Create(ctx, program("weekday"))
	require.NoError(t, err)
	p2, err := repo.Programs.Create(ctx, program("weekend"))
	require.NoError(t, err)

	_, err = repo.Programs.Activate(ctx, p1.ID)
	require.NoError(t, err)
	_, err = repo.Programs.Activate(ctx, p2.ID)
	require.NoError(t, err)

	// A late rollback of p1 must not disturb p2.
	changed, err := repo.Programs.Deactivate(ctx, p1.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []int64{p2.ID}, activeIDs(t, repo))

	changed, err = repo.Programs.Deactivate(ctx, p2.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, activeIDs(t, repo))
}

func TestStore_DuplicateProgramName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newStore(t)

	_, err := repo.Programs.Create(ctx, program("weekday"))
	require.NoError(t, err)
	_, err = repo.Programs.Create(ctx, program("weekday"))
	assert.Error(t, err)
}

func TestStore_ProgramDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newStore(t)

	p, err := repo.Programs.Create(ctx, program("weekday"))
	require.NoError(t, err)
	_, err = repo.Programs.Activate(ctx, p.ID)
	require.NoError(t, err)

	removed, err := repo.Programs.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, removed.IsActive)

	_, err = repo.Programs.Get(ctx, p.ID)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	_, err = repo.Programs.Delete(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_GarageDoorApply(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newStore(t)

	_, err := repo.Garage.Get(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	moving, up := true, "up"
	door, err := repo.Garage.Apply(ctx, models.GarageDoorPatch{InMotion: &moving, MotionDirection: &up})
	require.NoError(t, err)
	assert.True(t, door.InMotion)
	assert.Equal(t, "up", door.MotionDirection)
	assert.Equal(t, "closed", door.Position)

	stopped, open := false, "open"
	door, err = repo.Garage.Apply(ctx, models.GarageDoorPatch{InMotion: &stopped, Position: &open})
	require.NoError(t, err)
	assert.False(t, door.InMotion)
	assert.Equal(t, "up", door.MotionDirection)
	assert.Equal(t, "open", door.Position)

	sideways := "sideways"
	_, err = repo.Garage.Apply(ctx, models.GarageDoorPatch{MotionDirection: &sideways})
	var verr *repository.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestStore_Videos(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newStore(t)

	start := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	v, err := repo.Videos.Create(ctx, models.Video{
		Filename:      "front-1.mp4",
		Location:      "front door",
		StartDateTime: start,
		Duration:      30,
		TriggerEvent:  "motion",
	})
	require.NoError(t, err)
	assert.Equal(t, start.Add(30*time.Second), v.EndDateTime)

	_, err = repo.Videos.Create(ctx, models.Video{Filename: "back-1.mp4", Location: "yard", TriggerEvent: "manual"})
	require.NoError(t, err)

	recent, err := repo.Videos.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "back-1.mp4", recent[0].Filename)

	front, err := repo.Videos.ListByLocation(ctx, "front door", 10)
	require.NoError(t, err)
	require.Len(t, front, 1)
	assert.Equal(t, "front-1.mp4", front[0].Filename)

	removed, err := repo.Videos.Delete(ctx, "front-1.mp4")
	require.NoError(t, err)
	assert.Equal(t, "front door", removed.Location)

	_, err = repo.Videos.Delete(ctx, "front-1.mp4")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_UsernamesAreUnique(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	first, err := store.Users.Create(ctx, models.User{Username: "household", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = store.Users.Create(ctx, models.User{Username: "household", PasswordHash: "other"})
	require.ErrorIs(t, err, repository.ErrUsernameTaken)

	got, err := store.Users.GetByUsername(ctx, "household")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "h", got.PasswordHash)
}
