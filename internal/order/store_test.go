package order

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terranet-ag/onboarding-service/internal/config"
	"github.com/terranet-ag/onboarding-service/internal/models/errs"
	"github.com/terranet-ag/onboarding-service/internal/models/field"
	"github.com/terranet-ag/onboarding-service/internal/models/grower"
	"github.com/terranet-ag/onboarding-service/internal/models/status"
	"github.com/terranet-ag/onboarding-service/pkg/logger"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := &config.Config{}
	cfg.Orders.Root = t.TempDir()
	cfg.Orders.SlugLength = 12

	store, err := NewStore(cfg, logger.NewWithZap(zap.NewNop()))
	require.NoError(t, err)
	return store
}

func sampleSnapshot() *Snapshot {
	c1, c2 := 70.0, 35.0
	return &Snapshot{
		Grower:      grower.Info{Name: "Jane Doe", Email: "jane@x.com"},
		ProgramType: "REMOTE_ONLY",
		Fields: []field.Record{
			{ID: "f1", Name: "North", Acres: 10, AnnualCost: &c1},
			{ID: "f2", Name: "South", Acres: 5, AnnualCost: &c2},
		},
	}
}

func TestCreateWritesAllArtifacts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, sampleSnapshot())
	require.NoError(t, err)
	assert.Contains(t, id, "q_Jane_Doe_")

	dir := store.layout.OrderDir(id)
	assert.FileExists(t, filepath.Join(dir, snapshotFile))
	assert.FileExists(t, filepath.Join(dir, clientCSVFile))
	assert.FileExists(t, filepath.Join(dir, fieldsCSVFile))
	assert.FileExists(t, filepath.Join(dir, summaryFile))
	assert.FileExists(t, filepath.Join(dir, packetFile))
	assert.FileExists(t, filepath.Join(dir, statusFile))

	data, err := os.ReadFile(filepath.Join(dir, statusFile))
	require.NoError(t, err)
	assert.Equal(t, "Quoted", string(data))

	// The staging directory must be gone after publishing.
	entries, err := os.ReadDir(store.layout.Root())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].Name())
}

func TestCreateRejectsEmptyFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		snap *Snapshot
	}{
		{
			name: "nil snapshot",
			snap: nil,
		},
		{
			name: "no fields",
			snap: &Snapshot{
				Grower:      grower.Info{Name: "Jane Doe", Email: "jane@x.com"},
				ProgramType: "REMOTE_ONLY",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(ctx, tt.snap)
			assert.True(t, errors.Is(err, errs.ErrValidation))
		})
	}

	// No side effects at all.
	entries, err := os.ReadDir(store.layout.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateCollisionGetsFreshID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Freeze the clock so both orders derive the same slug+timestamp.
	frozen := time.Now()
	store.now = func() time.Time { return frozen }

	first, err := store.Create(ctx, sampleSnapshot())
	require.NoError(t, err)
	second, err := store.Create(ctx, sampleSnapshot())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.DirExists(t, store.layout.OrderDir(first))
	assert.DirExists(t, store.layout.OrderDir(second))
}

func TestCreateDefaultsBlankGrowerName(t *testing.T) {
	store := newTestStore(t)
	snap := sampleSnapshot()
	snap.Grower.Name = "   "

	id, err := store.Create(context.Background(), snap)
	require.NoError(t, err)
	assert.Contains(t, id, "q_grower_")
}

func TestListSummaries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older, err := store.Create(ctx, sampleSnapshot())
	require.NoError(t, err)

	newerSnap := sampleSnapshot()
	newerSnap.Grower.Name = "Bob Roy"
	newer, err := store.Create(ctx, newerSnap)
	require.NoError(t, err)

	// Orders without a client table are incomplete and skipped.
	require.NoError(t, os.MkdirAll(store.layout.OrderDir("q_broken_1"), 0o755))

	// Force a clear mtime gap.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(store.layout.OrderDir(older), past, past))

	summaries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, newer, summaries[0].QuoteID)
	assert.Equal(t, older, summaries[1].QuoteID)

	first := summaries[0]
	assert.Equal(t, "Bob Roy", first.GrowerName)
	assert.Equal(t, "REMOTE_ONLY", first.ProgramType)
	assert.Equal(t, 2, first.FieldCount)
	assert.InDelta(t, 15.0, first.TotalAcres, 1e-9)
	assert.InDelta(t, 105.0, first.TotalAnnualCost, 1e-9)
	assert.Equal(t, status.Quoted, first.Status)
}

func TestListEmptyRoot(t *testing.T) {
	store := newTestStore(t)

	summaries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestGetDetail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, sampleSnapshot())
	require.NoError(t, err)

	detail, err := store.GetDetail(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, detail.QuoteID)
	assert.Equal(t, "Jane Doe", detail.Grower.Name)
	assert.Equal(t, "REMOTE_ONLY", detail.ProgramType)
	require.Len(t, detail.Fields, 2)
	assert.Equal(t, "f1", detail.Fields[0].ID)
	assert.Equal(t, status.Quoted, detail.Status)

	for _, key := range []string{
		"client_info_csv", "fields_csv", "fields_geojson",
		"fields_geojson_dir", "onboarding_zip",
	} {
		assert.Contains(t, detail.Exports, key)
	}
}

func TestGetDetailNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetDetail(context.Background(), "q_missing_1")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestGetDetailInconsistent(t *testing.T) {
	store := newTestStore(t)

	// An order root without a snapshot signals a prior partial write,
	// which must be distinguishable from plain not-found.
	require.NoError(t, os.MkdirAll(store.layout.OrderDir("q_corrupt_1"), 0o755))

	_, err := store.GetDetail(context.Background(), "q_corrupt_1")
	assert.True(t, errors.Is(err, errs.ErrInconsistent))
	assert.False(t, errors.Is(err, errs.ErrNotFound))
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, sampleSnapshot())
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))

	_, err = store.GetDetail(ctx, id)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	err = store.Delete(ctx, id)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestGeneratePacketIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, sampleSnapshot())
	require.NoError(t, err)

	require.NoError(t, store.GeneratePacket(ctx, id))
	first := packetMembers(t, store.layout.Packet(id))

	require.NoError(t, store.GeneratePacket(ctx, id))
	second := packetMembers(t, store.layout.Packet(id))

	assert.Equal(t, first, second)
}

func TestGeneratePacketFailures(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.GeneratePacket(ctx, "q_missing_1")
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	id, err := store.Create(ctx, sampleSnapshot())
	require.NoError(t, err)
	require.NoError(t, os.Remove(store.layout.Snapshot(id)))

	err = store.GeneratePacket(ctx, id)
	assert.True(t, errors.Is(err, errs.ErrInconsistent))
}

func TestStatusRegister(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, sampleSnapshot())
	require.NoError(t, err)

	st, err := store.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, status.Quoted, st)

	require.NoError(t, store.SetStatus(ctx, id, status.Paid))

	st, err = store.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, status.Paid, st)

	// Any member of the set is reachable from any other.
	require.NoError(t, store.SetStatus(ctx, id, status.Quoted))

	err = store.SetStatus(ctx, id, status.Status("Shipped"))
	assert.True(t, errors.Is(err, errs.ErrValidation))

	st, err = store.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, status.Quoted, st, "rejected update must leave the status unchanged")
}

func TestStatusNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Status(ctx, "q_missing_1")
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	err = store.SetStatus(ctx, "q_missing_1", status.Paid)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestRematerializePreservesStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, sampleSnapshot())
	require.NoError(t, err)
	require.NoError(t, store.SetStatus(ctx, id, status.Paid))

	// Regenerating every export in place must not reset the register.
	require.NoError(t, store.materialize(store.layout.OrderDir(id), id, sampleSnapshot()))

	st, err := store.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, status.Paid, st)
}

func TestExportPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, sampleSnapshot())
	require.NoError(t, err)

	path, err := store.ExportPath(ctx, id, clientCSVFile)
	require.NoError(t, err)
	assert.FileExists(t, path)

	// Names outside the allow-list are rejected regardless of whether
	// the order exists.
	_, err = store.ExportPath(ctx, id, "malware.exe")
	assert.True(t, errors.Is(err, errs.ErrValidation))
	_, err = store.ExportPath(ctx, "q_missing_1", "malware.exe")
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = store.ExportPath(ctx, "q_missing_1", clientCSVFile)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	// No geometry on any field, so there is no combined document.
	_, err = store.ExportPath(ctx, id, combinedGeoJSONFile)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}
