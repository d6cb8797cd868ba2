package restore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svartholm/hostback/internal/models"
	"github.com/svartholm/hostback/internal/services/rsync"
)

// Mock implementations.
type mockStore struct {
	cfg     *models.RestoreConfig
	cfgErr  error
	history map[string][]string
}

func (m *mockStore) LoadRestoreConfig() (*models.RestoreConfig, error) {
	return m.cfg, m.cfgErr
}

func (m *mockStore) AppendHistory(role, dir string) error {
	if m.history == nil {
		m.history = make(map[string][]string)
	}
	m.history[role] = append(m.history[role], dir)
	return nil
}

type mockLedger struct {
	entries []string
}

func (m *mockLedger) Record(message string) error {
	m.entries = append(m.entries, message)
	return nil
}

type mockSink struct {
	lines []string
}

func (m *mockSink) WriteLine(line string) {
	m.lines = append(m.lines, line)
}

type mockSync struct {
	syncFunc func(ctx context.Context, opts rsync.Options) (*models.SyncResult, error)
	opts     []rsync.Options
}

func (m *mockSync) Sync(ctx context.Context, opts rsync.Options) (*models.SyncResult, error) {
	m.opts = append(m.opts, opts)
	if m.syncFunc != nil {
		return m.syncFunc(ctx, opts)
	}
	return &models.SyncResult{}, nil
}

type mockArchive struct {
	extractFunc func(ctx context.Context, archivePath, targetDir string, members ...string) (*models.ArchiveResult, error)
	extracted   []string
}

func (m *mockArchive) Create(ctx context.Context, archivePath, sourceDir string, level int) (*models.ArchiveResult, error) {
	return &models.ArchiveResult{}, nil
}

func (m *mockArchive) List(ctx context.Context, archivePath string) (*models.ArchiveResult, error) {
	return &models.ArchiveResult{}, nil
}

func (m *mockArchive) Extract(ctx context.Context, archivePath, targetDir string, members ...string) (*models.ArchiveResult, error) {
	m.extracted = append(m.extracted, targetDir)
	if m.extractFunc != nil {
		return m.extractFunc(ctx, archivePath, targetDir, members...)
	}
	return &models.ArchiveResult{}, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type fixture struct {
	store    *mockStore
	ledger   *mockLedger
	sink     *mockSink
	sync     *mockSync
	archive  *mockArchive
	tempRoot string
	svc      *Impl
}

func newFixture(t *testing.T, cfg *models.RestoreConfig) *fixture {
	t.Helper()
	f := &fixture{
		store:    &mockStore{cfg: cfg},
		ledger:   &mockLedger{},
		sink:     &mockSink{},
		sync:     &mockSync{},
		archive:  &mockArchive{},
		tempRoot: t.TempDir(),
	}
	f.svc = NewWithServices(testLogger(), f.sink, f.store, f.ledger, f.sync, f.archive, f.tempRoot)
	return f
}

func existingArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "system_backup_test.tar.xz")
	require.NoError(t, os.WriteFile(path, []byte("archive"), 0o600))
	return path
}

func TestRun_Success(t *testing.T) {
	target := t.TempDir()
	f := newFixture(t, &models.RestoreConfig{
		BackupFile: existingArchive(t),
		RestoreDir: target,
	})

	ok := f.svc.Run(context.Background())

	require.True(t, ok)
	assert.Empty(t, f.ledger.entries)

	// Extracted into a temp dir, synced from it into the target.
	require.Len(t, f.archive.extracted, 1)
	require.Len(t, f.sync.opts, 1)
	assert.Equal(t, f.archive.extracted[0], f.sync.opts[0].Source)
	assert.Equal(t, target, f.sync.opts[0].Dest)

	// Temp dir removed afterwards.
	_, err := os.Stat(f.archive.extracted[0])
	assert.True(t, os.IsNotExist(err))
}

func TestRun_NoBackupConfigured(t *testing.T) {
	f := newFixture(t, &models.RestoreConfig{RestoreDir: t.TempDir()})

	ok := f.svc.Run(context.Background())

	require.False(t, ok)
	require.Len(t, f.ledger.entries, 1)
	assert.Contains(t, f.ledger.entries[0], "no backup file configured")
}

func TestRun_MissingArchiveFailsBeforeTempDir(t *testing.T) {
	f := newFixture(t, &models.RestoreConfig{
		BackupFile: filepath.Join(t.TempDir(), "gone.tar.xz"),
		RestoreDir: t.TempDir(),
	})

	ok := f.svc.Run(context.Background())

	require.False(t, ok)
	require.Len(t, f.ledger.entries, 1)
	assert.Contains(t, f.ledger.entries[0], "does not exist")
	assert.Empty(t, f.archive.extracted, "no temp directory work before validation")

	entries, err := os.ReadDir(f.tempRoot)
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp directory may be created")
}

func TestRun_UnwritableTarget(t *testing.T) {
	f := newFixture(t, &models.RestoreConfig{
		BackupFile: existingArchive(t),
		RestoreDir: filepath.Join(t.TempDir(), "missing"),
	})

	ok := f.svc.Run(context.Background())

	require.False(t, ok)
	require.Len(t, f.ledger.entries, 1)
	assert.Contains(t, f.ledger.entries[0], "restore target")
}

func TestRun_ExtractionFailureRemovesTempDir(t *testing.T) {
	f := newFixture(t, &models.RestoreConfig{
		BackupFile: existingArchive(t),
		RestoreDir: t.TempDir(),
	})
	f.archive.extractFunc = func(ctx context.Context, archivePath, targetDir string, members ...string) (*models.ArchiveResult, error) {
		return &models.ArchiveResult{ExitCode: 2}, nil
	}

	ok := f.svc.Run(context.Background())

	require.False(t, ok)
	require.Len(t, f.ledger.entries, 1)
	assert.Contains(t, f.ledger.entries[0], "extraction failed with exit code 2")
	assert.Empty(t, f.sync.opts, "no sync after failed extraction")

	_, err := os.Stat(f.archive.extracted[0])
	assert.True(t, os.IsNotExist(err))
}

func TestRun_SyncFailureRemovesTempDir(t *testing.T) {
	f := newFixture(t, &models.RestoreConfig{
		BackupFile: existingArchive(t),
		RestoreDir: t.TempDir(),
	})
	f.sync.syncFunc = func(ctx context.Context, opts rsync.Options) (*models.SyncResult, error) {
		return &models.SyncResult{ExitCode: 11}, nil
	}

	ok := f.svc.Run(context.Background())

	require.False(t, ok)
	require.Len(t, f.ledger.entries, 1)
	assert.Contains(t, f.ledger.entries[0], "11")

	_, err := os.Stat(f.archive.extracted[0])
	assert.True(t, os.IsNotExist(err))
}

func TestRun_SyncRunsWithoutLinkDest(t *testing.T) {
	f := newFixture(t, &models.RestoreConfig{
		BackupFile: existingArchive(t),
		RestoreDir: t.TempDir(),
	})

	ok := f.svc.Run(context.Background())

	require.True(t, ok)
	assert.Empty(t, f.sync.opts[0].LinkDest, "restore never uses the incremental chain")
	assert.Empty(t, f.sync.opts[0].Excludes)
}

func TestRun_RecordsRestoreHistory(t *testing.T) {
	target := t.TempDir()
	f := newFixture(t, &models.RestoreConfig{
		BackupFile: existingArchive(t),
		RestoreDir: target,
	})

	ok := f.svc.Run(context.Background())

	require.True(t, ok)
	assert.Equal(t, []string{target}, f.store.history[models.HistoryRestore])
}
