package archive

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockExecutor struct {
	runFunc   func(ctx context.Context, name string, args ...string) (int, error)
	calls     [][]string
	quietRuns int
}

func (m *mockExecutor) Run(ctx context.Context, name string, args ...string) (int, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	if m.runFunc != nil {
		return m.runFunc(ctx, name, args...)
	}
	return 0, nil
}

func (m *mockExecutor) RunQuiet(ctx context.Context, name string, args ...string) (int, error) {
	m.quietRuns++
	return m.Run(ctx, name, args...)
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestCreate_PassesCompressionLevel(t *testing.T) {
	exec := &mockExecutor{}
	svc := New(testLogger(), exec)

	result, err := svc.Create(context.Background(), "/dst/backup.tar.xz", "/dst/staging", 6)

	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	require.Len(t, exec.calls, 1)
	assert.Equal(t, "tar", exec.calls[0][0])
	assert.Contains(t, exec.calls[0], "xz -6")
	assert.Contains(t, exec.calls[0], "/dst/backup.tar.xz")
}

func TestCreate_ArchivesStagingContents(t *testing.T) {
	exec := &mockExecutor{}
	svc := New(testLogger(), exec)

	_, err := svc.Create(context.Background(), "/dst/backup.tar.xz", "/dst/staging", 9)

	require.NoError(t, err)
	call := exec.calls[0]
	assert.Contains(t, call, "-C")
	assert.Contains(t, call, "/dst/staging")
	assert.Equal(t, ".", call[len(call)-1])
}

func TestCreate_ReportsExitCode(t *testing.T) {
	exec := &mockExecutor{
		runFunc: func(ctx context.Context, name string, args ...string) (int, error) {
			return 2, nil
		},
	}
	svc := New(testLogger(), exec)

	result, err := svc.Create(context.Background(), "/dst/backup.tar.xz", "/dst/staging", 9)

	require.NoError(t, err)
	assert.Equal(t, 2, result.ExitCode)
}

func TestList_UsesQuietRun(t *testing.T) {
	exec := &mockExecutor{}
	svc := New(testLogger(), exec)

	result, err := svc.List(context.Background(), "/dst/backup.tar.xz")

	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, 1, exec.quietRuns)
	assert.Contains(t, exec.calls[0], "-tf")
}

func TestExtract_FullArchive(t *testing.T) {
	exec := &mockExecutor{}
	svc := New(testLogger(), exec)

	_, err := svc.Extract(context.Background(), "/dst/backup.tar.xz", "/tmp/restore")

	require.NoError(t, err)
	call := exec.calls[0]
	assert.Equal(t, []string{"tar", "-xf", "/dst/backup.tar.xz", "-C", "/tmp/restore"}, call)
}

func TestExtract_SpecificMembers(t *testing.T) {
	exec := &mockExecutor{}
	svc := New(testLogger(), exec)

	_, err := svc.Extract(context.Background(), "/dst/backup.tar.xz", "/tmp/probe",
		"./etc/hostname", "./etc/os-release")

	require.NoError(t, err)
	call := exec.calls[0]
	assert.Contains(t, call, "./etc/hostname")
	assert.Contains(t, call, "./etc/os-release")
}

func TestExtract_ExecutorFailure(t *testing.T) {
	exec := &mockExecutor{
		runFunc: func(ctx context.Context, name string, args ...string) (int, error) {
			return -1, errors.New("tar not found")
		},
	}
	svc := New(testLogger(), exec)

	_, err := svc.Extract(context.Background(), "/dst/backup.tar.xz", "/tmp/restore")

	assert.Error(t, err)
}
