package logsink

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closableBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *closableBuffer) Close() error {
	b.closed = true
	return nil
}

func TestWriteLine_Timestamped(t *testing.T) {
	buf := &closableBuffer{}
	s := NewWithWriter(buf)
	s.now = func() time.Time {
		return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	}

	s.WriteLine("backup started")

	assert.Equal(t, "2025-03-14 09:26:53 backup started\n", buf.String())
}

func TestWriteLine_MultipleLines(t *testing.T) {
	buf := &closableBuffer{}
	s := NewWithWriter(buf)

	s.WriteLine("first")
	s.WriteLine("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first")
	assert.Contains(t, lines[1], "second")
}

func TestClose_StopsWrites(t *testing.T) {
	buf := &closableBuffer{}
	s := NewWithWriter(buf)

	require.NoError(t, s.Close())
	s.WriteLine("after close")

	assert.True(t, buf.closed)
	assert.Empty(t, buf.String())
}

func TestClose_Idempotent(t *testing.T) {
	buf := &closableBuffer{}
	s := NewWithWriter(buf)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
