package history

import (
	"path/filepath"
	"testing"
	"time"

	"gfmclip/pkg/clipboard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	m, err := NewManagerWithConfig(filepath.Join(t.TempDir(), "nested", "history.db"), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestSaveAndLast(t *testing.T) {
	m := newManager(t, DefaultConfig)

	last, err := m.Last()
	require.NoError(t, err)
	assert.Nil(t, last)

	_, err = m.Save(Entry{EventID: "e1", Mode: "structured", PlainText: "one", Markup: "**one**", HTML: "<b>one</b>"})
	require.NoError(t, err)
	id, err := m.Save(Entry{PlainText: "two", Markup: "`two`", HTML: "<code>two</code>"})
	require.NoError(t, err)

	last, err = m.Last()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, id, last.ID)
	assert.Equal(t, clipboard.Payload{PlainText: "two", Markup: "`two`", HTML: "<code>two</code>"}, last.Payload())
	assert.Empty(t, last.EventID)
	assert.False(t, last.CreatedAt.IsZero())
}

func TestGet(t *testing.T) {
	m := newManager(t, DefaultConfig)

	id, err := m.Save(Entry{EventID: "e1", Mode: "code", PlainText: "x", Markup: "`x`"})
	require.NoError(t, err)

	e, err := m.Get(id)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "e1", e.EventID)
	assert.Equal(t, "code", e.Mode)

	missing, err := m.Get(id + 100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLimitPrunes(t *testing.T) {
	m := newManager(t, Config{Limit: 2})

	for _, text := range []string{"a", "b", "c"} {
		_, err := m.Save(Entry{PlainText: text, Markup: text})
		require.NoError(t, err)
	}

	entries, err := m.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].PlainText)
	assert.Equal(t, "b", entries[1].PlainText)

	entries, err = m.List(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c", entries[0].PlainText)
}

func TestClearAndInfo(t *testing.T) {
	m := newManager(t, Config{TTL: time.Hour})

	_, err := m.Save(Entry{PlainText: "a", Markup: "a"})
	require.NoError(t, err)

	info, err := m.Info()
	require.NoError(t, err)
	assert.Equal(t, 1, info["copies_count"])
	assert.Equal(t, "1h0m0s", info["ttl"])

	require.NoError(t, m.Clear())
	entries, err := m.List(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("GFMCLIP_HISTORY_TTL", "90m")
	t.Setenv("GFMCLIP_HISTORY_LIMIT", "5")
	assert.Equal(t, Config{TTL: 90 * time.Minute, Limit: 5}, LoadConfig())

	t.Setenv("GFMCLIP_HISTORY_TTL", "soon")
	t.Setenv("GFMCLIP_HISTORY_LIMIT", "many")
	assert.Equal(t, DefaultConfig, LoadConfig())
}

func TestGetDBPath(t *testing.T) {
	t.Setenv("GFMCLIP_HISTORY_DB", "/tmp/h.db")
	assert.Equal(t, "/tmp/h.db", GetDBPath())

	t.Setenv("GFMCLIP_HISTORY_DB", "")
	assert.Equal(t, filepath.Join("gfmclip", "history.db"), filepath.Join(filepath.Base(filepath.Dir(GetDBPath())), filepath.Base(GetDBPath())))
}
