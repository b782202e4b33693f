package filestorage

import (
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)

	info, err := store.Save(strings.NewReader("Course,Location,Time\n"), "Schedule.CSV", "schedules/u1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(info.Path, "uploads/schedules/u1/"))
	assert.True(t, strings.HasSuffix(info.Path, ".csv"))
	assert.Equal(t, "Schedule.CSV", info.Filename)
	assert.Equal(t, int64(21), info.FileSize)

	content, err := os.ReadFile(store.GetFullPath(info.Path))
	require.NoError(t, err)
	assert.Equal(t, "Course,Location,Time\n", string(content))

	require.NoError(t, store.DeleteFile(info.Path))
	_, err = os.Stat(store.GetFullPath(info.Path))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.DeleteFile(info.Path))
}

func TestLocalStorage_BaseURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "http://localhost:8080/uploads/", zerolog.Nop())
	require.NoError(t, err)

	info, err := store.Save(strings.NewReader("x"), "a.csv", "schedules")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(info.Path, "http://localhost:8080/uploads/schedules/"))
	assert.True(t, strings.HasPrefix(store.GetFullPath(info.Path), dir))
}

func TestLocalStorage_StaysInsideBase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "", zerolog.Nop())
	require.NoError(t, err)

	info, err := store.Save(strings.NewReader("x"), "a.csv", "../../etc")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(store.GetFullPath(info.Path), dir))
	assert.Equal(t, "", store.GetFullPath("uploads/"))
}
