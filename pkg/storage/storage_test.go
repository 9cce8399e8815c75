package storage

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// volumes returns one fresh instance of each Volume implementation.
func volumes(t *testing.T) map[string]Volume {
	t.Helper()
	dir := t.TempDir()
	return map[string]Volume{
		"dir":    NewDirVolume(DirConfig{Root: filepath.Join(dir, "lfs")}),
		"sqlite": NewSQLiteVolume(SQLiteConfig{Path: filepath.Join(dir, "tag.db")}),
		"memory": NewMemoryVolume(),
	}
}

func TestVolumeContract(t *testing.T) {
	for name, v := range volumes(t) {
		t.Run(name, func(t *testing.T) {
			_, err := v.Read("value")
			assert.ErrorIs(t, err, ErrNotMounted)

			require.NoError(t, v.Mount())
			defer v.Close()

			t.Run("MissingPath", func(t *testing.T) {
				_, err := v.Read("value")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("WriteThenRead", func(t *testing.T) {
				require.NoError(t, v.Write("value", []byte("hello")))
				got, err := v.Read("value")
				require.NoError(t, err)
				assert.Equal(t, []byte("hello"), got)
			})

			t.Run("Overwrite", func(t *testing.T) {
				require.NoError(t, v.Write("data", []byte("first-long-value")))
				require.NoError(t, v.Write("data", []byte("short")))
				got, err := v.Read("data")
				require.NoError(t, err)
				assert.Equal(t, []byte("short"), got)
			})

			t.Run("EmptyValue", func(t *testing.T) {
				require.NoError(t, v.Write("empty", nil))
				got, err := v.Read("empty")
				require.NoError(t, err)
				assert.Empty(t, got)
			})

			t.Run("InvalidPath", func(t *testing.T) {
				for _, p := range []string{"", "../escape", "/abs"} {
					assert.ErrorIs(t, v.Write(p, []byte("x")), ErrInvalidPath, "path %q", p)
				}
			})
		})
	}
}

func TestBootCountIncrementsPerMount(t *testing.T) {
	for name, v := range volumes(t) {
		t.Run(name, func(t *testing.T) {
			for want := uint32(1); want <= 3; want++ {
				require.NoError(t, v.Mount())
				assert.Equal(t, want, v.BootCount())
				require.NoError(t, v.Close())
			}
		})
	}
}

func TestBootCountEncoding(t *testing.T) {
	v := NewMemoryVolume()
	require.NoError(t, v.Mount())
	require.NoError(t, v.Write(BootCountPath, []byte{0x10, 0x00, 0x00, 0x00}))
	require.NoError(t, v.Close())

	require.NoError(t, v.Mount())
	assert.Equal(t, uint32(17), v.BootCount())

	raw, err := v.Read(BootCountPath)
	require.NoError(t, err)
	assert.Equal(t, uint32(17), binary.LittleEndian.Uint32(raw))
}

func TestReadBootCount(t *testing.T) {
	v := NewMemoryVolume()
	require.NoError(t, v.Mount())
	require.NoError(t, v.Mount())

	count, err := ReadBootCount(v)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), count)

	count, err = ReadBootCount(v)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), count, "reading does not increment")

	require.NoError(t, v.Write(BootCountPath, []byte{1}))
	_, err = ReadBootCount(v)
	assert.ErrorIs(t, err, ErrStorage)

	fresh := NewDirVolume(DirConfig{Root: t.TempDir()})
	require.NoError(t, fresh.Open())
	count, err = ReadBootCount(fresh)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDirOpenKeepsBootCount(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, BootCountPath), []byte{7, 0, 0, 0}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ass_data"), []byte("Pallet 7"), 0o644))

	v := NewDirVolume(DirConfig{Root: root})
	_, err := v.Read(BootCountPath)
	assert.ErrorIs(t, err, ErrNotMounted, "reads need Open or Mount")

	require.NoError(t, v.Open())
	count, err := ReadBootCount(v)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), count)

	data, err := v.Read("ass_data")
	require.NoError(t, err)
	assert.Equal(t, []byte("Pallet 7"), data)

	assert.ErrorIs(t, v.Write("ass_data", []byte("x")), ErrNotMounted, "Open is read-only")
	require.NoError(t, v.Close())

	raw, err := os.ReadFile(filepath.Join(root, BootCountPath))
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 0, 0, 0}, raw)

	missing := NewDirVolume(DirConfig{Root: filepath.Join(root, "absent")})
	assert.ErrorIs(t, missing.Open(), ErrMount)
}

func TestSQLiteOpenKeepsBootCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tag.db")

	v := NewSQLiteVolume(SQLiteConfig{Path: path})
	require.NoError(t, v.Mount())
	require.NoError(t, v.Write("data", []byte("Pallet 7")))
	require.NoError(t, v.Close())

	ro := NewSQLiteVolume(SQLiteConfig{Path: path})
	require.NoError(t, ro.Open())
	defer ro.Close()

	count, err := ReadBootCount(ro)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), count)

	data, err := ro.Read("data")
	require.NoError(t, err)
	assert.Equal(t, "Pallet 7", string(data))
}

func TestDirVolumeWipe(t *testing.T) {
	root := filepath.Join(t.TempDir(), "lfs")

	v := NewDirVolume(DirConfig{Root: root})
	require.NoError(t, v.Mount())
	require.NoError(t, v.Write("value", []byte("keep?")))
	require.NoError(t, v.Close())

	w := NewDirVolume(DirConfig{Root: root, Wipe: true})
	require.NoError(t, w.Mount())
	assert.Equal(t, uint32(1), w.BootCount())
	_, err := w.Read("value")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirVolumeWritesFiles(t *testing.T) {
	root := filepath.Join(t.TempDir(), "lfs")
	v := NewDirVolume(DirConfig{Root: root})
	require.NoError(t, v.Mount())

	require.NoError(t, v.Write("value", []byte("abc")))
	raw, err := os.ReadFile(filepath.Join(root, "value"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(raw))

	_, err = os.Stat(filepath.Join(root, "value.tmp"))
	assert.True(t, os.IsNotExist(err), "temporary file left behind")
}

func TestDirVolumeMountFailure(t *testing.T) {
	v := NewDirVolume(DirConfig{})
	assert.ErrorIs(t, v.Mount(), ErrMount)

	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	v = NewDirVolume(DirConfig{Root: file})
	assert.ErrorIs(t, v.Mount(), ErrMount)
}

func TestMemoryVolumeFaults(t *testing.T) {
	v := NewMemoryVolume()
	v.SetMountError(errors.New("flash gone"))
	assert.ErrorIs(t, v.Mount(), ErrMount)
	v.SetMountError(nil)
	require.NoError(t, v.Mount())

	v.SetWriteError(errors.New("worn out"))
	assert.ErrorIs(t, v.Write("value", []byte("x")), ErrStorage)
	v.SetWriteError(nil)

	v.SetReadError(errors.New("bit flip"))
	_, err := v.Read("value")
	assert.ErrorIs(t, err, ErrStorage)
}
