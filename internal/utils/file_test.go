package utils

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestOutputNames(t *testing.T) {
	assert.Equal(t, "beach_Feed4-5.jpg", SingleOutputName("/photos/beach.jpg", "Feed4-5"))
	assert.Equal(t, "beach_Feed4-5_panel2of3.jpg", PanelOutputName("/photos/beach.jpg", "Feed4-5", 2, 3))
	assert.Equal(t, "pano.v2_Reels9-16.png", SingleOutputName("pano.v2.png", "Reels9-16"))
	assert.Equal(t, "img_GridFeed3-4.webp", SingleOutputName("https://cdn.example.com/a/img.webp?w=100", "GridFeed3-4"))
}

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.webp", "e.tif", "f.bmp", "g.gif"} {
		assert.True(t, IsImageFile(name), name)
	}
	for _, name := range []string{"a.txt", "b", "c.jpg.bak"} {
		assert.False(t, IsImageFile(name), name)
	}
}

func TestListImageFilesNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"img10.png", "img2.png", "img1.png", "notes.txt", "sub/img3.jpg"} {
		touch(t, filepath.Join(dir, name))
	}

	files, err := ListImageFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "img1.png"),
		filepath.Join(dir, "img2.png"),
		filepath.Join(dir, "img10.png"),
		filepath.Join(dir, "sub/img3.jpg"),
	}, files)
}

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a1.jpg"))
	touch(t, filepath.Join(dir, "a2.jpg"))
	touch(t, filepath.Join(dir, "b.png"))

	got, err := CollectInputs([]string{
		filepath.Join(dir, "*.jpg"),
		filepath.Join(dir, "a1.jpg"),
		dir,
		"https://example.com/x.png",
		filepath.Join(dir, "missing.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a1.jpg"),
		filepath.Join(dir, "a2.jpg"),
		filepath.Join(dir, "b.png"),
		"https://example.com/x.png",
		filepath.Join(dir, "missing.jpg"),
	}, got)

	// the same file spelled differently counts once
	same, err := CollectInputs([]string{
		filepath.Join(dir, "a1.jpg"),
		dir + string(filepath.Separator) + "." + string(filepath.Separator) + "a1.jpg",
		filepath.Join(dir, "sub", "..", "a1.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a1.jpg")}, same)

	_, err = CollectInputs([]string{filepath.Join(dir, "*.gif")})
	assert.Error(t, err)
}

func TestEnsureWritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	require.NoError(t, EnsureWritableDir(dir))
	assert.True(t, DirExists(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file should be removed")

	file := filepath.Join(t.TempDir(), "plain")
	touch(t, file)
	assert.Error(t, EnsureWritableDir(file))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeFilename("a/b:c"))
	assert.Equal(t, "name", SanitizeFilename("  name. "))
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.jpg")
	touch(t, file)

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir), "directories are not files")
	assert.False(t, FileExists(filepath.Join(dir, "absent.jpg")))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.0 KB", FormatFileSize(1024))
	assert.Equal(t, "1.5 MB", FormatFileSize(1536*1024))
}

func TestCollectInputsRelativeAndDotPaths(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))
	t.Chdir(dir)

	got, err := CollectInputs([]string{"./a.jpg", "a.jpg", filepath.Join(dir, "a.jpg")})
	require.NoError(t, err)
	assert.Equal(t, []string{"./a.jpg"}, got)
}

func TestNameSetReserve(t *testing.T) {
	names := NewNameSet()

	assert.Equal(t, "pic", names.Reserve("pic", ".jpg"))
	assert.Equal(t, "pic_2", names.Reserve("pic", ".jpg"))
	assert.Equal(t, "pic_3", names.Reserve("PIC", ".JPG"), "case-insensitive")
	assert.Equal(t, "pic", names.Reserve("pic", ".png"), "different extension does not clash")

	// an explicit "pic_2" source is pushed past the generated one
	assert.Equal(t, "pic_2_2", names.Reserve("pic_2", ".jpg"))
}

func TestNameSetConcurrent(t *testing.T) {
	names := NewNameSet()
	results := make(chan string, 50)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- names.Reserve("pic", ".jpg")
		}()
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for r := range results {
		assert.False(t, seen[r], "duplicate stem %s", r)
		seen[r] = true
	}
	assert.Len(t, seen, 50)
}
