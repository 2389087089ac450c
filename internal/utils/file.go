package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/maruel/natural"
)

var imageExts = []string{"jpg", "jpeg", "png", "gif", "bmp", "tif", "tiff", "webp"}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// EnsureWritableDir creates dir if needed and checks that files can be created in it
func EnsureWritableDir(dir string) error {
	if err := EnsureDir(dir); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}
	if !DirExists(dir) {
		return fmt.Errorf("output path is not a directory: %s", dir)
	}
	f, err := os.CreateTemp(dir, ".instacrop-*")
	if err != nil {
		return fmt.Errorf("cannot write to the output directory %s: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsImageFile checks if a file has an image extension
func IsImageFile(filename string) bool {
	ext := GetFileExtension(filename)
	for _, imgExt := range imageExts {
		if ext == imgExt {
			return true
		}
	}
	return false
}

// SplitName returns the base name of path without extension, and the extension with its dot
func SplitName(path string) (stem, ext string) {
	base := filepath.Base(path)
	if i := strings.IndexAny(base, "?#"); i >= 0 && strings.Contains(path, "://") {
		base = base[:i]
	}
	ext = filepath.Ext(base)
	return SanitizeFilename(strings.TrimSuffix(base, ext)), ext
}

// SingleOutputName returns "<stem>_<preset><ext>" for a single crop
func SingleOutputName(source, presetName string) string {
	stem, ext := SplitName(source)
	return SingleName(stem, presetName, ext)
}

// PanelOutputName returns "<stem>_<preset>_panel<i>of<n><ext>", i counted from 1
func PanelOutputName(source, presetName string, i, n int) string {
	stem, ext := SplitName(source)
	return PanelName(stem, presetName, ext, i, n)
}

// SingleName builds a single crop file name from an already split stem
func SingleName(stem, presetName, ext string) string {
	return fmt.Sprintf("%s_%s%s", stem, presetName, ext)
}

// PanelName builds a panel file name from an already split stem
func PanelName(stem, presetName, ext string, i, n int) string {
	return fmt.Sprintf("%s_%s_panel%dof%d%s", stem, presetName, i, n, ext)
}

// NameSet hands out output stems that are unique within one run, so two
// sources sharing a base name never write the same file. Safe for
// concurrent use.
type NameSet struct {
	mu   sync.Mutex
	used map[string]bool
}

// NewNameSet returns an empty NameSet
func NewNameSet() *NameSet {
	return &NameSet{used: make(map[string]bool)}
}

// Reserve claims stem for files ending in ext. When stem+ext is already
// taken (case-insensitively) the first free "<stem>_<n>", n >= 2, is
// claimed and returned instead.
func (s *NameSet) Reserve(stem, ext string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := stem
	for n := 2; s.used[strings.ToLower(candidate+ext)]; n++ {
		candidate = fmt.Sprintf("%s_%d", stem, n)
	}
	s.used[strings.ToLower(candidate+ext)] = true
	return candidate
}

// ListImageFiles recursively lists all image files in a directory, in natural order
func ListImageFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsImageFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool { return natural.Less(files[i], files[j]) })
	return files, nil
}

// CollectInputs expands files, directories and glob patterns into a
// de-duplicated list in argument order; directory contents are naturally
// sorted. Paths naming the same file (./a.jpg, a.jpg) count once, keeping
// the first spelling. URLs are passed through untouched.
func CollectInputs(args []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	add := func(p string) {
		key := p
		if !strings.Contains(p, "://") {
			key = filepath.Clean(p)
			if abs, err := filepath.Abs(p); err == nil {
				key = abs
			}
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, p)
		}
	}

	for _, a := range args {
		if strings.HasPrefix(a, "http://") || strings.HasPrefix(a, "https://") {
			add(a)
			continue
		}

		matches := []string{a}
		if strings.ContainsAny(a, "*?[") {
			m, err := filepath.Glob(a)
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", a, err)
			}
			matches = m
		}

		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				// missing inputs are reported per item by the batch
				add(m)
				continue
			}
			if info.IsDir() {
				files, err := ListImageFiles(m)
				if err != nil {
					return nil, err
				}
				for _, f := range files {
					add(f)
				}
			} else {
				add(m)
			}
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no input images found")
	}
	return out, nil
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && info.IsDir()
}

// SanitizeFilename removes or replaces invalid characters in filenames
func SanitizeFilename(filename string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filename

	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}

	// Remove leading/trailing spaces and dots
	result = strings.Trim(result, " .")

	return result
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
