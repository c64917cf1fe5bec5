package batch

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSink writes items to the filesystem beneath a root directory.
//
// By default, files are written to a temporary file in the same directory
// and renamed to the final path on Commit. This ensures that partially
// written files are never visible at the final path.
type FileSink struct {
	destDir     string
	overwrite   bool
	directWrite bool
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite allows replacing existing files.
// By default, existing files are skipped.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithDirectWrites disables temp files and writes directly to the final path.
func WithDirectWrites(enabled bool) FileSinkOption {
	return func(s *FileSink) {
		s.directWrite = enabled
	}
}

// NewFileSink creates a FileSink that writes to destDir.
// destDir must exist.
func NewFileSink(destDir string, opts ...FileSinkOption) *FileSink {
	s := &FileSink{
		destDir: destDir,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShouldProcess returns false if the file already exists and overwrite is disabled.
// Invalid paths are always processed so that Writer can report them.
func (s *FileSink) ShouldProcess(item *Item) bool {
	if s.overwrite || !fs.ValidPath(item.Path) {
		return true
	}
	_, err := os.Lstat(filepath.Join(s.destDir, filepath.FromSlash(item.Path)))
	return errors.Is(err, fs.ErrNotExist)
}

// Writer returns a Committer for the item's destination file.
func (s *FileSink) Writer(item *Item) (Committer, error) {
	if !fs.ValidPath(item.Path) || item.Path == "." {
		return nil, &fs.PathError{Op: "extract", Path: item.Path, Err: fs.ErrInvalid}
	}
	destPath := filepath.Join(s.destDir, filepath.FromSlash(item.Path))
	destRel := filepath.FromSlash(item.Path)

	root, err := os.OpenRoot(s.destDir)
	if err != nil {
		return nil, fmt.Errorf("open destination root %s: %w", s.destDir, err)
	}
	if dir := filepath.Dir(destRel); dir != "." {
		if err := root.MkdirAll(dir, 0o750); err != nil {
			_ = root.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("create directory %s: %w", filepath.Dir(destPath), err)
		}
	}

	if s.directWrite {
		file, err := root.OpenFile(destRel, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			_ = root.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("create file %s: %w", destPath, err)
		}
		return &directCommitter{destRel: destRel, file: file, root: root}, nil
	}

	tempFile, tempRel, err := createTempFile(root, filepath.Dir(destRel), ".ubnt-")
	if err != nil {
		_ = root.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &fileCommitter{
		destPath: destPath,
		destRel:  destRel,
		tempFile: tempFile,
		tempRel:  tempRel,
		root:     root,
	}, nil
}

// fileCommitter writes to a temp file and renames on Commit.
type fileCommitter struct {
	destPath string
	destRel  string
	tempFile *os.File
	tempRel  string
	root     *os.Root
}

// Write implements io.Writer.
func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.tempFile.Write(p)
}

// Commit closes the temp file and renames it to the final path.
func (c *fileCommitter) Commit() error {
	if err := c.tempFile.Close(); err != nil {
		_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := c.root.Chmod(c.tempRel, 0o644); err != nil {
		_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("chmod: %w", err)
	}
	if err := c.root.Rename(c.tempRel, c.destRel); err != nil {
		_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", c.destPath, err)
	}
	return c.root.Close()
}

// Discard closes and removes the temp file.
func (c *fileCommitter) Discard() error {
	_ = c.tempFile.Close() //nolint:errcheck // we're cleaning up
	if err := c.root.Remove(c.tempRel); err != nil {
		_ = c.root.Close() //nolint:errcheck // best-effort cleanup
		return err
	}
	return c.root.Close()
}

// directCommitter writes directly to the final path.
type directCommitter struct {
	destRel string
	file    *os.File
	root    *os.Root
}

// Write implements io.Writer.
func (c *directCommitter) Write(p []byte) (int, error) {
	return c.file.Write(p)
}

// Commit closes the file.
func (c *directCommitter) Commit() error {
	if err := c.file.Close(); err != nil {
		_ = c.root.Remove(c.destRel) //nolint:errcheck // best-effort cleanup
		_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close file: %w", err)
	}
	return c.root.Close()
}

// Discard closes and removes the file.
func (c *directCommitter) Discard() error {
	_ = c.file.Close() //nolint:errcheck // best-effort cleanup
	if err := c.root.Remove(c.destRel); err != nil {
		_ = c.root.Close() //nolint:errcheck // best-effort cleanup
		return err
	}
	return c.root.Close()
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
