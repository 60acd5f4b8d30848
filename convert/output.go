package convert

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// outputPath places result under dst. src is the path of stylesheet relative
// to the source (just a file name when single file was requested), its
// directories are kept unless noDirs is set.
func outputPath(src, dst string, noDirs bool) string {
	src = filepath.FromSlash(src)
	if noDirs {
		return filepath.Join(dst, filepath.Base(src))
	}
	// relative path may not step out of destination
	clean := strings.TrimPrefix(filepath.Clean(string(filepath.Separator)+src), string(filepath.Separator))
	return filepath.Join(dst, clean)
}

// recordsPath names sidecar: "button.css" gets "button.css.composes.yaml".
func recordsPath(out, suffix string) string {
	return out + suffix
}

// writeOutput writes data creating directories as necessary. Existing files
// are replaced only when overwrite is set.
func writeOutput(path string, data []byte, overwrite bool) error {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", path)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("unable to create output directory: %w", err)
		}
	default:
		return err
	}

	// write next to destination and rename so readers never see partial file
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to write output file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
