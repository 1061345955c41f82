package util

import (
	"io/ioutil"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to filePath by first writing to a temp file
// in the same directory and renaming it into place, so a reader never
// observes a partially written file and a crash mid-write never corrupts
// the previous contents.
func WriteFileAtomic(filePath string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filePath)
	tmp, err := ioutil.TempFile(dir, filepath.Base(filePath)+".tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, filePath)
}
