package cmd

import (
	"io"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"
)

// archiveFeeds stores compressed audit copies of the processed feed files.
func archiveFeeds(dir string, paths ...string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, path := range paths {
		if err := archiveFeed(dir, path); err != nil {
			return err
		}
	}
	return nil
}

func archiveFeed(dir, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, filepath.Base(path)+".br"))
	if err != nil {
		return err
	}

	bw := brotli.NewWriter(dst)
	if _, err := io.Copy(bw, src); err != nil {
		dst.Close()
		return err
	}
	if err := bw.Close(); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
