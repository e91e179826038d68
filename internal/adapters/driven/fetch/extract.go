package fetch

import (
	"archive/tar"
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/monetci/monetup/internal/logger"
)

// Extract unpacks the archive under destDir and returns the source
// root: the single top-level directory the tarball carries. Entries
// that would escape destDir are rejected.
func (f *Fetcher) Extract(ctx context.Context, archive, destDir string) (string, error) {
	file, err := os.Open(archive)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	var reader io.Reader
	switch {
	case strings.HasSuffix(archive, ".tar.gz"), strings.HasSuffix(archive, ".tgz"):
		gz, err := gzip.NewReader(file)
		if err != nil {
			return "", fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		reader = gz
	case strings.HasSuffix(archive, ".tar.bz2"):
		reader = bzip2.NewReader(file)
	case strings.HasSuffix(archive, ".tar"):
		reader = file
	default:
		return "", fmt.Errorf("unsupported archive format: %s", filepath.Base(archive))
	}

	logger.Info("extracting %s", filepath.Base(archive))

	var root string
	tr := tar.NewReader(reader)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read archive: %w", err)
		}

		name := filepath.Clean(header.Name)
		if name == "." {
			continue
		}
		if filepath.IsAbs(name) || strings.HasPrefix(name, "..") {
			return "", fmt.Errorf("archive entry escapes destination: %q", header.Name)
		}

		top := strings.SplitN(name, string(filepath.Separator), 2)[0]
		if root == "" {
			root = top
		} else if root != top {
			return "", fmt.Errorf("archive has multiple top-level entries: %q and %q", root, top)
		}

		target := filepath.Join(destDir, name)
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)|0700); err != nil {
				return "", fmt.Errorf("create directory: %w", err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(header.Mode)); err != nil {
				return "", err
			}
		case tar.TypeSymlink:
			if escapingLink(name, header.Linkname) {
				return "", fmt.Errorf("archive symlink escapes destination: %q -> %q", header.Name, header.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return "", fmt.Errorf("create directory: %w", err)
			}
			os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return "", fmt.Errorf("create symlink: %w", err)
			}
		default:
			logger.Debug("skipping archive entry %s (type %d)", header.Name, header.Typeflag)
		}
	}

	if root == "" {
		return "", fmt.Errorf("archive %s is empty", filepath.Base(archive))
	}
	return filepath.Join(destDir, root), nil
}

// escapingLink reports whether a symlink at entry name, once resolved
// relative to its directory, would point outside the extraction root.
func escapingLink(name, linkname string) bool {
	if filepath.IsAbs(linkname) {
		return true
	}
	resolved := filepath.Clean(filepath.Join(filepath.Dir(name), linkname))
	return resolved == ".." || strings.HasPrefix(resolved, ".."+string(filepath.Separator))
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	_, err = io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}
