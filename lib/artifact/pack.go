// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/zeebo/blake3"
)

// DefaultExcludes keeps version control, the operator's own runtime
// config, and Python bytecode caches out of the transfer.
var DefaultExcludes = []string{".git", ".env", "__pycache__"}

// Manifest summarizes a packed tree.
type Manifest struct {
	Files       int    `json:"files"`
	Directories int    `json:"directories"`
	Bytes       int64  `json:"bytes"`
	Digest      string `json:"digest"`
}

// Pack writes root as a gzip'd tar stream to w, skipping excluded
// paths. Entry names are relative to root, so extracting into a
// directory reproduces the tree inside it.
//
// An exclude pattern is matched with [path.Match] against each path
// element ("__pycache__", "*.pyc") and, when it contains a slash,
// against the full relative path ("docker/tts/models").
func Pack(root string, excludes []string, w io.Writer) (Manifest, error) {
	compressor, err := gzip.NewWriterLevel(w, gzip.DefaultCompression)
	if err != nil {
		return Manifest{}, err
	}
	archive := tar.NewWriter(compressor)

	manifest, err := walk(root, excludes, archive)
	if err != nil {
		return Manifest{}, err
	}
	if err := archive.Close(); err != nil {
		return Manifest{}, fmt.Errorf("finishing archive: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return Manifest{}, fmt.Errorf("finishing compression: %w", err)
	}
	return manifest, nil
}

// Scan computes the manifest Pack would produce without writing an
// archive.
func Scan(root string, excludes []string) (Manifest, error) {
	return walk(root, excludes, nil)
}

// walk visits root in lexical order. When archive is nil only the
// manifest is computed.
func walk(root string, excludes []string, archive *tar.Writer) (Manifest, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Manifest{}, fmt.Errorf("artifact directory: %w", err)
	}
	if !info.IsDir() {
		return Manifest{}, fmt.Errorf("artifact directory %s is not a directory", root)
	}

	var manifest Manifest
	tree := newTreeHasher()

	err = filepath.WalkDir(root, func(current string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		relative, err := filepath.Rel(root, current)
		if err != nil {
			return err
		}
		if relative == "." {
			return nil
		}
		name := filepath.ToSlash(relative)
		if Excluded(name, excludes) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		switch {
		case info.IsDir():
			manifest.Directories++
			tree.add(name+"/", fs.ModeDir|info.Mode().Perm(), nil)
			return writeHeader(archive, info, name+"/", "")

		case info.Mode()&fs.ModeSymlink != 0:
			target, err := os.Readlink(current)
			if err != nil {
				return err
			}
			targetHash := blake3.Sum256([]byte(target))
			manifest.Files++
			tree.add(name, fs.ModeSymlink, targetHash[:])
			return writeHeader(archive, info, name, target)

		case info.Mode().IsRegular():
			contentHash, err := packFile(archive, current, name, info)
			if err != nil {
				return err
			}
			manifest.Files++
			manifest.Bytes += info.Size()
			tree.add(name, info.Mode().Perm(), contentHash)
			return nil

		default:
			// Sockets, devices, and pipes have no meaning on the remote.
			return nil
		}
	})
	if err != nil {
		return Manifest{}, fmt.Errorf("packing %s: %w", root, err)
	}

	manifest.Digest = tree.digest()
	return manifest, nil
}

func writeHeader(archive *tar.Writer, info fs.FileInfo, name, linkTarget string) error {
	if archive == nil {
		return nil
	}
	header, err := tar.FileInfoHeader(info, linkTarget)
	if err != nil {
		return err
	}
	header.Name = name
	header.Uid, header.Gid = 0, 0
	header.Uname, header.Gname = "", ""
	return archive.WriteHeader(header)
}

// packFile streams one regular file into the archive and returns the
// BLAKE3 hash of its content.
func packFile(archive *tar.Writer, current, name string, info fs.FileInfo) ([]byte, error) {
	file, err := os.Open(current)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := writeHeader(archive, info, name, ""); err != nil {
		return nil, err
	}

	hasher := blake3.New()
	var sink io.Writer = hasher
	if archive != nil {
		sink = io.MultiWriter(archive, hasher)
	}
	// Copy exactly the size recorded in the header; a file growing
	// mid-walk must not corrupt the stream.
	if _, err := io.CopyN(sink, file, info.Size()); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return hasher.Sum(nil), nil
}

// Excluded reports whether the slash-separated relative path name
// matches any pattern.
func Excluded(name string, patterns []string) bool {
	name = strings.TrimSuffix(name, "/")
	elements := strings.Split(name, "/")
	for _, pattern := range patterns {
		if strings.Contains(pattern, "/") {
			if matched, _ := path.Match(strings.Trim(pattern, "/"), name); matched {
				return true
			}
			continue
		}
		for _, element := range elements {
			if matched, _ := path.Match(pattern, element); matched {
				return true
			}
		}
	}
	return false
}
