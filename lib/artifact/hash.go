// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"encoding/binary"
	"encoding/hex"
	"io/fs"

	"github.com/zeebo/blake3"
)

// treeDomainKey keys the tree digest so it cannot collide with a plain
// BLAKE3 hash of the same bytes.
var treeDomainKey = [32]byte{
	't', 'u', 'r', 'b', 'o', '-', 'd', 'e', 'p', 'l', 'o', 'y', '.', 't', 'r', 'e',
	'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// treeHasher accumulates one record per packed entry.
type treeHasher struct {
	hasher *blake3.Hasher
}

func newTreeHasher() *treeHasher {
	hasher, err := blake3.NewKeyed(treeDomainKey[:])
	if err != nil {
		// NewKeyed only fails on a key that is not 32 bytes.
		panic("artifact: invalid tree domain key: " + err.Error())
	}
	return &treeHasher{hasher: hasher}
}

// add records an entry. contentHash is the BLAKE3 hash of a regular
// file's bytes or of a symlink's target, and nil for directories.
func (t *treeHasher) add(name string, mode fs.FileMode, contentHash []byte) {
	var scratch [binary.MaxVarintLen64]byte
	t.hasher.Write(scratch[:binary.PutUvarint(scratch[:], uint64(len(name)))])
	t.hasher.Write([]byte(name))
	t.hasher.Write(scratch[:binary.PutUvarint(scratch[:], uint64(mode))])
	t.hasher.Write(contentHash)
}

func (t *treeHasher) digest() string {
	return hex.EncodeToString(t.hasher.Sum(nil))
}
