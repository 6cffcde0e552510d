// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

// Package artifact packs the local deployment tree for transfer.
//
// [Pack] walks a directory in lexical order and writes a gzip'd tar
// stream that a stock `tar -xzf -` on the remote host can unpack.
// Paths matching the exclusion list are skipped along with everything
// beneath them. Packing also yields a [Manifest]: file and byte counts
// plus a BLAKE3 digest over every entry's path, mode, and content.
// The digest ignores timestamps and ownership, so the same tree
// produces the same digest on every run and on every machine.
package artifact
