// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads deployment configuration.
//
// [Default] describes the standard deployment: the fixed backend host,
// the four backend services, and the docker/ artifact tree. A config
// file, when given, is layered over those defaults. It is located by:
//   - the --config flag, or
//   - the TURBO_DEPLOY_CONFIG environment variable.
//
// There is no automatic discovery and no other environment override.
// Files ending in .json or .jsonc are read as JSON with comments and
// trailing commas; anything else is read as YAML. Unknown keys are
// errors.
//
// ${VAR}, ${VAR:-default}, and a leading ~ are expanded in local path
// fields only. The remote directory is passed through untouched and
// resolved by the remote shell.
package config
