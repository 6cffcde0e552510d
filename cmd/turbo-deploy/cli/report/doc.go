// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

// Package report renders the outcome of a deployment run.
//
// The human form is a checklist, one line per service in registry
// order:
//
//	[PASS ]  speech-to-text                            200 http://192.168.1.89:8000/health (0.1s)
//	[FAIL ]  diarization                               connection refused
//
// followed by a one-line verdict. Colors are applied with lipgloss only
// when the output is a terminal. [Build] produces the equivalent
// structure for --json.
package report
