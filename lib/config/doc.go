// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the termhost
// daemon.
//
// Configuration is loaded from a single file specified by either the
// TERMHOST_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks and no automatic file
// search.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter: a
// shorter idle timeout and less observer history.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${TERMHOST_ROOT}, and ${VAR:-default} patterns are expanded.
// Session durations are strings in [time.ParseDuration] syntax.
//
// Key exports:
//
//   - [Config] -- master struct with System, Listen, Nodes, Session,
//     Paths, Observe
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other termhost packages.
package config
