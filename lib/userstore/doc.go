// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package userstore keeps the BBS user records in SQLite.
//
// A [User] is the account record a caller logs on to: handle, security
// levels, contact details, call statistics and terminal preferences.
// Passwords are stored only as bcrypt hashes. [User] implements
// directive.Provider so that "user.name", "user.sl" and the @-code
// macros resolve against the logged-on caller.
//
// Handles are case-insensitive and stored upper-case. User numbers are
// assigned on [Store.Create] and never reused.
package userstore
