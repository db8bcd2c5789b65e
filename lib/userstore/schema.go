// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package userstore

var migrations = []string{
	`CREATE TABLE users (
		number          INTEGER PRIMARY KEY AUTOINCREMENT,
		name            TEXT NOT NULL UNIQUE COLLATE NOCASE,
		real_name       TEXT NOT NULL DEFAULT '',
		password_hash   BLOB NOT NULL,
		sl              INTEGER NOT NULL DEFAULT 10,
		dsl             INTEGER NOT NULL DEFAULT 10,
		street          TEXT NOT NULL DEFAULT '',
		city            TEXT NOT NULL DEFAULT '',
		state           TEXT NOT NULL DEFAULT '',
		country         TEXT NOT NULL DEFAULT '',
		zip             TEXT NOT NULL DEFAULT '',
		phone           TEXT NOT NULL DEFAULT '',
		sex             TEXT NOT NULL DEFAULT '',
		birthday        TEXT NOT NULL DEFAULT '',
		computer        TEXT NOT NULL DEFAULT '',
		callsign        TEXT NOT NULL DEFAULT '',
		note            TEXT NOT NULL DEFAULT '',
		first_on        INTEGER NOT NULL DEFAULT 0,
		last_on         INTEGER NOT NULL DEFAULT 0,
		logons          INTEGER NOT NULL DEFAULT 0,
		times_on_today  INTEGER NOT NULL DEFAULT 0,
		illegal_logons  INTEGER NOT NULL DEFAULT 0,
		messages_posted INTEGER NOT NULL DEFAULT 0,
		messages_read   INTEGER NOT NULL DEFAULT 0,
		emails_sent     INTEGER NOT NULL DEFAULT 0,
		net_emails_sent INTEGER NOT NULL DEFAULT 0,
		feedback_sent   INTEGER NOT NULL DEFAULT 0,
		mail_waiting    INTEGER NOT NULL DEFAULT 0,
		uploads         INTEGER NOT NULL DEFAULT 0,
		downloads       INTEGER NOT NULL DEFAULT 0,
		upload_kb       INTEGER NOT NULL DEFAULT 0,
		download_kb     INTEGER NOT NULL DEFAULT 0,
		time_bank       INTEGER NOT NULL DEFAULT 0,
		gold            INTEGER NOT NULL DEFAULT 0,
		last_bps        INTEGER NOT NULL DEFAULT 0,
		screen_width    INTEGER NOT NULL DEFAULT 80,
		screen_lines    INTEGER NOT NULL DEFAULT 24,
		ansi            INTEGER NOT NULL DEFAULT 1
	);`,
	`ALTER TABLE users ADD COLUMN language TEXT NOT NULL DEFAULT 'english';`,
}

// userColumns is the SELECT list scanUser reads, in order.
const userColumns = `number, name, real_name, sl, dsl, street, city, state,
	country, zip, phone, sex, birthday, computer, callsign, note,
	first_on, last_on, logons, times_on_today, illegal_logons,
	messages_posted, messages_read, emails_sent, net_emails_sent,
	feedback_sent, mail_waiting, uploads, downloads, upload_kb,
	download_kb, time_bank, gold, last_bps, screen_width, screen_lines,
	ansi, language`
