// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package userstore

import (
	"strconv"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
)

// SysopLevel is the security level at and above which a caller is
// treated as a sysop.
const SysopLevel = 255

// BirthdayLayout is the stored form of User.Birthday.
const BirthdayLayout = "2006-01-02"

// dateLayout is how dates appear on a caller's screen.
const dateLayout = "01/02/06"

// User is one account record.
type User struct {
	Number   int
	Name     string
	RealName string

	// SL is the security level; DSL the download security level.
	SL  int
	DSL int

	Street   string
	City     string
	State    string
	Country  string
	Zip      string
	Phone    string
	Sex      string
	Birthday string
	Computer string
	Callsign string
	Note     string
	Language string

	FirstOn       time.Time
	LastOn        time.Time
	Logons        int
	TimesOnToday  int
	IllegalLogons int

	MessagesPosted int
	MessagesRead   int
	EmailsSent     int
	NetEmailsSent  int
	FeedbackSent   int
	MailWaiting    int

	Uploads    int
	Downloads  int
	UploadKB   int
	DownloadKB int

	// TimeBank is banked session time in minutes.
	TimeBank int
	Gold     int
	LastBPS  int

	ScreenWidth int
	ScreenLines int
	ANSI        bool
}

// Sysop reports whether the user holds sysop privileges.
func (u *User) Sysop() bool {
	return u.SL >= SysopLevel
}

// Age is the user's age in whole years at now, or 0 when the
// birthday is unset or malformed.
func (u *User) Age(now time.Time) int {
	born, err := time.Parse(BirthdayLayout, u.Birthday)
	if err != nil {
		return 0
	}
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// Lookup resolves a user.* attribute for the directive interpreter.
func (u *User) Lookup(attribute string) (string, bool) {
	switch strings.ToLower(attribute) {
	case "number":
		return strconv.Itoa(u.Number), true
	case "name":
		return u.Name, true
	case "realname":
		return u.RealName, true
	case "sl":
		return strconv.Itoa(u.SL), true
	case "dsl":
		return strconv.Itoa(u.DSL), true
	case "sysop":
		if u.Sysop() {
			return "1", true
		}
		return "0", true
	case "street":
		return u.Street, true
	case "city":
		return u.City, true
	case "state":
		return u.State, true
	case "country":
		return u.Country, true
	case "zip":
		return u.Zip, true
	case "phone":
		return u.Phone, true
	case "sex":
		return u.Sex, true
	case "birthday":
		if born, err := time.Parse(BirthdayLayout, u.Birthday); err == nil {
			return born.Format(dateLayout), true
		}
		return u.Birthday, true
	case "age":
		return strconv.Itoa(u.Age(time.Now())), true
	case "computer":
		return u.Computer, true
	case "callsign":
		return u.Callsign, true
	case "note":
		return u.Note, true
	case "language":
		return u.Language, true
	case "firston":
		return formatDate(u.FirstOn), true
	case "laston":
		return formatDate(u.LastOn), true
	case "logons":
		return strconv.Itoa(u.Logons), true
	case "timesontoday":
		return strconv.Itoa(u.TimesOnToday), true
	case "illegallogons":
		return strconv.Itoa(u.IllegalLogons), true
	case "messagesposted":
		return strconv.Itoa(u.MessagesPosted), true
	case "messagesread":
		return strconv.Itoa(u.MessagesRead), true
	case "emailsent":
		return strconv.Itoa(u.EmailsSent), true
	case "netemailsent":
		return strconv.Itoa(u.NetEmailsSent), true
	case "feedbacksent":
		return strconv.Itoa(u.FeedbackSent), true
	case "mailwaiting":
		return strconv.Itoa(u.MailWaiting), true
	case "uploads":
		return strconv.Itoa(u.Uploads), true
	case "downloads":
		return strconv.Itoa(u.Downloads), true
	case "uploadkb":
		return strconv.Itoa(u.UploadKB), true
	case "downloadkb":
		return strconv.Itoa(u.DownloadKB), true
	case "timebank":
		return strconv.Itoa(u.TimeBank), true
	case "gold":
		return strconv.Itoa(u.Gold), true
	case "lastbps":
		return strconv.Itoa(u.LastBPS), true
	case "width":
		return strconv.Itoa(u.ScreenWidth), true
	case "lines":
		return strconv.Itoa(u.ScreenLines), true
	}
	return "", false
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func unixTime(seconds int64) time.Time {
	if seconds == 0 {
		return time.Time{}
	}
	return time.Unix(seconds, 0)
}

func unixSeconds(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// scanUser reads a row selected with userColumns.
func scanUser(stmt *sqlite.Stmt) *User {
	column := 0
	text := func() string { value := stmt.ColumnText(column); column++; return value }
	integer := func() int { value := stmt.ColumnInt(column); column++; return value }
	when := func() time.Time { value := stmt.ColumnInt64(column); column++; return unixTime(value) }

	u := &User{}
	u.Number = integer()
	u.Name = text()
	u.RealName = text()
	u.SL = integer()
	u.DSL = integer()
	u.Street = text()
	u.City = text()
	u.State = text()
	u.Country = text()
	u.Zip = text()
	u.Phone = text()
	u.Sex = text()
	u.Birthday = text()
	u.Computer = text()
	u.Callsign = text()
	u.Note = text()
	u.FirstOn = when()
	u.LastOn = when()
	u.Logons = integer()
	u.TimesOnToday = integer()
	u.IllegalLogons = integer()
	u.MessagesPosted = integer()
	u.MessagesRead = integer()
	u.EmailsSent = integer()
	u.NetEmailsSent = integer()
	u.FeedbackSent = integer()
	u.MailWaiting = integer()
	u.Uploads = integer()
	u.Downloads = integer()
	u.UploadKB = integer()
	u.DownloadKB = integer()
	u.TimeBank = integer()
	u.Gold = integer()
	u.LastBPS = integer()
	u.ScreenWidth = integer()
	u.ScreenLines = integer()
	u.ANSI = integer() != 0
	u.Language = text()
	return u
}
