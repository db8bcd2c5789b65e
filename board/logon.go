// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bureau-foundation/termhost/lib/lang"
	"github.com/bureau-foundation/termhost/lib/userstore"
	"github.com/bureau-foundation/termhost/session"
)

// LogonAttempts is how many tries a caller gets before being hung up on.
const LogonAttempts = 3

const (
	maxNameLength     = 30
	maxPasswordLength = 20
)

var (
	errLogonFailed     = errors.New("too many failed logons")
	errSignupAbandoned = errors.New("signup abandoned")
)

// logon asks for a name and password until one matches or the caller
// runs out of attempts. Typing NEW signs up instead.
func (c *Call) logon(ctx context.Context, s *session.Session) (*userstore.User, error) {
	users := c.board.config.Users
	for attempt := 1; attempt <= LogonAttempts; attempt++ {
		s.Print(ctx, c.text(lang.LogonName))
		answer, err := s.Input(ctx, maxNameLength, session.LineOptions{Upper: true})
		if err != nil {
			return nil, err
		}
		name := strings.TrimSpace(answer.Text)
		if name == "" {
			continue
		}
		if name == "NEW" {
			user, err := c.newUser(ctx, s)
			if errors.Is(err, userstore.ErrNameTaken) || errors.Is(err, errSignupAbandoned) {
				continue
			}
			if err != nil {
				return nil, err
			}
			return c.loggedOn(ctx, s, user)
		}
		if number, err := strconv.Atoi(name); err == nil {
			user, err := users.Get(ctx, number)
			if err != nil && !errors.Is(err, userstore.ErrNotFound) {
				return nil, err
			}
			if user != nil {
				name = user.Name
			}
		}

		s.Print(ctx, c.text(lang.LogonPassword))
		password, err := s.Input(ctx, maxPasswordLength, session.LineOptions{Password: true})
		if err != nil {
			return nil, err
		}
		user, err := users.Authenticate(ctx, name, password.Text)
		switch {
		case err == nil:
			return c.loggedOn(ctx, s, user)
		case errors.Is(err, userstore.ErrNotFound), errors.Is(err, userstore.ErrBadPassword):
			c.logger.Info("logon failed", "name", name, "attempt", attempt)
			s.Print(ctx, c.text(lang.LogonFailed))
		default:
			return nil, err
		}
	}
	return nil, errLogonFailed
}

// newUser signs a caller up. The first account on a fresh board gets
// sysop level.
func (c *Call) newUser(ctx context.Context, s *session.Session) (*userstore.User, error) {
	users := c.board.config.Users
	s.Print(ctx, c.text(lang.NewUserName))
	answer, err := s.Input(ctx, maxNameLength, session.LineOptions{Upper: true})
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(answer.Text)
	if name == "" {
		return nil, errSignupAbandoned
	}
	if _, err := strconv.Atoi(name); err == nil || name == "NEW" {
		// Numbers are looked up as user numbers at logon.
		s.Print(ctx, c.text(lang.NewUserTaken))
		return nil, userstore.ErrNameTaken
	}

	s.Print(ctx, c.text(lang.NewUserPassword))
	password, err := s.Input(ctx, maxPasswordLength, session.LineOptions{Password: true})
	if err != nil {
		return nil, err
	}
	if password.Text == "" {
		return nil, errSignupAbandoned
	}

	existing, err := users.Count(ctx)
	if err != nil {
		return nil, err
	}
	record := userstore.User{
		Name:        name,
		ScreenWidth: c.width,
		ScreenLines: c.height,
		ANSI:        c.line.ANSI,
	}
	if existing == 0 {
		record.SL, record.DSL = userstore.SysopLevel, userstore.SysopLevel
	}
	user, err := users.Create(ctx, record, password.Text)
	if errors.Is(err, userstore.ErrNameTaken) {
		s.Print(ctx, c.text(lang.NewUserTaken))
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("creating user %s: %w", name, err)
	}
	c.logger.Info("new user", "number", user.Number, "name", user.Name)
	return user, nil
}

// loggedOn records the logon and makes the user's record visible to
// directives and the observer.
func (c *Call) loggedOn(ctx context.Context, s *session.Session, user *userstore.User) (*userstore.User, error) {
	users := c.board.config.Users
	updated, err := users.RecordLogon(ctx, user.Number, c.board.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := users.SetTerminal(ctx, updated.Number, c.width, c.height, c.line.ANSI); err != nil {
		return nil, err
	}
	updated.ScreenWidth, updated.ScreenLines, updated.ANSI = c.width, c.height, c.line.ANSI

	s.Directives().Register("user", updated)
	var abilities session.Ability
	if updated.Sysop() {
		abilities = session.AbilityToggleAvailable | session.AbilityToggleInvisible
	}
	s.SetPrivileged(updated.SL >= c.board.config.Session.PrivilegedLevel, abilities)
	if c.mirror != nil {
		c.mirror.SetUser(updated.Name)
	}
	c.logger.Info("logged on", "number", updated.Number, "name", updated.Name, "logons", updated.Logons)
	s.Print(ctx, c.text(lang.LogonWelcome))
	return updated, nil
}

// text returns the prompt string for key.
func (c *Call) text(key string) string {
	return c.board.config.Strings.Get(key)
}
