// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the time source every session timer reads from.
//
// Session code never calls time.Now, time.After, or time.Sleep directly.
// Output pacing, the escape-continuation wait, pause prompt tiers, and
// idle timeouts all go through a [Clock] so that tests can drive them
// deterministically:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go session.Pause(ctx)
//	fake.WaitForTimers(1)          // the pause loop is now waiting
//	fake.Advance(120 * time.Second) // first timeout tier
//
// [Real] returns the wall clock.
package clock
