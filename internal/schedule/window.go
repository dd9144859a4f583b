// Package schedule holds the pure wall-clock arithmetic that decides when a
// league's purchase window is open, when the pre-window automation slot runs
// and which selection day a given instant belongs to. Everything here is a
// function of the passed-in time; nothing reads the system clock.
package schedule

import "time"

// Window describes one league's daily purchase window. Open and close hours
// are expressed in the league's canonical local timezone and converted to UTC
// hours internally, so callers always pass UTC instants.
type Window struct {
	OpenHourLocal    int // 0-23, league-local
	CloseHourLocal   int // 0-23, league-local; may be <= OpenHourLocal (wraps midnight)
	TZOffsetHours    int // league-local offset from UTC, e.g. +1 for WAT
	PreWindowMinutes int // automation slot length immediately before open
}

// openHourUTC converts the local open hour to its UTC equivalent
func (w Window) openHourUTC() int {
	return ((w.OpenHourLocal-w.TZOffsetHours)%24 + 24) % 24
}

// closeHourUTC converts the local close hour to its UTC equivalent
func (w Window) closeHourUTC() int {
	return ((w.CloseHourLocal-w.TZOffsetHours)%24 + 24) % 24
}

// IsOpen reports whether the purchase window is open at the given UTC instant.
// Windows that cross midnight are evaluated as a wraparound interval
// (hour >= open || hour < close), not a plain range check.
func (w Window) IsOpen(nowUTC time.Time) bool {
	hour := nowUTC.UTC().Hour()
	openH := w.openHourUTC()
	closeH := w.closeHourUTC()
	if openH == closeH {
		// Degenerate config: treat as always open.
		return true
	}
	if openH < closeH {
		return hour >= openH && hour < closeH
	}
	return hour >= openH || hour < closeH
}

// IsAutomationSlot reports whether the given UTC instant falls inside the
// short slot before the window opens, during which the selection, generation
// and settlement jobs are expected to fire.
func (w Window) IsAutomationSlot(nowUTC time.Time) bool {
	if w.PreWindowMinutes <= 0 {
		return false
	}
	open := w.NextOpen(nowUTC)
	slotStart := open.Add(-time.Duration(w.PreWindowMinutes) * time.Minute)
	now := nowUTC.UTC()
	return !now.Before(slotStart) && now.Before(open)
}

// NextOpen returns the next instant (inclusive of now's own hour boundary) at
// which the window opens, in UTC.
func (w Window) NextOpen(nowUTC time.Time) time.Time {
	now := nowUTC.UTC()
	open := time.Date(now.Year(), now.Month(), now.Day(), w.openHourUTC(), 0, 0, 0, time.UTC)
	if !open.After(now) {
		open = open.AddDate(0, 0, 1)
	}
	return open
}

// CycleDate returns the league-local selection day the given UTC instant
// belongs to, normalized to midnight UTC of that local date. For windows that
// wrap midnight, local hours before the close hour still belong to the
// previous day's cycle: a window open 18:00-09:00 counts 02:00 as part of the
// cycle that opened the evening before.
func (w Window) CycleDate(nowUTC time.Time) time.Time {
	local := nowUTC.UTC().Add(time.Duration(w.TZOffsetHours) * time.Hour)
	if w.wrapsMidnight() && local.Hour() < w.CloseHourLocal {
		local = local.AddDate(0, 0, -1)
	}
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// BuyableFrom returns when purchases open for the cycle the instant belongs
// to: the window's opening instant on the cycle date, in UTC.
func (w Window) BuyableFrom(nowUTC time.Time) time.Time {
	if w.IsOpen(nowUTC) {
		// Already open; report the opening instant of the current session.
		open := w.NextOpen(nowUTC).AddDate(0, 0, -1)
		return open
	}
	return w.NextOpen(nowUTC)
}

func (w Window) wrapsMidnight() bool {
	return w.CloseHourLocal <= w.OpenHourLocal
}
