package strategy

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SessionWindow is the local-time interval during which signal generation is
// permitted. Both boundaries are inclusive and evaluated against today's
// date in the configured location.
type SessionWindow struct {
	startHour, startMin int
	endHour, endMin     int
	loc                 *time.Location
}

// NewSessionWindow parses "HH:MM" start/end boundaries in the given IANA
// timezone. Returns an error on malformed times or an unknown timezone so
// that startup fails fast on bad configuration.
func NewSessionWindow(start, end, tzName string) (SessionWindow, error) {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return SessionWindow{}, fmt.Errorf("session: load timezone %q: %w", tzName, err)
	}
	sh, sm, err := parseHHMM(start)
	if err != nil {
		return SessionWindow{}, fmt.Errorf("session: start %q: %w", start, err)
	}
	eh, em, err := parseHHMM(end)
	if err != nil {
		return SessionWindow{}, fmt.Errorf("session: end %q: %w", end, err)
	}
	return SessionWindow{
		startHour: sh, startMin: sm,
		endHour: eh, endMin: em,
		loc: loc,
	}, nil
}

// Contains reports whether t falls within [start, end] on t's date in the
// session's timezone.
func (w SessionWindow) Contains(t time.Time) bool {
	local := t.In(w.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), w.startHour, w.startMin, 0, 0, w.loc)
	end := time.Date(local.Year(), local.Month(), local.Day(), w.endHour, w.endMin, 0, 0, w.loc)
	return !local.Before(start) && !local.After(end)
}

// Location returns the session's timezone.
func (w SessionWindow) Location() *time.Location { return w.loc }

func parseHHMM(s string) (int, int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("bad hour")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("bad minute")
	}
	return h, m, nil
}
