package markethours

import (
	"fmt"
	"time"
)

// Calendar models a single exchange with a two-session trading day (morning,
// lunch break, afternoon) in a fixed location. Weekends are closed; there is
// no holiday table.
type Calendar struct {
	loc            *time.Location
	morningOpen    int // minutes from midnight
	morningClose   int
	afternoonOpen  int
	afternoonClose int
}

// New builds a calendar. Session times are "HH:MM" strings read in the given
// IANA location.
func New(location, morningOpen, morningClose, afternoonOpen, afternoonClose string) (*Calendar, error) {
	loc, err := time.LoadLocation(location)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", location, err)
	}
	c := &Calendar{loc: loc}
	for _, f := range []struct {
		dst *int
		val string
	}{
		{&c.morningOpen, morningOpen},
		{&c.morningClose, morningClose},
		{&c.afternoonOpen, afternoonOpen},
		{&c.afternoonClose, afternoonClose},
	} {
		hm, err := parseHM(f.val)
		if err != nil {
			return nil, err
		}
		*f.dst = hm
	}
	if !(c.morningOpen < c.morningClose && c.morningClose <= c.afternoonOpen && c.afternoonOpen < c.afternoonClose) {
		return nil, fmt.Errorf("session times out of order")
	}
	return c, nil
}

func parseHM(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse session time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Location returns the calendar's time zone.
func (c *Calendar) Location() *time.Location { return c.loc }

// IsOpen reports whether the exchange is trading at t.
func (c *Calendar) IsOpen(t time.Time) bool {
	open, _ := c.Status(t)
	return open
}

// Status reports whether the exchange is trading at t, with a label for the
// part of the day.
func (c *Calendar) Status(t time.Time) (bool, string) {
	lt := t.In(c.loc)
	if wd := lt.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false, "weekend"
	}
	hm := lt.Hour()*60 + lt.Minute()
	switch {
	case hm >= c.morningOpen && hm < c.morningClose:
		return true, "morning session"
	case hm >= c.morningClose && hm < c.afternoonOpen:
		return false, "lunch break"
	case hm >= c.afternoonOpen && hm < c.afternoonClose:
		return true, "afternoon session"
	default:
		return false, "closed"
	}
}

// NextOpen returns t itself when the exchange is open, otherwise the earliest
// session start after t.
func (c *Calendar) NextOpen(t time.Time) time.Time {
	lt := t.In(c.loc)
	if c.IsOpen(lt) {
		return lt
	}
	for i := 0; i < 8; i++ {
		d := lt.AddDate(0, 0, i)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if morning := c.at(d, c.morningOpen); lt.Before(morning) {
			return morning
		}
		if afternoon := c.at(d, c.afternoonOpen); lt.Before(afternoon) {
			return afternoon
		}
	}
	return lt
}

func (c *Calendar) at(day time.Time, hm int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hm/60, hm%60, 0, 0, c.loc)
}
