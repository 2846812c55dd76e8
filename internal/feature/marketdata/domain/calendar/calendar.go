// Package calendar decides whether a market is open at a given instant.
package calendar

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/aa"
	"github.com/rickar/cal/v2/us"
)

// NYSEHolidays are the exchange's full-day closures. Unlike the federal list it
// has Good Friday and no Columbus or Veterans Day. A Sunday holiday closes the
// following Monday and a Saturday holiday the preceding Friday, except New
// Year's Day, which is not made up when it falls on a Saturday.
var NYSEHolidays = []*cal.Holiday{
	us.NewYear.Clone(&cal.Holiday{Observed: []cal.AltDay{{Day: time.Sunday, Offset: 1}}}),
	us.MlkDay,
	us.PresidentsDay,
	aa.GoodFriday.Clone(&cal.Holiday{Type: cal.ObservanceOther}),
	us.MemorialDay,
	us.Juneteenth.Clone(&cal.Holiday{StartYear: 2022}),
	us.IndependenceDay,
	us.LaborDay,
	us.ThanksgivingDay,
	us.ChristmasDay,
}

// Calendar is the market-open predicate of one asset class.
type Calendar interface {
	IsOpen(now time.Time) bool
}

// AlwaysOpen is the crypto calendar.
type AlwaysOpen struct{}

func (AlwaysOpen) IsOpen(time.Time) bool { return true }

// Clock is a wall-clock time of day in minutes after midnight.
type Clock int

// At builds a Clock from hours and minutes.
func At(hour, minute int) Clock { return Clock(hour*60 + minute) }

func clockOf(t time.Time) Clock { return At(t.Hour(), t.Minute()) }

// EquityCalendar opens on weekdays that are not holidays, between Open and Close
// inclusive, in the exchange-local zone.
type EquityCalendar struct {
	loc      *time.Location
	open     Clock
	close    Clock
	holidays *cal.BusinessCalendar
	closures map[string]struct{}
}

// NewEquityCalendar returns a 09:30-16:00 calendar closed on NYSEHolidays.
// extraClosures are additional closed dates in YYYY-MM-DD form.
func NewEquityCalendar(loc *time.Location, extraClosures ...string) *EquityCalendar {
	bc := cal.NewBusinessCalendar()
	bc.AddHoliday(NYSEHolidays...)
	closures := make(map[string]struct{}, len(extraClosures))
	for _, d := range extraClosures {
		closures[d] = struct{}{}
	}
	return &EquityCalendar{
		loc:      loc,
		open:     At(9, 30),
		close:    At(16, 0),
		holidays: bc,
		closures: closures,
	}
}

// IsOpen reports whether the exchange is in its regular session at now.
func (c *EquityCalendar) IsOpen(now time.Time) bool {
	local := now.In(c.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	if c.IsHoliday(local) {
		return false
	}
	hm := clockOf(local)
	return hm >= c.open && hm <= c.close
}

// IsHoliday reports whether the local date is a listed or observed holiday.
func (c *EquityCalendar) IsHoliday(t time.Time) bool {
	local := t.In(c.loc)
	if _, ok := c.closures[local.Format("2006-01-02")]; ok {
		return true
	}
	actual, observed, _ := c.holidays.IsHoliday(local)
	return actual || observed
}

// ForexCalendar is open around the clock except for the weekly cutover window.
type ForexCalendar struct {
	loc       *time.Location
	closeDay  time.Weekday
	closeAt   Clock
	reopenDay time.Weekday
	reopenAt  Clock
}

// ForexSchedule is the configurable weekly cutover.
type ForexSchedule struct {
	CloseDay  time.Weekday
	CloseAt   Clock
	ReopenDay time.Weekday
	ReopenAt  Clock
}

// DefaultForexSchedule closes Friday 17:00 and reopens Sunday 17:00.
var DefaultForexSchedule = ForexSchedule{
	CloseDay:  time.Friday,
	CloseAt:   At(17, 0),
	ReopenDay: time.Sunday,
	ReopenAt:  At(17, 0),
}

// NewForexCalendar builds an FX calendar in loc.
func NewForexCalendar(loc *time.Location, s ForexSchedule) *ForexCalendar {
	return &ForexCalendar{
		loc:       loc,
		closeDay:  s.CloseDay,
		closeAt:   s.CloseAt,
		reopenDay: s.ReopenDay,
		reopenAt:  s.ReopenAt,
	}
}

// IsOpen reports whether now falls outside the weekly closed window.
func (c *ForexCalendar) IsOpen(now time.Time) bool {
	local := now.In(c.loc)
	m := weekMinute(local.Weekday(), clockOf(local))
	closeM := weekMinute(c.closeDay, c.closeAt)
	reopenM := weekMinute(c.reopenDay, c.reopenAt)
	if closeM == reopenM {
		return true
	}
	var closed bool
	if closeM < reopenM {
		closed = m >= closeM && m < reopenM
	} else {
		// window wraps the Sunday 00:00 week boundary
		closed = m >= closeM || m < reopenM
	}
	return !closed
}

func weekMinute(d time.Weekday, c Clock) int {
	return int(d)*24*60 + int(c)
}
