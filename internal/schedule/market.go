package schedule

import "time"

// MarketSession is the IDX regular session in Jakarta time
type MarketSession struct {
	OpenHour  int // 9
	OpenMin   int // 0
	CloseHour int // 16
	CloseMin  int // 0
}

// DefaultMarketSession returns the IDX regular session including the closing auction
func DefaultMarketSession() MarketSession {
	return MarketSession{
		OpenHour:  9,
		OpenMin:   0,
		CloseHour: 16,
		CloseMin:  0,
	}
}

// MarketStatus describes the session at a point in time
type MarketStatus struct {
	IsOpen      bool
	Now         time.Time
	TimeToOpen  time.Duration
	TimeToClose time.Duration
	Reason      string // "open", "weekend", "pre-market", "after-hours"
}

// Status reports the session state at now. Exchange holidays are not modeled.
func (m MarketSession) Status(now time.Time) MarketStatus {
	now = now.In(Jakarta)
	status := MarketStatus{Now: now}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Jakarta)
	openTime := m.openOn(today)
	closeTime := today.Add(time.Duration(m.CloseHour)*time.Hour + time.Duration(m.CloseMin)*time.Minute)

	switch {
	case isWeekend(now.Weekday()):
		status.Reason = "weekend"
		status.TimeToOpen = m.openOn(nextTradingDay(today)).Sub(now)
	case now.Before(openTime):
		status.Reason = "pre-market"
		status.TimeToOpen = openTime.Sub(now)
	case !now.Before(closeTime):
		status.Reason = "after-hours"
		status.TimeToOpen = m.openOn(nextTradingDay(today)).Sub(now)
	default:
		status.IsOpen = true
		status.Reason = "open"
		status.TimeToClose = closeTime.Sub(now)
	}
	return status
}

func (m MarketSession) openOn(day time.Time) time.Time {
	return day.Add(time.Duration(m.OpenHour)*time.Hour + time.Duration(m.OpenMin)*time.Minute)
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}

func nextTradingDay(day time.Time) time.Time {
	next := day.AddDate(0, 0, 1)
	for isWeekend(next.Weekday()) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
