// Package report derives displayable work intervals from a workday's
// pauses, computes productivity, and applies manual adjustments under
// invariant checks.
package report

import (
	"context"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"

	"github.com/lacodda/kasl/internal/db"
)

// Interval is a contiguous stretch of displayed work time.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Duration() time.Duration { return i.End.Sub(i.Start) }

// DailyReport is the aggregator's output for one calendar date.
type DailyReport struct {
	Date                  string
	Gross                 time.Duration
	Net                    time.Duration
	Productivity           float64 // percent, rounded to one decimal
	Intervals              []Interval
	FilteredCount          int
	FilteredTotalDuration  time.Duration
	Tasks                  []db.Task
}

// MonthlyReport aggregates daily (duration, productivity) pairs for a
// month, including a placeholder for external rest days.
type MonthlyReport struct {
	YearMonth    string
	Days         []DailyAggregate
	TotalNet     time.Duration
	Productivity float64 // duration-weighted mean over worked days
}

// DailyAggregate is one line of a MonthlyReport.
type DailyAggregate struct {
	Date         string
	Net          time.Duration
	Productivity float64
	IsRestDay    bool
}

// RestDaySource is the external collaborator that marks calendar dates as
// non-working. Its failures are non-fatal: the aggregator proceeds
// without rest-day annotation.
type RestDaySource interface {
	RestDays(ctx context.Context, year int, month time.Month) (map[string]bool, error)
}

// ReportSink is the external collaborator a `sum --send` submits to.
// Transport, auth, and retry are its responsibility.
type ReportSink interface {
	Send(ctx context.Context, report any) error
}

// defaultRestDayHours is the placeholder duration credited to a rest day
// in a MonthlyReport.
const defaultRestDayHours = 8

// Aggregator computes reports against a Store and caches DailyReports for
// the lifetime of the process, invalidated on any adjustment to that date.
type Aggregator struct {
	store           *db.Store
	minWorkInterval time.Duration
	cache           *lru.Cache[string, DailyReport]
}

// New returns an Aggregator. minWorkInterval is config.Monitor.MinWorkInterval
// converted to a duration.
func New(store *db.Store, minWorkInterval time.Duration) *Aggregator {
	c, _ := lru.New[string, DailyReport](64)
	return &Aggregator{store: store, minWorkInterval: minWorkInterval, cache: c}
}

// Daily produces the DailyReport for date.
func (a *Aggregator) Daily(ctx context.Context, date string) (*DailyReport, error) {
	if cached, ok := a.cache.Get(date); ok {
		r := cached
		return &r, nil
	}

	wd, err := a.store.Workdays().GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if wd == nil || wd.End == nil {
		return &DailyReport{Date: date}, nil
	}

	pauses, err := a.store.Pauses().ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	raw := rawIntervals(wd.Start, *wd.End, pauses)
	displayed, filteredCount, filteredTotal := filterShort(raw, a.minWorkInterval)

	tasks, err := a.store.Tasks().ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	gross := wd.End.Sub(wd.Start)
	var net time.Duration
	for _, iv := range displayed {
		net += iv.Duration()
	}

	rep := DailyReport{
		Date:                  date,
		Gross:                 gross,
		Net:                   net,
		Productivity:          productivityPercent(net, gross),
		Intervals:             displayed,
		FilteredCount:         filteredCount,
		FilteredTotalDuration: filteredTotal,
		Tasks:                 tasks,
	}
	a.cache.Add(date, rep)
	return &rep, nil
}

// invalidate drops date's cached report; called by every adjustment.
func (a *Aggregator) invalidate(date string) { a.cache.Remove(date) }

// rawIntervals is the complement of completed pauses inside [start, end];
// an open pause is ignored entirely — it never contributes to a report.
func rawIntervals(start, end time.Time, pauses []db.Pause) []Interval {
	var completed []db.Pause
	for _, p := range pauses {
		if p.End != nil {
			completed = append(completed, p)
		}
	}
	sort.Slice(completed, func(i, j int) bool { return completed[i].Start.Before(completed[j].Start) })

	var out []Interval
	cursor := start
	for _, p := range completed {
		if p.Start.After(cursor) {
			out = append(out, Interval{Start: cursor, End: p.Start})
		}
		if p.End.After(cursor) {
			cursor = *p.End
		}
	}
	if end.After(cursor) {
		out = append(out, Interval{Start: cursor, End: end})
	}
	return out
}

// filterShort removes intervals shorter than minWorkInterval from the
// displayed set without mutating anything persisted: filtering is
// display-only.
func filterShort(intervals []Interval, minWorkInterval time.Duration) (displayed []Interval, filteredCount int, filteredTotal time.Duration) {
	for _, iv := range intervals {
		if iv.Duration() < minWorkInterval {
			filteredCount++
			filteredTotal += iv.Duration()
			continue
		}
		displayed = append(displayed, iv)
	}
	return displayed, filteredCount, filteredTotal
}

// productivityPercent is 100*net/gross rounded to one decimal, computed
// with decimal.Decimal so the rounding is exact regardless of platform
// float behavior.
func productivityPercent(net, gross time.Duration) float64 {
	if gross <= 0 {
		return 0
	}
	n := decimal.NewFromInt(int64(net))
	g := decimal.NewFromInt(int64(gross))
	pct := n.Mul(decimal.NewFromInt(100)).DivRound(g, 1)
	f, _ := pct.Float64()
	return f
}

// Monthly aggregates every workday in yearMonth ("YYYY-MM") plus rest-day
// placeholders from restDays. A nil restDays is treated as "no rest-day
// source configured"; a failing one is swallowed — rest-day annotation is
// non-fatal for every caller, including `sum --send`.
func (a *Aggregator) Monthly(ctx context.Context, yearMonth string, restDays RestDaySource) (*MonthlyReport, error) {
	workdays, err := a.store.Workdays().ListMonth(ctx, yearMonth)
	if err != nil {
		return nil, err
	}

	rest := map[string]bool{}
	if restDays != nil {
		year, month, perr := parseYearMonth(yearMonth)
		if perr == nil {
			if rd, rerr := restDays.RestDays(ctx, year, month); rerr == nil {
				rest = rd
			}
		}
	}

	var days []DailyAggregate
	var totalNet time.Duration
	var weightedSum float64
	var weightTotal time.Duration

	for _, wd := range workdays {
		delete(rest, wd.Date)
		rep, err := a.Daily(ctx, wd.Date)
		if err != nil {
			return nil, err
		}
		days = append(days, DailyAggregate{Date: wd.Date, Net: rep.Net, Productivity: rep.Productivity})
		totalNet += rep.Net
		weightedSum += rep.Productivity * rep.Net.Hours()
		weightTotal += rep.Net
	}
	for date := range rest {
		restHours := time.Duration(defaultRestDayHours) * time.Hour
		days = append(days, DailyAggregate{Date: date, Net: restHours, IsRestDay: true})
		totalNet += restHours
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	var productivity float64
	if weightTotal > 0 {
		productivity = weightedSum / weightTotal.Hours()
	}

	return &MonthlyReport{
		YearMonth:    yearMonth,
		Days:         days,
		TotalNet:     totalNet,
		Productivity: roundOneDecimal(productivity),
	}, nil
}

func roundOneDecimal(f float64) float64 {
	d := decimal.NewFromFloat(f).Round(1)
	v, _ := d.Float64()
	return v
}

func parseYearMonth(ym string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", ym)
	if err != nil {
		return 0, 0, err
	}
	return t.Year(), t.Month(), nil
}
