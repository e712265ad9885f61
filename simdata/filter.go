package simdata

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/schema"
)

// TradingWindow restricts trading to a weekday+hour range, in the data's UTC
// clock. StartHour/EndHour are [0,24); weekdays use time.Weekday values.
type TradingWindow struct {
	Weekdays  []time.Weekday
	StartHour int
	EndHour   int
}

// Allows reports whether ts falls inside the configured weekday+hour window.
func (w TradingWindow) Allows(ts domain.Timestamp) bool {
	if len(w.Weekdays) == 0 {
		return true
	}
	t := time.Time(ts)
	dayOK := false
	for _, d := range w.Weekdays {
		if t.Weekday() == d {
			dayOK = true
			break
		}
	}
	if !dayOK {
		return false
	}
	hour := t.Hour()
	return hour >= w.StartHour && hour < w.EndHour
}

func (w TradingWindow) Fingerprint() string {
	days := make([]string, len(w.Weekdays))
	for i, d := range w.Weekdays {
		days[i] = d.String()
	}
	sort.Strings(days)
	return fmt.Sprintf("window:%s:%d-%d", strings.Join(days, ","), w.StartHour, w.EndHour)
}

// CalendarPolicy decides which calendar events are allowed to enable
// trading, by impact/category.
type CalendarPolicy struct {
	AllowedImpacts    []schema.CalendarImpact
	AllowedCategories []string
}

func (p CalendarPolicy) blocksTrading(events []schema.CalendarEvent, ts domain.Timestamp) bool {
	if len(p.AllowedImpacts) == 0 && len(p.AllowedCategories) == 0 {
		return false
	}
	for _, e := range events {
		if !e.Time.Equal(ts) {
			continue
		}
		if !p.impactAllowed(e.Impact) || !p.categoryAllowed(e.Category) {
			return true
		}
	}
	return false
}

func (p CalendarPolicy) impactAllowed(impact schema.CalendarImpact) bool {
	if len(p.AllowedImpacts) == 0 {
		return true
	}
	for _, i := range p.AllowedImpacts {
		if i == impact {
			return true
		}
	}
	return false
}

func (p CalendarPolicy) categoryAllowed(category string) bool {
	if len(p.AllowedCategories) == 0 {
		return true
	}
	for _, c := range p.AllowedCategories {
		if c == category {
			return true
		}
	}
	return false
}

func (p CalendarPolicy) Fingerprint() string {
	impacts := make([]string, len(p.AllowedImpacts))
	for i, v := range p.AllowedImpacts {
		impacts[i] = fmt.Sprintf("%d", v)
	}
	cats := append([]string(nil), p.AllowedCategories...)
	sort.Strings(impacts)
	sort.Strings(cats)
	return fmt.Sprintf("calendar-policy:[%s]:[%s]", strings.Join(impacts, ","), strings.Join(cats, ","))
}

// YearFilter is the sorted set of allowed years.
type YearFilter struct {
	Years []domain.Year
}

func (y YearFilter) Allows(year domain.Year) bool {
	if len(y.Years) == 0 {
		return true
	}
	for _, v := range y.Years {
		if v == year {
			return true
		}
	}
	return false
}

func (y YearFilter) Fingerprint() string {
	years := make([]string, len(y.Years))
	for i, v := range y.Years {
		years[i] = fmt.Sprintf("%d", v)
	}
	sort.Strings(years)
	return fmt.Sprintf("years:[%s]", strings.Join(years, ","))
}

// FilterConfig bundles every filter applied while assembling SimulationData.
type FilterConfig struct {
	Years           YearFilter
	Window          TradingWindow
	CalendarPolicy  CalendarPolicy
}

func (f FilterConfig) Fingerprint() string {
	return strings.Join([]string{f.Years.Fingerprint(), f.Window.Fingerprint(), f.CalendarPolicy.Fingerprint()}, "|")
}

// ApplyFilters drops market events outside the trading window or blocked by
// calendar policy. cfg.Years is not consulted: no market or calendar event
// is dropped by year.
func ApplyFilters(market []schema.MarketEvent, calendar []schema.CalendarEvent, cfg FilterConfig) []schema.MarketEvent {
	out := make([]schema.MarketEvent, 0, len(market))
	for _, e := range market {
		if !cfg.Window.Allows(e.Timestamp) {
			continue
		}
		if cfg.CalendarPolicy.blocksTrading(calendar, e.Timestamp) {
			continue
		}
		out = append(out, e)
	}
	return out
}
