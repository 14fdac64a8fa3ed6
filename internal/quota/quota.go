package quota

import (
	"fmt"
	"strings"
)

// Period is the renewal cadence a quota's night count applies to.
type Period string

const (
	PeriodOnce    Period = "once"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// MaxNights is the longest stay any quota or ticket may cover, ten years of nights.
const MaxNights = 3650

// resolutionOrder is the order Resolve and FromFields read the per-period counts in.
var resolutionOrder = []Period{PeriodWeekly, PeriodMonthly, PeriodYearly, PeriodOnce}

// Valid reports whether p is one of the four recognized periods.
func (p Period) Valid() bool {
	switch p {
	case PeriodOnce, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// ParsePeriod maps user input onto a Period. An empty value means PeriodOnce.
func ParsePeriod(raw string) (Period, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return PeriodOnce, nil
	}
	p := Period(s)
	if !p.Valid() {
		return "", &InvalidQuotaError{Period: p, Reason: "unknown period"}
	}
	return p, nil
}

// InvalidQuotaError reports a building quota that cannot be applied.
type InvalidQuotaError struct {
	Period Period
	Count  int
	Reason string
}

func (e *InvalidQuotaError) Error() string {
	return fmt.Sprintf("invalid quota %q/%d: %s", e.Period, e.Count, e.Reason)
}

// Quota is a building's stay limit: a single active period and its night count.
// The zero value has no explicit quota.
type Quota struct {
	period Period
	nights int
}

// New returns a quota set to (period, count).
func New(period Period, count int) (Quota, error) {
	var q Quota
	if err := q.Set(period, count); err != nil {
		return Quota{}, err
	}
	return q, nil
}

// Set makes (period, count) the only active limit. Any other period is cleared.
func (q *Quota) Set(period Period, count int) error {
	if !period.Valid() {
		return &InvalidQuotaError{Period: period, Count: count, Reason: "unknown period"}
	}
	if count < 1 {
		return &InvalidQuotaError{Period: period, Count: count, Reason: "night count must be at least 1"}
	}
	if count > MaxNights {
		return &InvalidQuotaError{Period: period, Count: count, Reason: fmt.Sprintf("night count must be at most %d", MaxNights)}
	}
	q.period = period
	q.nights = count
	return nil
}

// Resolve returns the active (period, nights). (once, 0) means no quota is set
// and callers must treat it as unbounded.
func (q Quota) Resolve() (Period, int) {
	if q.nights < 1 || !q.period.Valid() {
		return PeriodOnce, 0
	}
	return q.period, q.nights
}

// IsSet reports whether an explicit limit is configured.
func (q Quota) IsSet() bool {
	_, n := q.Resolve()
	return n > 0
}

// Nights returns the count stored for period, which is 0 for every inactive period.
func (q Quota) Nights(period Period) int {
	p, n := q.Resolve()
	if p != period {
		return 0
	}
	return n
}

func (q Quota) String() string {
	p, n := q.Resolve()
	if n == 0 {
		return "unset"
	}
	return fmt.Sprintf("%d/%s", n, p)
}

// Fields is the persisted four-column shape of a quota.
type Fields struct {
	Nights           int `json:"nights"`
	MaxNightPerWeek  int `json:"maxNightPerWeek"`
	MaxNightPerMonth int `json:"maxNightPerMonth"`
	MaxNightPerYear  int `json:"maxNightPerYear"`
}

func (f Fields) get(p Period) int {
	switch p {
	case PeriodWeekly:
		return f.MaxNightPerWeek
	case PeriodMonthly:
		return f.MaxNightPerMonth
	case PeriodYearly:
		return f.MaxNightPerYear
	default:
		return f.Nights
	}
}

// Fields flattens q into the four-column shape. At most one column is non-zero.
func (q Quota) Fields() Fields {
	p, n := q.Resolve()
	var f Fields
	if n == 0 {
		return f
	}
	switch p {
	case PeriodWeekly:
		f.MaxNightPerWeek = n
	case PeriodMonthly:
		f.MaxNightPerMonth = n
	case PeriodYearly:
		f.MaxNightPerYear = n
	default:
		f.Nights = n
	}
	return f
}

// FromFields rebuilds a quota from stored columns, taking the first positive
// count in weekly, monthly, yearly, once order. conflicting is true when more
// than one column is positive, which only happens with data not written by Set.
func FromFields(f Fields) (q Quota, conflicting bool) {
	positive := 0
	for _, p := range resolutionOrder {
		n := f.get(p)
		if n < 1 {
			continue
		}
		positive++
		if positive == 1 {
			q = Quota{period: p, nights: n}
		}
	}
	return q, positive > 1
}
