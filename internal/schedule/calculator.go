// Package schedule computes next-dose-due timestamps from dispensing events.
//
// The calculator is a pure function over a DispenseEvent: it never fails and
// has no side effects. Callers are responsible for persisting the result and
// for logging when an unrecognized frequency policy forced the Daily fallback.
package schedule

import "time"

// FrequencyPolicy identifies a dosing frequency.
type FrequencyPolicy string

const (
	// Daily is one dose per day
	Daily FrequencyPolicy = "daily"

	// Weekly is one dose per week
	Weekly FrequencyPolicy = "weekly"

	// TwiceDaily is two doses per day
	TwiceDaily FrequencyPolicy = "twice-daily"

	// TwiceWeekly is two doses per week
	TwiceWeekly FrequencyPolicy = "twice-weekly"

	// ThriceWeekly is three doses per week
	ThriceWeekly FrequencyPolicy = "thrice-weekly"

	// PRNEvery4h is as-needed dosing, at most every four hours. There is no
	// deterministic schedule; next-due is a supply-duration estimate only.
	PRNEvery4h FrequencyPolicy = "prn-4h"
)

// prnMaxDosesPerDay caps the assumed PRN consumption rate when estimating how
// long a dispensed quantity lasts. A supply heuristic, not a clinical limit.
const prnMaxDosesPerDay = 6

// DispenseEvent describes a finalized dispensing of medication.
type DispenseEvent struct {
	// Quantity is the number of doses dispensed. Must not be negative;
	// zero is valid and yields the base timestamp unchanged.
	Quantity int

	// Policy is the dosing frequency for the dispensed medication.
	Policy FrequencyPolicy

	// DispensedAt is the base timestamp the schedule is computed from,
	// normally the moment of dispensing or label printing.
	DispensedAt time.Time
}

// Result is the outcome of a next-due computation.
type Result struct {
	// NextDue is when the next dispensation is due.
	NextDue time.Time

	// Estimate is true for PRN policies: NextDue is a supply-duration
	// estimate rather than a deterministic schedule.
	Estimate bool

	// Fallback is true when the event carried an unrecognized policy and
	// the Daily rule was applied. Callers must log this; the calculator
	// never hides the substitution.
	Fallback bool
}

// NextDue computes when the next dispensation is due for the given event.
//
// All arithmetic is carried out in whole days, rounding fractional day counts
// up. A zero quantity always yields the base timestamp unchanged, regardless
// of policy.
func NextDue(event DispenseEvent) Result {
	base := event.DispensedAt

	if event.Quantity <= 0 {
		return Result{NextDue: base, Estimate: event.Policy == PRNEvery4h}
	}

	q := event.Quantity
	switch event.Policy {
	case Daily:
		return Result{NextDue: addDays(base, q)}
	case Weekly:
		return Result{NextDue: addDays(base, q*7)}
	case TwiceDaily:
		return Result{NextDue: addDays(base, ceilDiv(q, 2))}
	case TwiceWeekly:
		return Result{NextDue: addDays(base, ceilDiv(q, 2)*7)}
	case ThriceWeekly:
		return Result{NextDue: addDays(base, ceilDiv(q, 3)*7)}
	case PRNEvery4h:
		return Result{NextDue: addDays(base, ceilDiv(q, prnMaxDosesPerDay)), Estimate: true}
	default:
		// Unknown policy: apply the Daily rule and flag it for the caller.
		return Result{NextDue: addDays(base, q), Fallback: true}
	}
}

// DaysPerUnit returns the days-per-dose rational constant for a policy as a
// (numerator, denominator) pair, and false for PRN or unknown policies, which
// have no deterministic schedule constant.
func DaysPerUnit(policy FrequencyPolicy) (int, int, bool) {
	switch policy {
	case Daily:
		return 1, 1, true
	case Weekly:
		return 7, 1, true
	case TwiceDaily:
		return 1, 2, true
	case TwiceWeekly:
		return 7, 2, true
	case ThriceWeekly:
		return 7, 3, true
	default:
		return 0, 0, false
	}
}

// Known reports whether the policy is one of the recognized frequency policies.
func Known(policy FrequencyPolicy) bool {
	switch policy {
	case Daily, Weekly, TwiceDaily, TwiceWeekly, ThriceWeekly, PRNEvery4h:
		return true
	}
	return false
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

func addDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}
