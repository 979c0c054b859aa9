// Package metrics folds loaded clients, loans and installments into the
// dashboard figures. Every function is pure.
package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"painel/internal/core"
)

// Point is one bucket of a series. Label is "MM/YYYY".
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

const dateLayout = "2006-01-02"

// DueToday returns the installments whose due date is today's YYYY-MM-DD.
func DueToday(installments []core.Installment, today time.Time) []core.Installment {
	key := today.Format(dateLayout)
	var out []core.Installment
	for _, p := range installments {
		if p.DueDate == key {
			out = append(out, p)
		}
	}
	return out
}

func DueTodayCount(installments []core.Installment, today time.Time) int {
	return len(DueToday(installments, today))
}

// ProjectedRevenue sums scheduled installments due in month/year.
func ProjectedRevenue(installments []core.Installment, month time.Month, year int) float64 {
	return sumByStatus(installments, core.InstallmentScheduled, month, year)
}

// RealizedRevenue sums paid installments due in month/year.
func RealizedRevenue(installments []core.Installment, month time.Month, year int) float64 {
	return sumByStatus(installments, core.InstallmentPaid, month, year)
}

func sumByStatus(installments []core.Installment, status core.InstallmentStatus, month time.Month, year int) float64 {
	var total float64
	for _, p := range installments {
		if p.Status.Canonical() != status {
			continue
		}
		y, m, ok := yearMonth(p.DueDate)
		if !ok || y != year || m != month {
			continue
		}
		total += p.Amount
	}
	return total
}

// DelinquencyCount counts clients flagged delinquent, whatever their status.
func DelinquencyCount(clients []core.Client) int {
	n := 0
	for _, c := range clients {
		if c.IsDelinquent() {
			n++
		}
	}
	return n
}

// MonthlyRevenueSeries buckets paid-loan principals by the creation month of
// each loan's first installment, oldest bucket first.
func MonthlyRevenueSeries(loans []core.Loan) []Point {
	type bucket struct {
		year  int
		month time.Month
	}
	sums := map[bucket]float64{}
	for _, l := range loans {
		if l.Status != core.LoanPaid || len(l.Installments) == 0 {
			continue
		}
		y, m, ok := yearMonth(l.Installments[0].CreatedAt)
		if !ok {
			continue
		}
		sums[bucket{y, m}] += l.Principal
	}

	keys := make([]bucket, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	out := make([]Point, 0, len(keys))
	for _, k := range keys {
		out = append(out, Point{
			Label: fmt.Sprintf("%02d/%04d", int(k.month), k.year),
			Value: sums[k],
		})
	}
	return out
}

// AverageTicket is the mean principal of paid loans, or 0 without any.
func AverageTicket(loans []core.Loan) float64 {
	var sum float64
	n := 0
	for _, l := range loans {
		if l.Status == core.LoanPaid {
			sum += l.Principal
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// yearMonth reads the year and month of a "YYYY-MM-DD..." string. Anything
// with fewer than three dash-separated parts is rejected.
func yearMonth(s string) (int, time.Month, bool) {
	parts := strings.Split(s, "-")
	if len(parts) < 3 {
		return 0, 0, false
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	return y, time.Month(m), true
}
