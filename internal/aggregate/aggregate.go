// Package aggregate folds raw gestión rows into hourly per-agent
// metrics and the monthly promises-per-hour heat-map matrix.
package aggregate

import (
	"sort"
	"time"

	"github.com/andeantel/pdp-analytics/backend/internal/types"
)

type hourKey struct {
	date  string
	hour  int
	email string
}

// Aggregate is a pure fold: the same record set yields the same detail
// table and matrix regardless of input order. Unknown outcome categories
// count toward the total only.
func Aggregate(records []types.GestionRecord, p types.Period) ([]types.HourlyAgentMetric, *types.Heatmap) {
	byHour := make(map[hourKey]*types.HourlyAgentMetric)

	for _, r := range records {
		k := hourKey{date: r.Date.Format("2006-01-02"), hour: r.Hour, email: r.AgentEmail}
		m, ok := byHour[k]
		if !ok {
			m = &types.HourlyAgentMetric{
				Date:       time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC),
				Hour:       r.Hour,
				AgentEmail: r.AgentEmail,
				AgentDNI:   r.AgentDNI,
				AgentName:  r.AgentName,
			}
			byHour[k] = m
		}
		// Identity attributes are keyed by email; ties between rows
		// are resolved lexicographically so output stays order
		// independent.
		if r.AgentDNI != "" && (m.AgentDNI == "" || r.AgentDNI < m.AgentDNI) {
			m.AgentDNI = r.AgentDNI
		}
		if r.AgentName != "" && (m.AgentName == "" || r.AgentName < m.AgentName) {
			m.AgentName = r.AgentName
		}

		m.Total += r.Count
		switch r.Outcome.Normalize() {
		case types.OutcomeEffectiveContact:
			m.EffectiveContacts += r.Count
		case types.OutcomeNoContact:
			m.NoContacts += r.Count
		case types.OutcomePaymentPromise:
			m.PDPCount += r.Count
		}
	}

	detail := make([]types.HourlyAgentMetric, 0, len(byHour))
	for _, m := range byHour {
		detail = append(detail, *m)
	}
	sort.Slice(detail, func(i, j int) bool {
		if !detail[i].Date.Equal(detail[j].Date) {
			return detail[i].Date.Before(detail[j].Date)
		}
		if detail[i].Hour != detail[j].Hour {
			return detail[i].Hour < detail[j].Hour
		}
		return detail[i].AgentEmail < detail[j].AgentEmail
	})

	return detail, buildHeatmap(detail, p)
}

type dayActivity struct {
	pdp   int
	hours map[int]struct{}
}

// buildHeatmap computes one row per observed agent with one cell per
// calendar day of the period. A day's value is the PDP count divided by
// the number of distinct active hours; days without activity stay 0.
func buildHeatmap(detail []types.HourlyAgentMetric, p types.Period) *types.Heatmap {
	type identity struct {
		dni  string
		name string
	}
	agents := make(map[string]identity)
	perDay := make(map[string]map[int]*dayActivity)

	for _, m := range detail {
		if _, ok := agents[m.AgentEmail]; !ok {
			agents[m.AgentEmail] = identity{dni: m.AgentDNI, name: m.AgentName}
			perDay[m.AgentEmail] = make(map[int]*dayActivity)
		}
		day := m.Date.Day()
		da, ok := perDay[m.AgentEmail][day]
		if !ok {
			da = &dayActivity{hours: make(map[int]struct{})}
			perDay[m.AgentEmail][day] = da
		}
		da.pdp += m.PDPCount
		da.hours[m.Hour] = struct{}{}
	}

	emails := make([]string, 0, len(agents))
	for email := range agents {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	days := p.Days()
	hm := &types.Heatmap{Period: p, Rows: make([]types.HeatmapRow, 0, len(emails))}
	for _, email := range emails {
		row := types.HeatmapRow{
			AgentEmail: email,
			AgentDNI:   agents[email].dni,
			AgentName:  agents[email].name,
			Daily:      make([]float64, days),
		}
		for day, da := range perDay[email] {
			if len(da.hours) == 0 {
				continue
			}
			row.Daily[day-1] = float64(da.pdp) / float64(len(da.hours))
		}

		var sum float64
		var nonZero int
		for _, v := range row.Daily {
			if v != 0 {
				sum += v
				nonZero++
			}
		}
		if nonZero > 0 {
			row.MonthlyAverage = sum / float64(nonZero)
		}

		hm.Rows = append(hm.Rows, row)
	}
	return hm
}

// ConnectedTotal is the per-(date, agent) sum of handling durations,
// the feed for the connected-time upsert store.
type ConnectedTotal struct {
	Fecha   string
	Email   string
	Seconds int64
}

// ConnectedTotals folds handling durations per (date, email), sorted for
// deterministic write order.
func ConnectedTotals(records []types.GestionRecord) []ConnectedTotal {
	type key struct {
		fecha string
		email string
	}
	sums := make(map[key]int64)
	for _, r := range records {
		if r.DurationSeconds <= 0 {
			continue
		}
		sums[key{fecha: r.Date.Format("2006-01-02"), email: r.AgentEmail}] += r.DurationSeconds
	}

	totals := make([]ConnectedTotal, 0, len(sums))
	for k, s := range sums {
		totals = append(totals, ConnectedTotal{Fecha: k.fecha, Email: k.email, Seconds: s})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Fecha != totals[j].Fecha {
			return totals[i].Fecha < totals[j].Fecha
		}
		return totals[i].Email < totals[j].Email
	})
	return totals
}

// UnknownCategories lists the outcome categories outside the known set,
// sorted, for anomaly logging.
func UnknownCategories(records []types.GestionRecord) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		if r.Outcome.Normalize() == types.OutcomeOther {
			seen[string(r.Outcome)] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
