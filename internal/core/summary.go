package core

import "github.com/shopspring/decimal"

// StatusTotal aggregates the records sharing one status.
type StatusTotal struct {
	Status Status
	Count  int
	Total  decimal.Decimal
}

// Report is a compact summary of the whole collection.
type Report struct {
	ByStatus []StatusTotal // always one entry per status, in Statuses() order
	Count    int
	Total    decimal.Decimal
}

// NewReport fills in missing statuses and the grand totals.
func NewReport(totals []StatusTotal) Report {
	byStatus := make(map[Status]StatusTotal, len(totals))
	for _, t := range totals {
		byStatus[t.Status] = t
	}
	r := Report{Total: decimal.Zero}
	for _, s := range Statuses() {
		t, ok := byStatus[s]
		if !ok {
			t = StatusTotal{Status: s, Total: decimal.Zero}
		}
		r.ByStatus = append(r.ByStatus, t)
		r.Count += t.Count
		r.Total = r.Total.Add(t.Total)
	}
	return r
}

// SummarizeRecords computes per-status totals in Go.
func SummarizeRecords(recs []Record) []StatusTotal {
	idx := map[Status]int{}
	var out []StatusTotal
	for _, r := range recs {
		i, ok := idx[r.Status]
		if !ok {
			i = len(out)
			idx[r.Status] = i
			out = append(out, StatusTotal{Status: r.Status, Total: decimal.Zero})
		}
		out[i].Count++
		out[i].Total = out[i].Total.Add(r.Amount)
	}
	return out
}
