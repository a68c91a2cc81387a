package shell

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"registros/internal/core"
	"registros/internal/records"
)

const helpText = `Commands:
  list                    show the records again
  all                     show every status
  new                     add a record
  edit <n|id>             change a record
  delete <n|id>           remove a record
  select <n|id>...        toggle selection
  filter <status>...      toggle visibility of open, submitted or closed
  submit                  mark the selection as submitted
  close                   mark the selection as closed
  reopen                  mark the selection as open
  report                  totals per status
  help                    this text
  quit                    leave
In a form, Enter keeps the shown value, "-" clears it and ":cancel" aborts.
`

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// renderHome writes the greeting, the filter line and the visible list.
func renderHome(w io.Writer, userName string, snap records.Snapshot) {
	fmt.Fprintf(w, "\nHello, %s\n", userName)

	active := make(map[core.Status]bool, len(snap.Filter))
	for _, st := range snap.Filter {
		active[st] = true
	}
	parts := make([]string, 0, len(core.Statuses()))
	for _, st := range core.Statuses() {
		parts = append(parts, checkbox(active[st])+" "+st.String())
	}
	fmt.Fprintf(w, "Filter: %s    Selected: %d\n", strings.Join(parts, "  "), len(snap.Selected))

	if len(snap.Visible) == 0 {
		if len(snap.Records) == 0 {
			fmt.Fprintln(w, "No records yet. Type \"new\" to add one.")
		} else {
			fmt.Fprintf(w, "No records match the filter (%d hidden).\n", len(snap.Records))
		}
		return
	}

	selected := make(map[string]bool, len(snap.Selected))
	for _, id := range snap.Selected {
		selected[id] = true
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tSEL\tSTATUS\tDATE\tAMOUNT\tDESCRIPTION\t")
	for i, r := range snap.Visible {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
			i+1,
			checkbox(selected[r.ID]),
			strings.ToUpper(r.Status.String()),
			r.Date,
			core.FormatAmount(r.Amount),
			r.Description,
		)
	}
	_ = tw.Flush()
}

// renderRecord writes every field of one record.
func renderRecord(w io.Writer, r core.Record) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  ID\t%s\n", r.ID)
	fmt.Fprintf(tw, "  Date\t%s\n", r.Date)
	fmt.Fprintf(tw, "  Amount\t%s\n", core.FormatAmount(r.Amount))
	fmt.Fprintf(tw, "  Description\t%s\n", r.Description)
	if r.Notes != "" {
		fmt.Fprintf(tw, "  Notes\t%s\n", r.Notes)
	}
	fmt.Fprintf(tw, "  Status\t%s\n", strings.ToUpper(r.Status.String()))
	_ = tw.Flush()
}

// renderReport writes the per-status totals and the grand total.
func renderReport(w io.Writer, rep core.Report) {
	fmt.Fprintln(w, "Report")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "STATUS\tCOUNT\tTOTAL\t")
	for _, t := range rep.ByStatus {
		fmt.Fprintf(tw, "%s\t%d\t%s\t\n", t.Status, t.Count, core.FormatAmount(t.Total))
	}
	fmt.Fprintf(tw, "all\t%d\t%s\t\n", rep.Count, core.FormatAmount(rep.Total))
	_ = tw.Flush()
}

// renderValidation lists the failing fields in a stable order.
func renderValidation(w io.Writer, ve core.ValidationErrors) {
	fields := ve.Fields()
	sort.SliceStable(fields, func(i, j int) bool {
		return fieldRank(fields[i]) < fieldRank(fields[j])
	})
	for _, f := range fields {
		fmt.Fprintf(w, "  ! %s\n", ve[f])
	}
}

func fieldRank(key string) int {
	for i, f := range formFields {
		if f.key == key {
			return i
		}
	}
	return len(formFields)
}
