package reporter

import (
	"fmt"
	"os"
	"text/tabwriter"
)

type TableReporter struct{}

func (r *TableReporter) Report(entries []Entry) error {
	if len(entries) == 0 {
		fmt.Println("No releases resolved.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMPONENT\tVERSION\tDATE\tCOMMIT\tPREDECESSOR\tTICKETS")
	fmt.Fprintln(w, "---------\t-------\t----\t------\t-----------\t-------")

	for _, e := range entries {
		predecessor := e.Predecessor
		if predecessor == "" {
			predecessor = "(initial commit)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			e.Component,
			e.Version,
			e.Date.Format("2006-01-02"),
			shortID(e.CommitID),
			predecessor,
			e.Tickets,
		)
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
