package integrator

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Stats counts the work done by one evaluation.
type Stats struct {
	FwdSteps        int
	BwdSteps        int
	OracleCalls     int
	RootfinderCalls int
	RootfinderIters int
}

func (s *Stats) reset() { *s = Stats{} }

// Print writes a summary table.
func (s *Stats) Print(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "forward steps\t%d\n", s.FwdSteps)
	fmt.Fprintf(tw, "backward steps\t%d\n", s.BwdSteps)
	fmt.Fprintf(tw, "oracle calls\t%d\n", s.OracleCalls)
	fmt.Fprintf(tw, "rootfinder calls\t%d\n", s.RootfinderCalls)
	fmt.Fprintf(tw, "rootfinder iterations\t%d\n", s.RootfinderIters)
	tw.Flush()
}
