package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/daekit/internal/config"
	"github.com/san-kum/daekit/internal/integrator"
	"github.com/san-kum/daekit/internal/registry"
	"github.com/san-kum/daekit/internal/store"
	"github.com/san-kum/daekit/internal/viz"
)

var (
	dataDir    string
	configFile string

	scheme     string
	rootfinder string
	t0         float64
	tf         float64
	steps      int
	maxIter    int
	tol        float64
	stats      bool
	save       bool
	noPlot     bool

	x0 []float64
	z0 []float64
	p  []float64
)

func main() {
	reg := registry.New()

	rootCmd := &cobra.Command{
		Use:   "daekit",
		Short: "DAE integration with forward and adjoint sensitivities",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".daekit", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [problem]",
		Short: "integrate a problem over the horizon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProblem(reg, args[0])
		},
	}
	runCmd.Flags().StringVar(&scheme, "scheme", config.DefaultScheme, "stepping scheme")
	runCmd.Flags().StringVar(&rootfinder, "rootfinder", config.DefaultRootfinder, "rootfinder for implicit schemes")
	runCmd.Flags().Float64Var(&t0, "t0", config.DefaultT0, "start of the horizon")
	runCmd.Flags().Float64Var(&tf, "tf", config.DefaultTF, "end of the horizon")
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultFiniteElements, "number of fixed steps")
	runCmd.Flags().IntVar(&maxIter, "max-iter", 0, "rootfinder iteration budget")
	runCmd.Flags().Float64Var(&tol, "tol", 0, "rootfinder tolerance")
	runCmd.Flags().BoolVar(&stats, "stats", false, "print evaluation statistics")
	runCmd.Flags().BoolVar(&save, "save", false, "persist the run")
	runCmd.Flags().BoolVar(&noPlot, "no-plot", false, "skip terminal plots")
	runCmd.Flags().Float64SliceVar(&x0, "x0", nil, "initial state override")
	runCmd.Flags().Float64SliceVar(&z0, "z0", nil, "algebraic guess override")
	runCmd.Flags().Float64SliceVar(&p, "p", nil, "parameter override")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	sensCmd := &cobra.Command{
		Use:   "sens [problem]",
		Short: "forward parameter sensitivities of the terminal state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSensitivities(reg, args[0])
		},
	}
	sensCmd.Flags().StringVar(&scheme, "scheme", config.DefaultScheme, "stepping scheme")
	sensCmd.Flags().Float64Var(&t0, "t0", config.DefaultT0, "start of the horizon")
	sensCmd.Flags().Float64Var(&tf, "tf", config.DefaultTF, "end of the horizon")
	sensCmd.Flags().IntVar(&steps, "steps", config.DefaultFiniteElements, "number of fixed steps")
	sensCmd.Flags().Float64SliceVar(&x0, "x0", nil, "initial state override")
	sensCmd.Flags().Float64SliceVar(&p, "p", nil, "parameter override")

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list problems, schemes and rootfinders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCatalog(reg)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns()
		},
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return plotRun(args[0])
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportRun(args[0])
		},
	}

	rootCmd.AddCommand(runCmd, sensCmd, problemsCmd, listCmd, plotCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildConfig(problem string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.Problem = problem
	cfg.Scheme = scheme
	cfg.Rootfinder = rootfinder
	cfg.T0, cfg.TF = t0, tf
	cfg.FiniteElements = steps
	cfg.MaxIter = maxIter
	cfg.Tol = tol
	cfg.PrintStats = stats
	if x0 != nil {
		cfg.X0 = x0
	}
	if z0 != nil {
		cfg.Z0 = z0
	}
	if p != nil {
		cfg.P = p
	}
	return cfg, nil
}

func runProblem(reg *registry.Registry, name string) error {
	cfg, err := buildConfig(name)
	if err != nil {
		return err
	}
	prob, err := reg.Problem(cfg.Problem)
	if err != nil {
		return err
	}

	opts := cfg.Options()
	// One output column per step makes a plottable trajectory.
	opts.Grid = linspace(cfg.T0, cfg.TF, cfg.FiniteElements+1)
	opts.OutputT0 = true

	ig, err := reg.NewIntegrator(cfg.Scheme, prob.System, opts)
	if err != nil {
		return err
	}

	in := &integrator.Input{
		X0:  firstNonNil(cfg.X0, prob.X0),
		Z0:  firstNonNil(cfg.Z0, prob.Z0),
		P:   firstNonNil(cfg.P, prob.P),
		RX0: firstNonNil(cfg.RX0, prob.RX0),
		RP:  firstNonNil(cfg.RP, prob.RP),
	}
	out := ig.NewOutput()
	m := ig.NewMemory()
	if err := ig.Eval(m, in, out); err != nil {
		return err
	}

	d := ig.Dims()
	grid := ig.Grid()
	ntout := ig.NumOutputs()

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s (%s, %d steps)", prob.Name, cfg.Scheme, cfg.FiniteElements)))
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for i := 0; i < d.NX; i++ {
		fmt.Fprintf(tw, "xf[%d]\t%s\n", i, viz.Value.Render(fmt.Sprintf("%.8g", out.XF[(ntout-1)*d.NX+i])))
	}
	for i := 0; i < d.NQ; i++ {
		fmt.Fprintf(tw, "qf[%d]\t%s\n", i, viz.Value.Render(fmt.Sprintf("%.8g", out.QF[(ntout-1)*d.NQ+i])))
	}
	for i := 0; i < d.NRX; i++ {
		fmt.Fprintf(tw, "rxf[%d]\t%s\n", i, viz.Value.Render(fmt.Sprintf("%.8g", out.RXF[i])))
	}
	for i := 0; i < d.NRQ; i++ {
		fmt.Fprintf(tw, "rqf[%d]\t%s\n", i, viz.Value.Render(fmt.Sprintf("%.8g", out.RQF[i])))
	}
	tw.Flush()
	fmt.Println()

	// Row-per-time trajectory for plotting and persistence.
	states := make([][]float64, ntout)
	for k := 0; k < ntout; k++ {
		row := make([]float64, d.NX)
		copy(row, out.XF[k*d.NX:(k+1)*d.NX])
		states[k] = row
	}

	if !noPlot {
		for j := 0; j < d.NX; j++ {
			data := make([]float64, ntout)
			for k := 0; k < ntout; k++ {
				data[k] = states[k][j]
			}
			viz.PlotSeries(os.Stdout, fmt.Sprintf("x%d vs time", j), data)
		}
	}

	if save {
		st := store.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		terminal := make(map[string]float64)
		for i := 0; i < d.NQ; i++ {
			terminal[fmt.Sprintf("qf%d", i)] = out.QF[(ntout-1)*d.NQ+i]
		}
		for i := 0; i < d.NRQ; i++ {
			terminal[fmt.Sprintf("rqf%d", i)] = out.RQF[i]
		}
		runID, err := st.Save(store.RunMetadata{
			Problem:        prob.Name,
			Scheme:         cfg.Scheme,
			T0:             cfg.T0,
			TF:             cfg.TF,
			FiniteElements: cfg.FiniteElements,
			Terminal:       terminal,
		}, grid, states)
		if err != nil {
			return err
		}
		fmt.Printf("saved run %s\n", runID)
	}
	return nil
}

func runSensitivities(reg *registry.Registry, name string) error {
	cfg, err := buildConfig(name)
	if err != nil {
		return err
	}
	prob, err := reg.Problem(cfg.Problem)
	if err != nil {
		return err
	}
	ig, err := reg.NewIntegrator(cfg.Scheme, prob.System, cfg.Options())
	if err != nil {
		return err
	}

	d := ig.Dims()
	if d.NP == 0 {
		return fmt.Errorf("problem %s has no parameters", prob.Name)
	}

	fwd, off, err := ig.ForwardDerivative(d.NP)
	if err != nil {
		return err
	}

	// Block 0 carries the nominal inputs; block i+1 seeds parameter i.
	augX0 := make([]float64, off.X[len(off.X)-1])
	copy(augX0, firstNonNil(cfg.X0, prob.X0))
	augZ0 := make([]float64, off.Z[len(off.Z)-1])
	if len(off.Z) > 1 {
		copy(augZ0, firstNonNil(cfg.Z0, prob.Z0))
	}
	augP := make([]float64, off.P[len(off.P)-1])
	copy(augP, firstNonNil(cfg.P, prob.P))
	for i := 0; i < d.NP; i++ {
		augP[off.P[i+1]+i] = 1
	}

	out := fwd.NewOutput()
	m := fwd.NewMemory()
	err = fwd.Eval(m, &integrator.Input{X0: augX0, Z0: augZ0, P: augP}, out)
	if err != nil {
		return err
	}

	// Final output column only.
	nxAug := off.X[len(off.X)-1]
	col := out.XF[(fwd.NumOutputs()-1)*nxAug:]

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s: d xf / d p", prob.Name)))
	fmt.Println()
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for i := 0; i < d.NP; i++ {
		block := col[off.X[i+1]:off.X[i+2]]
		for j, v := range block {
			fmt.Fprintf(tw, "d xf[%d] / d p[%d]\t%s\n", j, i, viz.Value.Render(fmt.Sprintf("%.8g", v)))
		}
	}
	tw.Flush()
	return nil
}

func listCatalog(reg *registry.Registry) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "problems:")
	for _, name := range reg.ListProblems() {
		prob, err := reg.Problem(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "  %s\t%s\n", name, prob.Description)
	}
	fmt.Fprintln(tw, "schemes:")
	for _, name := range reg.ListSchemes() {
		fmt.Fprintf(tw, "  %s\n", name)
	}
	fmt.Fprintln(tw, "rootfinders:")
	for _, name := range reg.ListRootfinders() {
		fmt.Fprintf(tw, "  %s\n", name)
	}
	return tw.Flush()
}

func listRuns() error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no stored runs")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "id\tproblem\tscheme\tsteps\thorizon")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t[%g, %g]\n",
			r.ID, r.Problem, r.Scheme, r.FiniteElements, r.T0, r.TF)
	}
	return tw.Flush()
}

func plotRun(runID string) error {
	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	_, states, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	viz.PlotTrajectory(os.Stdout, fmt.Sprintf("%s (%s)", meta.Problem, meta.Scheme), states)
	return nil
}

func exportRun(runID string) error {
	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func linspace(a, b float64, n int) []float64 {
	out := make([]float64, n)
	h := (b - a) / float64(n-1)
	for i := range out {
		out[i] = a + float64(i)*h
	}
	out[n-1] = b
	return out
}

func firstNonNil(a, b []float64) []float64 {
	if len(a) > 0 {
		return a
	}
	return b
}
