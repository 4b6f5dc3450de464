package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/cablesim/internal/automation"
	"github.com/san-kum/cablesim/internal/config"
	"github.com/san-kum/cablesim/internal/experiment"
	"github.com/san-kum/cablesim/internal/export"
	"github.com/san-kum/cablesim/internal/fixture"
	"github.com/san-kum/cablesim/internal/report"
	"github.com/san-kum/cablesim/internal/sim"
	"github.com/san-kum/cablesim/internal/storage"
	"github.com/san-kum/cablesim/internal/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// session bundles what every simulation command needs.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	exp    *experiment.Experiment
}

func newSession(cmd *cobra.Command, args []string) (*session, error) {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	exp, err := experiment.New(cfg, experiment.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, exp: exp}, nil
}

func openStore(ctx context.Context, kind, path string) (storage.Store, error) {
	st, err := storage.NewStore(kind, path)
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	res, err := s.exp.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Print(report.RunSummary(s.cfg.Model, res))

	if plotProbe != "" {
		trace, ok := res.Traces[plotProbe]
		if !ok {
			return fmt.Errorf("no probe named %q", plotProbe)
		}
		fmt.Println(report.TracePlot(trace, fmt.Sprintf("%s voltage (mV), %g ms", plotProbe, s.cfg.Duration)))
	}

	if noStore {
		return nil
	}
	st, err := openStore(ctx, s.cfg.Store.Kind, s.cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.Save(ctx, storage.NewMetadata(s.cfg.Model, s.cfg.SimConfig(), res), res)
	if err != nil {
		return err
	}
	s.logger.Info("run saved", zap.String("id", runID), zap.String("store", s.cfg.Store.Kind))
	fmt.Println(report.Subtle.Render("saved " + runID))
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	var results []*sim.Result
	if useTUI {
		results, err = sweepWithProgress(ctx, s)
	} else {
		results, err = s.exp.Sweep(ctx, func(n int, res *sim.Result, err error) {
			if err != nil {
				s.logger.Warn("run failed", zap.Int("compartments", n), zap.Error(err))
				return
			}
			s.logger.Info("run finished", zap.Int("compartments", n), zap.Int("steps", res.StepsTaken))
		})
	}
	if err != nil {
		return err
	}

	counts := s.cfg.Counts()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "NSEG\tCOMPARTMENTS")
	for _, p := range s.cfg.Probes {
		fmt.Fprintf(w, "\t%s", p.Name)
	}
	fmt.Fprintln(w)
	for i, res := range results {
		fmt.Fprintf(w, "%d\t%d", counts[i], res.Compartments)
		for _, p := range s.cfg.Probes {
			fmt.Fprintf(w, "\t%d spikes", len(res.Spikes[p.Name]))
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if noStore {
		return nil
	}
	st, err := openStore(ctx, s.cfg.Store.Kind, s.cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()
	for _, res := range results {
		runID, err := st.Save(ctx, storage.NewMetadata(s.cfg.Model, s.cfg.SimConfig(), res), res)
		if err != nil {
			return err
		}
		s.logger.Debug("run saved", zap.String("id", runID), zap.Int("compartments", res.Compartments))
	}
	return nil
}

func sweepWithProgress(ctx context.Context, s *session) ([]*sim.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	trace := ""
	if len(s.cfg.Probes) > 0 {
		trace = s.cfg.Probes[0].Name
	}
	model := report.NewSweepModel(fmt.Sprintf("%s sweep", s.cfg.Model), trace, s.cfg.Counts(), cancel)
	p := tea.NewProgram(model)

	var results []*sim.Result
	go func() {
		var sweepErr error
		results, sweepErr = s.exp.Sweep(ctx, func(n int, res *sim.Result, err error) {
			msg := report.RunDoneMsg{Compartments: n, Err: err}
			if res != nil && trace != "" {
				msg.Spikes = len(res.Spikes[trace])
			}
			p.Send(msg)
		})
		p.Send(report.SweepDoneMsg{Err: sweepErr})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	if m, ok := final.(report.SweepModel); ok && m.Err() != nil {
		return nil, m.Err()
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return results, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	runs, err := fixture.Load(s.cfg.Fixture)
	if errors.Is(err, fixture.ErrEmpty) {
		s.logger.Warn("reference fixture unavailable", zap.String("path", s.cfg.Fixture), zap.Error(err))
		fmt.Printf("%s %s\n", report.Status(nil, true), report.Subtle.Render("no reference data at "+s.cfg.Fixture))
		return nil
	}
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	outcomes, err := s.exp.Validate(ctx, runs, func(n int, _ *sim.Result, err error) {
		s.logger.Info("resolution compared", zap.Int("compartments", n), zap.Error(err))
	})
	if err != nil {
		return err
	}

	fmt.Println(report.ConvergenceTable(outcomes))
	for _, p := range s.cfg.Probes {
		fmt.Println(report.ErrorPlot(outcomes, p.Name))
	}

	convErr := validation.CheckConvergence(outcomes)
	accErr := validation.CheckAccuracy(outcomes, validation.DefaultAccuracy)
	fmt.Printf("%-12s %s\n", "convergence", report.Status(convErr, false))
	fmt.Printf("%-12s %s\n", "accuracy", report.Status(accErr, false))
	return errors.Join(convErr, accErr)
}

func runBaseline(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	path := outPath
	if path == "" {
		path = s.cfg.Fixture
	}
	runs, err := s.exp.Baseline(ctx, s.cfg.Counts())
	if err != nil {
		return err
	}
	if err := fixture.Write(path, runs); err != nil {
		return err
	}
	s.logger.Info("fixture written", zap.String("path", filepath.Clean(path)), zap.Int("runs", len(runs)))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, err := openStore(ctx, storeKind, dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(ctx)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tNSEG\tDURATION\tDT\tSOMA SPIKES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.1fms\t%.4fms\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Compartments,
			run.Duration,
			run.Dt,
			len(run.Spikes["soma"]),
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	runID := args[0]

	st, err := openStore(ctx, storeKind, dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(ctx, runID)
	if err != nil {
		return err
	}
	traces, err := st.LoadTraces(ctx, runID)
	if err != nil {
		return err
	}

	if asJSON {
		return storage.ExportJSON(os.Stdout, *meta, traces)
	}

	if svgPath != "" {
		series := make([]export.Series, len(traces.Names))
		for i, name := range traces.Names {
			series[i] = export.Series{Name: name, Values: traces.Values[i]}
		}
		svg := export.TracesToSVG(traces.Times, series, 800, 400)
		if svg == "" {
			return fmt.Errorf("run %s has no plottable traces", runID)
		}
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Println(report.Subtle.Render("wrote " + svgPath))
		return nil
	}

	fmt.Println(report.Title.Render(fmt.Sprintf("%s  %s  %d compartments", meta.ID, meta.Model, meta.Compartments)))
	trace, ok := traces.Trace(showProbe)
	if !ok {
		return fmt.Errorf("run %s has no probe %q (have %v)", runID, showProbe, traces.Names)
	}
	caption := fmt.Sprintf("%s voltage (mV), %d spikes", showProbe, len(meta.Spikes[showProbe]))
	fmt.Println(report.TracePlot(trace, caption))
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	base, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}
	logger, err := newLogger(base.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunScenario(ctx, scenario, base, logger)
	for _, r := range results {
		fmt.Print(report.RunSummary(r.Name, r.Result))
	}
	if err != nil {
		return err
	}

	if noStore {
		return nil
	}
	st, err := openStore(ctx, base.Store.Kind, base.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()
	for _, r := range results {
		runID, err := st.Save(ctx, storage.NewMetadata(r.Config.Model, r.Config.SimConfig(), r.Result), r.Result)
		if err != nil {
			return err
		}
		logger.Info("run saved", zap.String("step", r.Name), zap.String("id", runID))
	}
	return nil
}

func runFiringCurve(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	sweep := &automation.ParameterSweep{
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
		Probe:     sweepProbe,
		Workers:   s.cfg.Workers,
	}
	results, err := automation.RunSweep(ctx, sweep, s.cfg, s.logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSPIKES\tRATE (Hz)\tPEAK (mV)\n", sweepParam)
	rates := make([]float64, len(results))
	for i, r := range results {
		rates[i] = r.Rate
		fmt.Fprintf(w, "%g\t%d\t%.1f\t%.1f\n", r.ParamValue, len(r.Spikes), r.Rate, r.Peak)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if first, ok := automation.FirstFiring(results); ok {
		fmt.Println(report.MetricLabel.Render("first firing ") + report.MetricValue.Render(fmt.Sprintf("%s = %g", sweepParam, first)))
	} else {
		fmt.Println(report.Subtle.Render("no spikes in the swept range"))
	}
	if len(rates) > 1 {
		fmt.Println(report.TracePlot(rates, fmt.Sprintf("%s rate (Hz) against %s", sweepProbe, sweepParam)))
	}
	return nil
}
