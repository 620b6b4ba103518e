// Package root implements the wren command line interface.
package root

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wrensat/wren/solver"
)

type options struct {
	certify    bool
	quiet      bool
	noColor    bool
	logFile    string
	timeout    int
	outDir     string
	proofFile  string
	resultFile string

	cbt int
	cdr float64
	ii  int
	ecl int
	evl int
	evo int
	ral int
	ras int
	rat float64
	rll int
	rls int
	rlt float64
	rs  int
	vdr float64
}

// Exit codes, following the SAT competition convention.
const (
	exitSat   = 10
	exitUnsat = 20
	exitOK    = 0
	exitError = 1
)

// Execute runs the root command and returns the process exit code.
func Execute() int {
	code := exitOK
	cmd := NewRootCmd(&code)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	return code
}

// NewRootCmd builds the wren command. The solver's exit code is written to
// *code: 10 for SAT, 20 for UNSAT, 0 after a successful result-file check
// (-r), 1 on error.
func NewRootCmd(code *int) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "wren <file.cnf>",
		Short:         "wren is a CDCL SAT solver",
		Long:          "wren decides the satisfiability of CNF formulas, emitting a model on SAT and optionally a DRAT refutation trace on UNSAT.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := run(opts, args[0], cmd.OutOrStdout())
			*code = c
			return err
		},
	}
	fs := cmd.Flags()
	fs.BoolVarP(&opts.certify, "certify", "c", false, "emit a DRAT proof trace")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors")
	fs.BoolVarP(&opts.noColor, "no-color", "C", false, "disable colored log output")
	fs.StringVarP(&opts.logFile, "log", "l", "", "also log to the given file")
	fs.IntVarP(&opts.timeout, "timeout", "t", 5000, "CPU budget in seconds")
	fs.StringVarP(&opts.outDir, "out-dir", "o", ".", "directory for the proof file")
	fs.StringVarP(&opts.proofFile, "proof", "p", "proof.drat", "name of the proof file")
	fs.StringVarP(&opts.resultFile, "result", "r", "", "verify the given result file against the formula instead of solving")
	fs.IntVar(&opts.cbt, "cbt", 100, "chronological backtracking threshold")
	fs.Float64Var(&opts.cdr, "cdr", 0.95, "clause rank decay rate")
	fs.IntVar(&opts.ii, "ii", 10000, "conflicts between two inprocessor runs")
	fs.IntVar(&opts.ecl, "ecl", 18, "max length of an elimination resolvent")
	fs.IntVar(&opts.evl, "evl", 0, "clause growth allowed by variable elimination")
	fs.IntVar(&opts.evo, "evo", 20000, "occurrence cap for variable elimination")
	fs.IntVar(&opts.ral, "ral", 24, "fast assignment EMA window")
	fs.IntVar(&opts.ras, "ras", 8192, "slow assignment EMA window")
	fs.Float64Var(&opts.rat, "rat", 0.60, "restart blocking threshold on trail growth")
	fs.IntVar(&opts.rll, "rll", 8, "fast LBD EMA window")
	fs.IntVar(&opts.rls, "rls", 8192, "slow LBD EMA window")
	fs.Float64Var(&opts.rlt, "rlt", 1.60, "restart forcing threshold on the LBD trend")
	fs.IntVar(&opts.rs, "rs", 2, "restart step, in conflicts")
	fs.Float64Var(&opts.vdr, "vdr", 0.94, "variable reward decay rate")
	return cmd
}

func (o *options) config() solver.Config {
	cfg := solver.DefaultConfig()
	cfg.Timeout = time.Duration(o.timeout) * time.Second
	cfg.ChronoBTThreshold = o.cbt
	cfg.ClauseDecayRate = o.cdr
	cfg.InprocessInterval = o.ii
	cfg.ElimClauseLim = o.ecl
	cfg.ElimGrowLim = o.evl
	cfg.ElimVarOcc = o.evo
	cfg.EmaAsgFast = o.ral
	cfg.EmaAsgSlow = o.ras
	cfg.RestartAsgRate = o.rat
	cfg.EmaLbdFast = o.rll
	cfg.EmaLbdSlow = o.rls
	cfg.RestartLbdRate = o.rlt
	cfg.RestartStep = o.rs
	cfg.VarDecayRate = o.vdr
	cfg.Certify = o.certify
	return cfg
}

func (o *options) logger() (*logrus.Logger, func(), error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: o.noColor})
	if o.quiet {
		logger.SetLevel(logrus.ErrorLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}
	cleanup := func() {}
	if o.logFile != "" {
		f, err := os.Create(o.logFile)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "cannot open log file %q", o.logFile)
		}
		logger.AddHook(&fileHook{w: f, formatter: &logrus.TextFormatter{DisableColors: true}})
		cleanup = func() { f.Close() }
	}
	return logger, cleanup, nil
}

// A fileHook duplicates every log entry to a file, without colors.
type fileHook struct {
	w         io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *fileHook) Fire(e *logrus.Entry) error {
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = h.w.Write(b)
	return err
}

func run(opts *options, path string, out io.Writer) (int, error) {
	logger, cleanup, err := opts.logger()
	if err != nil {
		return exitError, err
	}
	defer cleanup()
	f, err := os.Open(path)
	if err != nil {
		return exitError, errors.Wrapf(err, "cannot open %q", path)
	}
	pb, err := solver.ParseCNF(f)
	f.Close()
	if err != nil {
		return exitError, errors.Wrapf(err, "cannot parse %q", path)
	}
	logger.WithFields(logrus.Fields{
		"vars":    pb.NbVars,
		"clauses": len(pb.Clauses),
		"units":   len(pb.Units),
	}).Info("parsed formula")
	if opts.resultFile != "" {
		return verify(pb, opts.resultFile, logger)
	}
	return solve(pb, opts, logger, out)
}

// verify checks a result file against the formula, for the -r flag.
func verify(pb *solver.Problem, path string, logger *logrus.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return exitError, errors.Wrapf(err, "cannot open result file %q", path)
	}
	defer f.Close()
	status, model, err := solver.ParseResult(f)
	if err != nil {
		return exitError, errors.Wrapf(err, "cannot parse result file %q", path)
	}
	if status != solver.Sat {
		logger.WithField("status", status.String()).Info("nothing to verify: result is not SAT")
		return exitOK, nil
	}
	if err := pb.Validate(model); err != nil {
		return exitError, errors.Wrap(err, "the model does not satisfy the formula")
	}
	logger.Info("the model satisfies every clause")
	return exitOK, nil
}

func solve(pb *solver.Problem, opts *options, logger *logrus.Logger, out io.Writer) (int, error) {
	start := time.Now()
	s, err := solver.New(pb, opts.config())
	if err != nil {
		return exitError, err
	}
	s.SetLogger(logger)
	var proof *os.File
	if opts.certify {
		proofPath := filepath.Join(opts.outDir, opts.proofFile)
		proof, err = os.Create(proofPath)
		if err != nil {
			return exitError, errors.Wrapf(err, "cannot create proof file %q", proofPath)
		}
		defer proof.Close()
		s.Certify(proof)
	}
	status := s.Solve()
	logger.WithFields(logrus.Fields{
		"status":    status.String(),
		"conflicts": s.Stats.NbConflicts,
		"decisions": s.Stats.NbDecisions,
		"restarts":  s.Stats.NbRestarts,
		"time":      time.Since(start),
	}).Info("search finished")
	var model []bool
	if status == solver.Sat {
		model = s.Model()
	}
	if err := solver.WriteResult(out, status, model); err != nil {
		return exitError, err
	}
	if err := s.CloseProof(); err != nil {
		return exitError, errors.Wrap(err, "cannot write proof")
	}
	switch status {
	case solver.Sat:
		return exitSat, nil
	case solver.Unsat:
		return exitUnsat, nil
	default:
		return exitError, s.Err()
	}
}
