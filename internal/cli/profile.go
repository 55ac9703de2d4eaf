package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AutoProfilingRUC/autoprofiler/pkg/analyzer"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/collectors"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/collectors/registry"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/domain"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/patterns"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/reporting"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/runner"

	// Built-in collectors register themselves.
	_ "github.com/AutoProfilingRUC/autoprofiler/pkg/collectors/cprofile"
	_ "github.com/AutoProfilingRUC/autoprofiler/pkg/collectors/procstat"
	_ "github.com/AutoProfilingRUC/autoprofiler/pkg/collectors/pyspy"
)

var (
	flagTimeout    time.Duration
	flagDir        string
	flagOutputDir  string
	flagPatterns   string
	flagCollectors []string
	flagInterval   time.Duration
	flagDuration   time.Duration
	flagPython     string
	flagJSON       bool
	flagDemo       bool
)

// demoWorkload is a self-contained CPU-bound script, so the demo produces
// visible call-count and system metrics without any target program.
const demoWorkload = `
import math
import time


def busy_work(duration=3.5):
    end = time.perf_counter() + duration
    total = 0.0
    while time.perf_counter() < end:
        for value in range(8000):
            total += math.sqrt(value % 128)
    return total


print(busy_work())
`

var profileCmd = &cobra.Command{
	Use:   "profile [flags] -- command [args...]",
	Short: "Run a command under the collectors and analyze the results",
	Args:  cobra.ArbitraryArgs,
	RunE:  runProfile,
}

func init() {
	profileCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "kill the target after this duration")
	profileCmd.Flags().StringVar(&flagDir, "dir", "", "working directory for the target")
	profileCmd.Flags().StringVar(&flagOutputDir, "output-dir", ".", "directory for raw collector files")
	profileCmd.Flags().StringVar(&flagPatterns, "patterns", "", "YAML pattern file to match against")
	profileCmd.Flags().StringSliceVar(&flagCollectors, "collector", []string{"procstat"}, "collectors to run")
	profileCmd.Flags().DurationVar(&flagInterval, "interval", 500*time.Millisecond, "procstat sampling interval")
	profileCmd.Flags().DurationVar(&flagDuration, "pyspy-duration", 5*time.Second, "py-spy recording duration")
	profileCmd.Flags().StringVar(&flagPython, "python", "python3", "interpreter used by the cprofile collector")
	profileCmd.Flags().BoolVar(&flagJSON, "json", false, "emit the JSON report instead of Markdown")
	profileCmd.Flags().BoolVar(&flagDemo, "demo", false, "profile a built-in CPU-bound workload instead of a command")
}

// resolveTarget turns the command arguments, or the built-in demo workload,
// into the target to run. The demo defaults to the procstat and cprofile
// collectors at a 250ms interval with a 20s timeout; explicit flags win.
func resolveTarget(cmd *cobra.Command, args []string) (domain.TargetProgram, error) {
	if flagDemo {
		if len(args) > 0 {
			return domain.TargetProgram{}, errors.New("--demo runs a built-in workload and takes no command")
		}
		if !cmd.Flags().Changed("collector") {
			flagCollectors = []string{"procstat", "cprofile"}
		}
		if !cmd.Flags().Changed("interval") {
			flagInterval = 250 * time.Millisecond
		}
		if !cmd.Flags().Changed("timeout") {
			flagTimeout = 20 * time.Second
		}
		// The workload goes through a script file so the cprofile wrap can
		// profile it; `python -m cProfile` cannot run inline -c programs.
		script := filepath.Join(os.TempDir(), fmt.Sprintf("autoprofiler_demo_%d.py", os.Getpid()))
		if err := os.WriteFile(script, []byte(demoWorkload), 0o644); err != nil {
			return domain.TargetProgram{}, fmt.Errorf("write demo workload: %w", err)
		}
		return domain.TargetProgram{
			Command: []string{flagPython, script},
			Dir:     flagDir,
			Timeout: flagTimeout,
		}, nil
	}

	if len(args) == 0 {
		return domain.TargetProgram{}, errors.New("a command is required unless --demo is set")
	}
	return domain.TargetProgram{
		Command: args,
		Dir:     flagDir,
		Timeout: flagTimeout,
	}, nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	target, err := resolveTarget(cmd, args)
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cols, err := registry.Build(flagCollectors, collectors.Options{
		OutputDir:      flagOutputDir,
		SampleInterval: flagInterval,
		SampleDuration: flagDuration,
		Python:         flagPython,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	var rules []patterns.Rule
	if flagPatterns != "" {
		loaded, ruleErrs, err := patterns.Load(flagPatterns)
		if err != nil {
			return err
		}
		for _, ruleErr := range ruleErrs {
			logger.Warn("Skipping malformed pattern rule", zap.Error(ruleErr))
		}
		rules = loaded
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := runner.New(logger).Run(ctx, target, cols)
	if err != nil {
		return err
	}

	session.AttachFindings(analyzer.New(logger, rules).Analyze(session.Artifacts))

	if flagJSON {
		out, err := reporting.RenderJSON(session)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), reporting.RenderMarkdown(session))
	return nil
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
