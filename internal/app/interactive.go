package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vk/bremsim/internal/config"
	"github.com/vk/bremsim/internal/fsutil"
	"github.com/vk/bremsim/internal/units"
)

// Prompt is printed before every interactive command.
const Prompt = "bremsim> "

const helpText = `Commands:
  beamOn <n>     run n events
  seed <n>       seed later runs with n (0 derives a seed per run)
  workers <n>    transport events on n workers
  verbose <n>    hit collection verbosity (2 prints per-event summaries)
  progress <n>   print "End of event" every n events (0 disables)
  status         show the detector, spectrum and run counters
  help           show this text
  exit, quit     close the session
`

// runInteractive executes InteractiveMacro if present and then reads
// commands from the input until EOF or exit.
func (a *App) runInteractive(ctx context.Context) error {
	model := a.interactiveModel(ctx)

	s, err := a.open(ctx, model)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(ctx); err != nil {
			a.logger.Error("Session close failed.", "error", err)
		}
	}()

	for _, r := range model.Runs {
		if _, err := s.sim.BeamOn(ctx, r); err != nil {
			fmt.Fprintf(a.outW, "error: %v\n", err)
		}
	}

	sh := &shell{
		app:     a,
		session: s,
		verbose: model.Detector.Verbose,
		run:     config.NewRun("interactive"),
	}
	return sh.loop(ctx, a.in)
}

// interactiveModel loads InteractiveMacro from the session directory. A
// missing macro means defaults; a broken one is reported and replaced by
// defaults.
func (a *App) interactiveModel(ctx context.Context) *config.Model {
	dir := a.config.Dir
	if dir == "" {
		dir = "."
	}
	fsys, ok := os.DirFS(dir).(fs.StatFS)
	if !ok || !fsutil.Exists(fsys, InteractiveMacro) {
		a.logger.Debug("No interactive macro found, using defaults.", "dir", dir)
		return config.Default()
	}

	path := filepath.Join(dir, InteractiveMacro)
	model, err := a.loaders.Load(ctx, path)
	if err != nil {
		a.logger.Error("Failed to load interactive macro, using defaults.", "path", path, "error", err)
		fmt.Fprintf(a.outW, "error: %v\n", err)
		return config.Default()
	}
	a.logger.Info("Macro loaded.", "path", path, "runs", len(model.Runs))
	return model
}

// shell holds the interactive state between commands.
type shell struct {
	app     *App
	session *session
	run     *config.Run
	verbose int
	beamOns int
}

func (sh *shell) loop(ctx context.Context, in io.Reader) error {
	out := sh.app.outW
	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		done, err := sh.execute(ctx, fields[0], fields[1:])
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if done {
			return nil
		}
	}
}

// execute runs one command and reports whether the session should end.
func (sh *shell) execute(ctx context.Context, cmd string, args []string) (bool, error) {
	out := sh.app.outW
	switch cmd {
	case "exit", "quit":
		return true, nil
	case "help":
		fmt.Fprint(out, helpText)
	case "status":
		sh.printStatus()
	case "beamOn":
		n, err := intArg(cmd, args)
		if err != nil {
			return false, err
		}
		sh.beamOns++
		r := *sh.run
		r.Name = fmt.Sprintf("beamOn-%d", sh.beamOns)
		r.Events = n
		if _, err := sh.session.sim.BeamOn(ctx, &r); err != nil {
			return false, err
		}
	case "seed":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: seed <n>")
		}
		seed, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return false, fmt.Errorf("seed: %q is not a non-negative integer", args[0])
		}
		sh.run.Seed = seed
	case "workers":
		n, err := intArg(cmd, args)
		if err != nil {
			return false, err
		}
		sh.run.Workers = n
	case "verbose":
		n, err := intArg(cmd, args)
		if err != nil {
			return false, err
		}
		sh.verbose = n
		sh.session.sim.SetVerbose(n)
	case "progress":
		n, err := intArg(cmd, args)
		if err != nil {
			return false, err
		}
		sh.run.PrintProgress = n
	default:
		return false, fmt.Errorf("unknown command %q, type help for a list", cmd)
	}
	return false, nil
}

func (sh *shell) printStatus() {
	st := sh.session.sim.Status()
	state := "inactive"
	if st.HitLogActive {
		state = "active"
	}
	fmt.Fprintf(sh.app.outW,
		"material:         %s\nthickness:        %s mm\nspectrum entries: %d\nhit log:          %s (%s)\nhits recorded:    %d\nruns:             %d\nevents:           %d\nseed:             %d\nworkers:          %d\nverbose:          %d\nprogress:         %d\n",
		st.Material, units.FormatFloat(st.Thickness), st.SpectrumEntries, st.HitLog, state,
		st.HitsRecorded, st.Runs, st.Events, sh.run.Seed, sh.run.Workers, sh.verbose, sh.run.PrintProgress)
}

func intArg(cmd string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s <n>", cmd)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: %q is not a non-negative integer", cmd, args[0])
	}
	return n, nil
}
