package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/yubzen/maestro/internal/config"
	"github.com/yubzen/maestro/internal/log"
	"github.com/yubzen/maestro/internal/mutation"
	"github.com/yubzen/maestro/internal/state"
	"github.com/yubzen/maestro/internal/timeline"
	"github.com/yubzen/maestro/internal/tools"
	"github.com/yubzen/maestro/internal/tui"
)

type runtimeDeps struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       *config.Config
	db        *state.DB
	session   *state.Session
	surface   *tui.ProgramSurface
	pipeline  *timeline.Pipeline
	states    *mutation.StateManager
	confirmer *tui.ModalConfirmer
	runner    *mutation.Runner
	watcher   *config.Watcher
}

func (r *runtimeDeps) Close() {
	if r == nil {
		return
	}
	if r.cancel != nil {
		r.cancel()
	}
	if r.db != nil {
		_ = r.db.Close()
	}
}

func restoreTerminalState() {
	fmt.Fprint(os.Stderr, "\x1b[?25h\x1b[0m")
}

func bootstrapRuntime(cfg *config.Config) (*runtimeDeps, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	workingDir := strings.TrimSpace(cfg.Defaults.WorkingDir)
	if workingDir == "" {
		workingDir = "."
	}
	if _, err := os.Stat(workingDir); err != nil {
		return nil, fmt.Errorf("invalid working directory %q: %w", workingDir, err)
	}

	rt := &runtimeDeps{cfg: cfg}
	rt.ctx, rt.cancel = context.WithCancel(context.Background())

	db, err := state.Connect(cfg.Session.Transcript)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.db = db

	session, err := db.CreateSession(rt.ctx, workingDir, cfg.Session.AutoApprove)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.session = session

	recorder := db.Recorder(session.ID)

	rt.surface = tui.NewProgramSurface()
	rt.pipeline = timeline.NewPipeline(rt.surface, timeline.Options{
		Throttle:       cfg.Throttle(),
		DedupWindow:    cfg.DedupWindow(),
		DedupCacheSize: cfg.Dedup.CacheSize,
		DedupCacheTTL:  cfg.DedupTTL(),
		Debug:          cfg.Session.Debug,
	}, timeline.WithSink(recorder))

	rt.states = mutation.NewStateManager()
	rt.states.SetAutoApprove(cfg.Session.AutoApprove)

	rt.confirmer = tui.NewModalConfirmer()
	executor := tools.NewExecutor(workingDir, tools.WithDiffEmitter(rt.pipeline))
	runnerOpts := []mutation.RunnerOption{
		mutation.WithEmitter(rt.pipeline),
		mutation.WithReportSink(recorder),
	}
	if cfg.Session.StopOnError {
		runnerOpts = append(runnerOpts, mutation.WithStopOnError())
	}
	rt.runner = mutation.NewRunner(rt.states, executor, rt.confirmer, runnerOpts...)

	return rt, nil
}

func main() {
	var debug bool
	var autoApprove bool
	var workDir string

	rootCmd := &cobra.Command{
		Use:   "maestro",
		Short: "Terminal assistant with reviewable workspace mutations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load("")
			if err != nil {
				return err
			}
			if debug {
				cfg.Session.Debug = true
				log.SetLevel(log.LevelDebug)
			}
			if autoApprove {
				cfg.Session.AutoApprove = true
			}
			if workDir != "" {
				cfg.Defaults.WorkingDir = workDir
			}

			rt, err := bootstrapRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			app := tui.NewAppModel(cfg, rt.pipeline, rt.states, rt.confirmer, rt.surface)
			p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(rt.ctx))

			rt.surface.Attach(p.Send)
			rt.confirmer.Attach(p.Send)
			rt.states.OnStateChange(func(s mutation.State, _ *mutation.Plan) {
				p.Send(tui.StateChangedMsg{State: s})
			})

			rt.watcher = config.NewWatcher("", func(next *config.Config) {
				p.Send(tui.SessionPolicyMsg{
					AutoApprove: next.Session.AutoApprove,
					Debug:       next.Session.Debug,
				})
			})
			go func() {
				if err := rt.watcher.Watch(rt.ctx); err != nil {
					log.Warn("config watcher stopped: %v", err)
				}
			}()

			rt.pipeline.Start(rt.ctx)
			_, err = p.Run()
			return err
		},
	}

	rootCmd.Flags().BoolVar(&debug, "debug", false, "Show group IDs and expanded tool activity")
	rootCmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "Apply low-risk plans without confirmation")
	rootCmd.Flags().StringVar(&workDir, "workdir", "", "Workspace directory for plan execution")

	if err := rootCmd.Execute(); err != nil {
		restoreTerminalState()
		os.Exit(1)
	}
	restoreTerminalState()
}
