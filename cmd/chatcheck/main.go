// Package main provides chatcheck - end-to-end checks of a messaging web client in a real browser.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/umputun/chatcheck/pkg/action"
	"github.com/umputun/chatcheck/pkg/browser"
	"github.com/umputun/chatcheck/pkg/browser/cdp"
	"github.com/umputun/chatcheck/pkg/browser/pw"
	"github.com/umputun/chatcheck/pkg/check"
	"github.com/umputun/chatcheck/pkg/config"
	"github.com/umputun/chatcheck/pkg/dom"
	"github.com/umputun/chatcheck/pkg/narrow"
	"github.com/umputun/chatcheck/pkg/notify"
	"github.com/umputun/chatcheck/pkg/progress"
	"github.com/umputun/chatcheck/pkg/quiesce"
	"github.com/umputun/chatcheck/pkg/render"
	"github.com/umputun/chatcheck/pkg/scenario"
	"github.com/umputun/chatcheck/pkg/script"
)

// opts holds all command-line options.
type opts struct {
	BaseURL         string        `short:"u" long:"base-url" description:"base URL of the client under test"`
	Driver          string        `long:"driver" choice:"playwright" choice:"chromedp" description:"browser backend"`
	Browser         string        `long:"browser" choice:"chromium" choice:"firefox" choice:"webkit" description:"playwright browser"`
	Headful         bool          `long:"headful" description:"show the browser window"`
	IdleWindow      time.Duration `long:"idle-window" description:"quiet period after which messages count as received"`
	WaitTimeout     time.Duration `long:"wait-timeout" description:"upper bound of every wait"`
	Report          string        `short:"r" long:"report" description:"write a JSON report of all results to this path"`
	ConfigDir       string        `long:"config-dir" description:"config directory (default ~/.config/chatcheck)"`
	Init            bool          `long:"init" description:"install default config and scenario into the config directory and exit"`
	InstallBrowsers bool          `long:"install-browsers" description:"download the playwright driver and browser before running"`
	Debug           bool          `short:"d" long:"debug" description:"log every network response"`
	NoColor         bool          `long:"no-color" description:"disable color output"`
	Version         bool          `short:"v" long:"version" description:"print version and exit"`

	ScenarioFile string `positional-arg-name:"scenario-file" description:"scenario to run (optional, uses the built-in one if omitted)"`
}

var revision = "unknown"

const (
	exitPassed = 0
	exitFailed = 1
	exitFatal  = 2
)

// errChecksFailed is returned by run when the scenario finished with failed checks.
var errChecksFailed = errors.New("checks failed")

func main() {
	fmt.Printf("chatcheck %s\n", revision)

	var o opts
	parser := flags.NewParser(&o, flags.Default)
	parser.Usage = "[OPTIONS] [scenario-file]"

	args, err := parser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(exitPassed)
		}
		os.Exit(exitFatal)
	}

	if o.Version {
		os.Exit(exitPassed)
	}

	if len(args) > 0 {
		o.ScenarioFile = args[0]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	restore := disableCtrlCEcho()

	err = run(ctx, o)
	restore()
	cancel()
	if err != nil && !errors.Is(err, errChecksFailed) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps the outcome of run to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitPassed
	case errors.Is(err, errChecksFailed):
		return exitFailed
	default:
		return exitFatal
	}
}

func run(ctx context.Context, o opts) error {
	if o.Init {
		return installDefaults(o.ConfigDir)
	}

	cfg, err := config.Load(o.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cfg, o)

	colors := progress.NewColors(cfg.Colors)

	scenarioPath := o.ScenarioFile
	if scenarioPath == "" {
		scenarioPath = cfg.ScenarioPath()
	}
	def, err := loadScenario(scenarioPath)
	if err != nil {
		return err
	}

	updates, err := regexp.Compile(cfg.UpdatePattern)
	if err != nil {
		return fmt.Errorf("compile update_pattern: %w", err)
	}

	if o.InstallBrowsers && cfg.Driver == "playwright" {
		colors.Info().Printf("installing playwright %s\n", cfg.Browser)
		if err := pw.Install(cfg.Browser); err != nil {
			return err
		}
	}

	logger, err := progress.NewLogger(progress.Config{
		Scenario: def.Name,
		BaseURL:  cfg.BaseURL,
		Driver:   cfg.Driver,
		NoColor:  o.NoColor,
		Colors:   colors,
	})
	if err != nil {
		return fmt.Errorf("create progress logger: %w", err)
	}
	defer logger.Close()

	printStartupInfo(startupInfo{Scenario: def.Name, Source: scenarioPath, Config: cfg, LogPath: logger.Path()}, colors)

	page, err := launch(ctx, cfg)
	if err != nil {
		return err
	}
	defer page.Close()

	obsCtx, stopObserving := context.WithCancel(ctx)
	defer stopObserving()

	tracker := quiesce.New()
	go tracker.Observe(obsCtx, page.Responses().Subscribe(), updates.MatchString)
	if o.Debug {
		go logResponses(obsCtx, page.Responses().Subscribe(), logger)
	}

	rec := check.NewRecorder(logger)
	sel := cfg.DOMSelectors()
	view := &narrow.Holder{}
	view.OnChange(func(old, cur narrow.State) { logger.Info("view %s -> %s", old, cur) })
	steps, err := script.Build(def, script.Env{
		BaseURL:    cfg.BaseURL,
		Creds:      action.Creds{Username: cfg.Username, Password: cfg.Password},
		Driver:     action.NewDriver(page, tracker, sel, rec),
		Engine:     check.NewEngine(dom.NewExtractor(page, sel), page, rec),
		Narrow:     narrow.NewController(page, view, sel.Unnarrow),
		Tracker:    tracker,
		IdleWindow: cfg.IdleWindow(),
	})
	if err != nil {
		return fmt.Errorf("build scenario: %w", err)
	}

	logger.Section(def.Name)
	runErr := scenario.NewRunner(page, logger, cfg.WaitTimeout(), cfg.PollInterval()).Run(ctx, steps)
	if runErr != nil {
		logger.Error("%v", runErr)
	}

	summary := rec.Summary()
	if err := writeReport(o.Report, summary); err != nil {
		logger.Warn("%v", err)
	}

	res := render.Run{
		Scenario: def.Name,
		BaseURL:  cfg.BaseURL,
		Driver:   cfg.Driver,
		Duration: logger.Elapsed(),
		Summary:  summary,
		Fatal:    runErr,
	}
	if out, rErr := render.RenderMarkdown(render.Markdown(res), o.NoColor); rErr == nil {
		logger.PrintRaw("\n%s\n", out)
	} else {
		logger.Warn("render summary: %v", rErr)
	}

	sendNotification(ctx, cfg, logger, res)

	if runErr != nil {
		return runErr
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", errChecksFailed, summary.Failed, summary.Passed+summary.Failed)
	}
	return nil
}

// applyOverrides puts command-line values over the loaded config.
func applyOverrides(cfg *config.Config, o opts) {
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	if o.Driver != "" {
		cfg.Driver = o.Driver
	}
	if o.Browser != "" {
		cfg.Browser = o.Browser
	}
	if o.Headful {
		cfg.Headless = false
	}
	if o.IdleWindow > 0 {
		cfg.IdleWindowMs = int(o.IdleWindow / time.Millisecond)
	}
	if o.WaitTimeout > 0 {
		cfg.WaitTimeoutMs = int(o.WaitTimeout / time.Millisecond)
	}
}

func installDefaults(dir string) error {
	if dir == "" {
		dir = config.DefaultConfigDir()
	}
	written, err := config.Install(dir, script.DefaultYAML())
	if err != nil {
		return fmt.Errorf("install defaults: %w", err)
	}
	if len(written) == 0 {
		fmt.Printf("nothing to install, %s is up to date\n", dir)
		return nil
	}
	for _, p := range written {
		fmt.Printf("installed %s\n", p)
	}
	return nil
}

// loadScenario reads the scenario file at path, or returns the built-in scenario for an empty path.
func loadScenario(path string) (script.Definition, error) {
	if path == "" {
		return script.Default(), nil
	}
	def, err := script.Load(path)
	if err != nil {
		return script.Definition{}, fmt.Errorf("load scenario: %w", err)
	}
	if def.Name == "" {
		def.Name = stem(path)
	}
	return def, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// launch starts the configured browser backend.
func launch(ctx context.Context, cfg *config.Config) (browser.Page, error) {
	switch cfg.Driver {
	case "chromedp":
		p, err := cdp.Launch(ctx, cdp.Options{Headless: cfg.Headless})
		if err != nil {
			return nil, fmt.Errorf("launch chromedp: %w", err)
		}
		return p, nil
	default:
		p, err := pw.Launch(pw.Options{Browser: cfg.Browser, Headless: cfg.Headless})
		if err != nil {
			return nil, fmt.Errorf("launch playwright: %w", err)
		}
		return p, nil
	}
}

func logResponses(ctx context.Context, events <-chan browser.ResponseEvent, log *progress.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			log.Info("response %d %s", e.Status, e.URL)
		}
	}
}

// writeReport writes the JSON summary to path. does nothing for an empty path.
func writeReport(path string, s check.Summary) error {
	if path == "" {
		return nil
	}
	data, err := s.JSON()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// notifyResult converts a finished run into a notification payload.
func notifyResult(r render.Run) notify.Result {
	res := notify.Result{
		Status:   "success",
		Scenario: r.Scenario,
		BaseURL:  r.BaseURL,
		Driver:   r.Driver,
		Duration: r.Duration,
		Passed:   r.Summary.Passed,
		Failed:   r.Summary.Failed,
	}
	if r.Status() != "passed" {
		res.Status = "failure"
	}
	for _, c := range r.Summary.Results {
		if !c.Passed {
			res.Failures = append(res.Failures, c.Name)
		}
	}
	if r.Fatal != nil {
		res.Error = r.Fatal.Error()
	}
	return res
}

func sendNotification(ctx context.Context, cfg *config.Config, log *progress.Logger, r render.Run) {
	svc, err := notify.New(cfg.NotifyParams(), log)
	if err != nil {
		log.Warn("notifications disabled: %v", err)
		return
	}
	// the run context may already be canceled by a signal, the notification still goes out
	svc.Send(context.WithoutCancel(ctx), notifyResult(r))
}

// startupInfo holds parameters for printing startup information.
type startupInfo struct {
	Scenario string
	Source   string
	Config   *config.Config
	LogPath  string
}

func printStartupInfo(info startupInfo, colors *progress.Colors) {
	source := info.Source
	if source == "" {
		source = "built-in"
	}
	colors.Info().Printf("scenario: %s (%s)\n", info.Scenario, source)
	colors.Info().Printf("client: %s\n", info.Config.BaseURL)
	mode := "headless"
	if !info.Config.Headless {
		mode = "headful"
	}
	driver := info.Config.Driver
	if driver == "playwright" {
		driver += " " + info.Config.Browser
	}
	colors.Info().Printf("driver: %s, %s\n", driver, mode)
	colors.Info().Printf("progress log: %s\n\n", info.LogPath)
}
