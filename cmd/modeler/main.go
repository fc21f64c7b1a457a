// Package main provides lgmodeler - a browser-based visual modeler for LangGraph state graphs.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/lgmodeler/lgmodeler/pkg/config"
	"github.com/lgmodeler/lgmodeler/pkg/console"
	"github.com/lgmodeler/lgmodeler/pkg/git"
	"github.com/lgmodeler/lgmodeler/pkg/notify"
	"github.com/lgmodeler/lgmodeler/pkg/project"
	"github.com/lgmodeler/lgmodeler/pkg/render"
	"github.com/lgmodeler/lgmodeler/pkg/status"
	"github.com/lgmodeler/lgmodeler/pkg/web"
)

// opts holds all command-line options.
type opts struct {
	Port       int    `short:"p" long:"port" description:"web server port (overrides config)"`
	ConfigDir  string `long:"config-dir" env:"LGMODELER_CONFIG_DIR" description:"global config directory"`
	NoWatch    bool   `long:"no-watch" description:"do not reload the project file on change"`
	LogFile    string `long:"log-file" description:"append activity log to this file"`
	Summary    bool   `long:"summary" description:"print the project summary and exit"`
	InitConfig bool   `long:"init-config" description:"write the default config file and exit"`
	Debug      bool   `short:"d" long:"debug" description:"enable debug logging"`
	NoColor    bool   `long:"no-color" description:"disable color output"`
	Version    bool   `short:"v" long:"version" description:"print version and exit"`

	ProjectFile string `no-flag:"true"` // first positional argument, falls back to config
}

var revision = "unknown"

func main() {
	fmt.Printf("lgmodeler %s\n", revision)

	var o opts
	parser := flags.NewParser(&o, flags.Default)
	parser.Usage = "[OPTIONS] [project-file]"

	args, err := parser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if o.Version {
		os.Exit(0)
	}

	if len(args) > 0 {
		o.ProjectFile = args[0]
	}

	// setup context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, o); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o opts) error {
	cfg, err := config.Load(o.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	colors := console.NewColors(cfg.Colors)
	logger, err := console.New(console.Config{LogFile: o.LogFile, Debug: o.Debug, NoColor: o.NoColor}, colors)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Close()
	setupLog(o.Debug)

	if o.InitConfig {
		path, installErr := config.Install(o.ConfigDir)
		if installErr != nil {
			return fmt.Errorf("install config: %w", installErr)
		}
		logger.Print("config: %s", path)
		return nil
	}

	rc := resolve(o, cfg)
	logger.Debug("config local=%s global=%s", cfg.LocalPath, cfg.GlobalPath)

	p, err := loadProject(rc.ProjectFile)
	if err != nil {
		return err
	}

	repo := openRepo(rc.ProjectFile, logger)

	if o.Summary {
		var rev *git.Revision
		if repo != nil {
			if r, revErr := repo.FileRevision(rc.ProjectFile); revErr == nil {
				rev = &r
			}
		}
		return printSummary(os.Stdout, p, rev, colors.Steps(), o.NoColor || !console.IsTerminal(os.Stdout))
	}

	alerts, err := notify.New(notifyParams(cfg), logger)
	if err != nil {
		return fmt.Errorf("create notifier: %w", err)
	}

	holder := project.NewHolder(p)
	holder.OnChange(func(p *project.Project) {
		logger.Print("project %q updated: %d fields, %d traces", p.Name, len(p.Schema), len(p.Traces))
	})
	holder.OnChange(alertOnChange(ctx, p, rc.ProjectFile, alerts, logger))

	if rc.Watch {
		w, watchErr := project.NewWatcher(rc.ProjectFile, holder)
		if watchErr != nil {
			return fmt.Errorf("watch project: %w", watchErr)
		}
		go func() {
			if startErr := w.Start(ctx); startErr != nil {
				logger.Warn("project watcher stopped: %v", startErr)
			}
		}()
		logger.Debug("watching %s", rc.ProjectFile)
	}

	srvCfg := web.ServerConfig{Port: rc.Port, ProjectPath: rc.ProjectFile}
	if repo != nil {
		srvCfg.Revisions = repo
	}
	srv, err := web.NewServer(srvCfg, web.NewTabs(rc.TabLimit), holder)
	if err != nil {
		return fmt.Errorf("create web server: %w", err)
	}

	printStartupInfo(logger, rc, p)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("web server: %w", err)
	}

	logger.Print("stopped after %s", logger.Elapsed())
	return nil
}

// runConfig is the effective configuration after cli options override config values.
type runConfig struct {
	Port        int
	ProjectFile string
	Watch       bool
	TabLimit    int
}

// resolve merges cli options over config values.
func resolve(o opts, cfg *config.Config) runConfig {
	rc := runConfig{
		Port:        cfg.Port,
		ProjectFile: cfg.ProjectFile,
		Watch:       cfg.WatchProject && !o.NoWatch,
		TabLimit:    cfg.TabLimit,
	}
	if o.Port != 0 {
		rc.Port = o.Port
	}
	if o.ProjectFile != "" {
		rc.ProjectFile = o.ProjectFile
	}
	if rc.ProjectFile == "" {
		rc.Watch = false // nothing to watch for an untitled project
	}
	if rc.TabLimit <= 0 {
		rc.TabLimit = web.DefaultTabLimit
	}
	return rc
}

// notifyParams maps notify_* config values to notifier params.
func notifyParams(cfg *config.Config) notify.Params {
	return notify.Params{
		Channels:      cfg.NotifyChannels,
		Statuses:      cfg.NotifyStatuses,
		TimeoutMs:     cfg.NotifyTimeoutMs,
		TelegramToken: cfg.NotifyTelegramToken,
		TelegramChat:  cfg.NotifyTelegramChat,
		SlackToken:    cfg.NotifySlackToken,
		SlackChannel:  cfg.NotifySlackChannel,
		SMTPHost:      cfg.NotifySMTPHost,
		SMTPPort:      cfg.NotifySMTPPort,
		SMTPUsername:  cfg.NotifySMTPUsername,
		SMTPPassword:  cfg.NotifySMTPPassword,
		SMTPStartTLS:  cfg.NotifySMTPStartTLS,
		EmailFrom:     cfg.NotifyEmailFrom,
		EmailTo:       cfg.NotifyEmailTo,
		WebhookURLs:   cfg.NotifyWebhookURLs,
		CustomScript:  cfg.NotifyCustomScript,
	}
}

// alertOnChange returns a project change callback sending alerts for steps that newly
// reached an alerting outcome. alerts are sent in the background.
func alertOnChange(ctx context.Context, initial *project.Project, file string, svc *notify.Service,
	logger *console.Logger) func(*project.Project) {
	prev := initial
	return func(next *project.Project) {
		found := notify.NewAlerts(prev, next, svc.Alerting)
		prev = next
		if len(found) == 0 {
			return
		}
		logger.Warn("%d new alerting steps in %q", len(found), next.Name)
		go func() {
			for _, a := range found {
				a.File = file
				svc.Send(ctx, a)
			}
		}()
	}
}

// loadProject loads the project file, or returns an untitled project when path is empty.
func loadProject(path string) (*project.Project, error) {
	if path == "" {
		return project.Empty(), nil
	}
	p, err := project.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	return p, nil
}

// openRepo returns the git repository holding the project file, nil if there is none.
func openRepo(projectFile string, logger *console.Logger) *git.Repo {
	if projectFile == "" {
		return nil
	}
	repo, err := git.Open(projectFile)
	if err != nil {
		logger.Debug("no git revision info: %v", err)
		return nil
	}
	return repo
}

// printSummary writes the rendered project summary followed by the trace list.
func printSummary(w io.Writer, p *project.Project, rev *git.Revision, steps status.Palette, noColor bool) error {
	md, err := render.Markdown(render.SummaryMarkdown(p), noColor, 100)
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	if _, err := fmt.Fprint(w, md); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if rev != nil {
		if _, err := fmt.Fprintf(w, "\nRevision: %s\n", describeRevision(*rev)); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "\nTraces\n\n%s", render.Traces(p, time.Now(), steps)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// describeRevision formats rev as "branch abc1234 (subject), modified".
func describeRevision(rev git.Revision) string {
	var parts []string
	if rev.Branch != "" {
		parts = append(parts, rev.Branch)
	}
	if rev.Tracked() {
		parts = append(parts, fmt.Sprintf("%s (%s)", rev.Commit, rev.Subject))
	} else {
		parts = append(parts, "untracked")
	}
	res := strings.Join(parts, " ")
	if rev.Dirty {
		res += ", modified"
	}
	return res
}

func printStartupInfo(logger *console.Logger, rc runConfig, p *project.Project) {
	projectStr := rc.ProjectFile
	if projectStr == "" {
		projectStr = "(untitled)"
	}
	watchStr := ""
	if rc.Watch {
		watchStr = ", watching for changes"
	}
	logger.Print("project: %s (%s)%s", p.Name, projectStr, watchStr)
	logger.Print("schema: %d fields, palette: %d node kinds, traces: %d", len(p.Schema), len(p.Palette), len(p.Traces))
	logger.Accent("modeler: http://localhost:%d", rc.Port)
}

// setupLog configures the standard logger used by the web and project packages.
// [DEBUG] lines are dropped unless debug is enabled.
func setupLog(debug bool) {
	log.SetFlags(log.Ldate | log.Ltime)
	if debug {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
		return
	}
	log.SetOutput(&levelFilter{out: os.Stderr})
}

// levelFilter drops [DEBUG] records.
type levelFilter struct {
	out io.Writer
}

func (f *levelFilter) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte("[DEBUG]")) {
		return len(p), nil
	}
	return f.out.Write(p)
}
