package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/macropower/mdc/pkg/config"
	"github.com/macropower/mdc/pkg/render"
	"github.com/macropower/mdc/pkg/selector"
	"github.com/macropower/mdc/pkg/store"
)

const (
	cmdExamples = `  # Print the rules applying to a file:
  mdc src/server/api.ts

  # Select against a different rule directory:
  mdc src/main.go --rules-dir docs/rules

  # Machine-readable output:
  mdc src/main.go --output json

  # Re-print whenever a rule document changes:
  mdc src/server/api.ts --watch

  # Send output to a file (disables markdown styling):
  mdc src/server/api.ts > rules.md`
)

type RunArgs struct {
	*RootArgs

	Path        string
	ConfigPath  string
	Output      string
	RulesDirs   []string
	Watch       bool
	WriteConfig bool
	ShowConfig  bool
}

func NewRunArgs(rootArgs *RootArgs) *RunArgs {
	return &RunArgs{
		RootArgs: rootArgs,
	}
}

func (ra *RunArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ra.ConfigPath, "config", "", "Path to the mdc configuration file")
	cmd.Flags().StringSliceVarP(&ra.RulesDirs, "rules-dir", "r", nil, "Rule directories, overrides the configuration")
	cmd.Flags().StringVarP(&ra.Output, "output", "o", "",
		fmt.Sprintf("Output format, one of: %s", render.AllFormats))
	cmd.Flags().BoolVarP(&ra.Watch, "watch", "w", false, "Watch rule directories and re-print on changes")
	cmd.Flags().BoolVar(&ra.WriteConfig, "write-config", false, "Write the default configuration files and exit")
	cmd.Flags().BoolVar(&ra.ShowConfig, "show-config", false, "Print the active configuration and exit")

	err := cmd.MarkFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}

	err = cmd.MarkFlagDirname("rules-dir")
	if err != nil {
		panic(fmt.Errorf("mark rules-dir flag: %w", err))
	}

	err = cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions(render.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(fmt.Errorf("register output completion: %w", err))
	}
}

func NewRunCmd(ra *RunArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run [path]",
		Short:   "Default command, prints the rule documents applying to a path",
		Example: cmdExamples,
		Args:    cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return nil, cobra.ShellCompDirectiveDefault
			}

			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ra.Path = "."
			if len(args) > 0 {
				ra.Path = args[0]
			}

			return run(cmd, ra)
		},
	}
	ra.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func run(cmd *cobra.Command, rc *RunArgs) error {
	ctx := cmd.Context()

	cfg, configPath, err := loadActiveConfig(rc.ConfigPath, rc.WriteConfig)
	if err != nil {
		return err
	}
	if rc.WriteConfig {
		// Exit early after writing the default config.
		return nil
	}

	if rc.ShowConfig {
		slog.Info("active configuration", slog.String("path", configPath))

		yamlBytes, err := cfg.MarshalYAML()
		if err != nil {
			return fmt.Errorf("marshal config yaml: %w", err)
		}

		mustN(fmt.Fprint(cmd.OutOrStdout(), string(yamlBytes)))

		return nil
	}

	dirs := ruleDirs(cfg, rc.RulesDirs)
	loader := store.NewLoader(store.WithExtensions(cfg.Rules.Extensions...))

	st, err := loader.Load(ctx, dirs...)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	format, err := outputFormat(rc.Output, cfg)
	if err != nil {
		return err
	}

	sel := selector.New(selector.WithFilters(cfg.Filters...))
	r := render.New(format, render.WithWordWrap(cfg.Output.WordWrap))

	err = r.Render(cmd.OutOrStdout(), sel.Select(ctx, st, rc.Path))
	if err != nil {
		return err
	}

	if rc.Watch {
		return watch(ctx, cmd, loader, sel, r, rc.Path, dirs)
	}

	return nil
}

// watch blocks, re-selecting and re-printing whenever the rule directories
// change, until ctx is canceled.
func watch(
	ctx context.Context,
	cmd *cobra.Command,
	loader *store.Loader,
	sel *selector.Selector,
	r *render.Renderer,
	path string,
	dirs []string,
) error {
	w, err := store.NewWatcher(loader, dirs...)
	if err != nil {
		return fmt.Errorf("watch rules: %w", err)
	}
	defer func() {
		must(w.Close())
	}()

	ch := make(chan store.Event)
	w.Subscribe(ch)

	go w.Watch(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt := <-ch:
			switch e := evt.(type) {
			case store.EventReload:
				err := r.Render(cmd.OutOrStdout(), sel.Select(ctx, e.Store, path))
				if err != nil {
					return err
				}

			case store.EventError:
				slog.Error("reload rules", slog.Any("err", e.Err))
			}
		}
	}
}

// loadActiveConfig resolves the config path, bootstraps the default config
// when missing, and loads whatever is there. A missing or unreadable config
// falls back to defaults; an invalid one is fatal.
func loadActiveConfig(configPath string, writeFatal bool) (*config.Config, string, error) {
	cfg := config.NewConfig()

	if configPath == "" {
		configPath = config.GetPath()
	}

	err := config.WriteDefaultConfig(configPath)
	if err != nil {
		slog.Error("write default config", slog.Any("err", err))
	}
	if writeFatal {
		return cfg, configPath, err
	}

	cl, err := config.NewLoaderFromFile(configPath)
	if err != nil {
		slog.Warn("could not read config, using defaults", slog.Any("err", err))

		return cfg, configPath, nil
	}

	err = cl.Validate()
	if err != nil {
		return nil, "", fmt.Errorf("invalid config %q: %w", configPath, err)
	}

	cfg, err = cl.Load()
	if err != nil {
		return nil, "", fmt.Errorf("invalid config %q: %w", configPath, err)
	}

	return cfg, configPath, nil
}

// ruleDirs returns the rule directories to load, flag overrides first.
// Missing directories are skipped so that the default config works in
// repositories without a .cursor/rules directory.
func ruleDirs(cfg *config.Config, override []string) []string {
	dirs := cfg.Rules.Paths
	if len(override) > 0 {
		dirs = override
	}

	existing := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			slog.Debug("skipping missing rule directory", slog.String("dir", dir))

			continue
		}

		existing = append(existing, dir)
	}

	return existing
}

// outputFormat resolves the effective output format. Empty means pretty on
// a terminal and text otherwise.
func outputFormat(flag string, cfg *config.Config) (render.Format, error) {
	name := flag
	if name == "" {
		name = cfg.Output.Format
	}
	if name == "" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return render.FormatPretty, nil
		}

		return render.FormatText, nil
	}

	f, err := render.GetFormat(name)
	if err != nil {
		return "", fmt.Errorf("output: %w", err)
	}

	return f, nil
}
