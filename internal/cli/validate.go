package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/mdc/pkg/config"
	"github.com/macropower/mdc/pkg/glob"
	"github.com/macropower/mdc/pkg/store"
)

type ValidateArgs struct {
	*RootArgs

	ConfigPath string
	RulesDirs  []string
}

func NewValidateArgs(rootArgs *RootArgs) *ValidateArgs {
	return &ValidateArgs{
		RootArgs: rootArgs,
	}
}

func (va *ValidateArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&va.ConfigPath, "config", "", "Path to the mdc configuration file")
	cmd.Flags().StringSliceVarP(&va.RulesDirs, "rules-dir", "r", nil, "Rule directories, overrides the configuration")

	err := cmd.MarkFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}

	err = cmd.MarkFlagDirname("rules-dir")
	if err != nil {
		panic(fmt.Errorf("mark rules-dir flag: %w", err))
	}
}

func NewValidateCmd(va *ValidateArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and rule documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return validate(cmd, va)
		},
	}
	va.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func validate(cmd *cobra.Command, va *ValidateArgs) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	configPath := va.ConfigPath
	if configPath == "" {
		configPath = config.GetPath()
	}

	cfg := config.NewConfig()

	cl, err := config.NewLoaderFromFile(configPath)
	if err != nil {
		mustN(fmt.Fprintf(out, "config %s: not found, using defaults\n", configPath))
	} else {
		err = cl.Validate()
		if err != nil {
			return fmt.Errorf("invalid config %q: %w", configPath, err)
		}

		cfg, err = cl.Load()
		if err != nil {
			return fmt.Errorf("invalid config %q: %w", configPath, err)
		}

		mustN(fmt.Fprintf(out, "config %s: ok\n", configPath))
	}

	loader := store.NewLoader(store.WithExtensions(cfg.Rules.Extensions...))

	st, err := loader.Load(ctx, ruleDirs(cfg, va.RulesDirs)...)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	invalid := 0

	for _, parseErr := range st.Errors() {
		invalid++

		mustN(fmt.Fprintf(out, "rule %s: %v\n", parseErr.ID, parseErr.Err))
	}

	for _, doc := range st.All() {
		err := glob.Validate(doc.Globs)
		if err != nil {
			invalid++

			mustN(fmt.Fprintf(out, "rule %s: %v\n", doc.ID, err))
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d invalid rule documents", invalid)
	}

	mustN(fmt.Fprintf(out, "rules: %d documents ok\n", st.Len()))

	return nil
}
