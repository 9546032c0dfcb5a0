package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/macropower/mdc/pkg/store"
)

type ListArgs struct {
	*RootArgs

	ConfigPath string
	Output     string
	RulesDirs  []string
}

func NewListArgs(rootArgs *RootArgs) *ListArgs {
	return &ListArgs{
		RootArgs: rootArgs,
	}
}

func (la *ListArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&la.ConfigPath, "config", "", "Path to the mdc configuration file")
	cmd.Flags().StringSliceVarP(&la.RulesDirs, "rules-dir", "r", nil, "Rule directories, overrides the configuration")
	cmd.Flags().StringVarP(&la.Output, "output", "o", "text", "Output format, one of: [text json]")

	err := cmd.MarkFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}

	err = cmd.MarkFlagDirname("rules-dir")
	if err != nil {
		panic(fmt.Errorf("mark rules-dir flag: %w", err))
	}

	err = cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions([]string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(fmt.Errorf("register output completion: %w", err))
	}
}

func NewListCmd(la *ListArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the loaded rule documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return list(cmd, la)
		},
	}
	la.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func list(cmd *cobra.Command, la *ListArgs) error {
	ctx := cmd.Context()

	cfg, _, err := loadActiveConfig(la.ConfigPath, false)
	if err != nil {
		return err
	}

	loader := store.NewLoader(store.WithExtensions(cfg.Rules.Extensions...))

	st, err := loader.Load(ctx, ruleDirs(cfg, la.RulesDirs)...)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	if la.Output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		err := enc.Encode(st.All())
		if err != nil {
			return fmt.Errorf("encode documents: %w", err)
		}

		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "ALWAYS", "GLOBS", "DESCRIPTION")

	for _, doc := range st.All() {
		t.Row(doc.ID, strconv.FormatBool(doc.AlwaysApply), doc.Globs, doc.Description)
	}

	mustN(fmt.Fprintln(cmd.OutOrStdout(), t.String()))

	return nil
}
