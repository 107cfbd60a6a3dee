package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/srg/imuble/pkg/config"
)

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Show the available device profiles",
		Long: `Print every device profile, built-in and from --config, as YAML.
The output can be pasted into the profiles section of a config file.`,
		Args: cobra.NoArgs,
		RunE: runProfiles,
	}
	cmd.Flags().Bool("names", false, "Print profile names only; the active one is marked with *")
	return cmd
}

func runProfiles(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	out := cmd.OutOrStdout()
	if names, _ := cmd.Flags().GetBool("names"); names {
		for _, name := range cfg.ProfileNames() {
			marker := " "
			if name == cfg.Profile {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, name)
		}
		return nil
	}

	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(struct {
		Profiles map[string]config.Profile `yaml:"profiles"`
	}{cfg.AllProfiles()}); err != nil {
		return err
	}
	return encoder.Close()
}
