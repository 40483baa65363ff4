package cmd

import (
	"fmt"

	"github.com/nikogura/cv-customizer/pkg/config"
	"github.com/nikogura/cv-customizer/pkg/prompt"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file and prompt template",
	Long: `Write a default configuration to $HOME/.cv-customizer/config.json (or the --config
path) and a starter Prompt_Template.mkd next to it. Existing files are left alone.`,
	Args: exactArgs(0),
	RunE: runInit,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) (err error) {
	var written []string
	written, err = config.InitConfig(getConfigFile(), prompt.DefaultTemplate)
	if err != nil {
		return err
	}

	for _, path := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", path)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Add your API key to the config, or set OPENAI_API_KEY / ANTHROPIC_API_KEY.")
	return err
}
