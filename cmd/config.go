package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"entrabridge/internal/config"
	"entrabridge/pkg/logging"
)

var (
	configConfigPath string
	configEnvFile    string
)

// configCmd prints the effective configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Loads the configuration exactly as 'serve' would and prints it as a table.
Secrets are redacted. Validation problems are listed below the table and
make the command exit with status 4.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	logging.InitForCLI(logging.LevelWarn, cmd.ErrOrStderr())

	cfg, err := config.Load(configPathOrDefault(configConfigPath), configEnvFile)
	if err != nil {
		return err
	}

	renderConfig(cmd.OutOrStdout(), cfg)

	if err := cfg.Validate(); err != nil {
		var errs config.ValidationErrors
		if errors.As(err, &errs) {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", text.FgRed.Sprintf("%d problem(s):", len(errs)))
			for _, e := range errs {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", e.Error())
			}
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", text.FgGreen.Sprint("Configuration is valid"))
	return nil
}

func renderConfig(out io.Writer, cfg config.RelayConfig) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("SECTION"),
		text.FgHiCyan.Sprint("KEY"),
		text.FgHiCyan.Sprint("VALUE"),
	})

	for _, e := range cfg.Entries() {
		value := e.Value
		if value == "" {
			value = text.FgHiBlack.Sprint("(unset)")
		}
		t.AppendRow(table.Row{e.Section, e.Key, value})
	}
	t.Render()
}

// configPathOrDefault returns path, or the default directory when it is empty
// and the home directory can be determined.
func configPathOrDefault(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.UserHomeDir(); err != nil {
		return ""
	}
	return config.GetDefaultConfigPathOrPanic()
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().StringVar(&configConfigPath, "config-path", "", "Configuration directory (default ~/.config/entrabridge)")
	configCmd.Flags().StringVar(&configEnvFile, "env-file", "", "Environment file to load (default ./.env when present)")
}
