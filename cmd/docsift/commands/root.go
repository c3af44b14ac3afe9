// Package commands implements the CLI commands for docsift.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/docsift/docsift/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "docsift",
	Short: "Schema-driven field extraction from documents",
	Long: `Docsift normalizes heterogeneous documents (PDF, HTML, email, spreadsheets,
scans) into plain text and extracts schema-defined fields from them with
character-span evidence and confidence scores.

Define a schema for the fields you want, point it at files, and get
validated, structured output in JSON, JSONL, or YAML.

Examples:
  # Extract invoice fields from a PDF
  docsift extract -s invoice.yaml billing/inv-0042.pdf

  # Ingest only: inspect the normalized text of a document
  docsift ingest scan.png

  # Force a backend and validate with business rules
  docsift extract -s invoice.yaml -b groq \
      --rule "equals(grand_total, add(subtotal, tax_total), tol=0.01)" inv.pdf`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.docsift.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Full())
		},
	})
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".docsift")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DOCSIFT")
	viper.AutomaticEnv()

	// Also honor the well-known credential variables.
	_ = viper.BindEnv("groq_api_key", "GROQ_API_KEY")
	_ = viper.BindEnv("anthropic_api_key", "ANTHROPIC_API_KEY")
	_ = viper.BindEnv("ollama_host", "OLLAMA_HOST")

	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
