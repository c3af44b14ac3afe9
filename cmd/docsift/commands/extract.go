package commands

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/docsift/docsift/internal/backend"
	"github.com/docsift/docsift/internal/extract"
	"github.com/docsift/docsift/internal/ingest"
	"github.com/docsift/docsift/internal/logger"
	"github.com/docsift/docsift/pkg/pii"
	"github.com/docsift/docsift/pkg/result"
	"github.com/docsift/docsift/pkg/rules"
	"github.com/docsift/docsift/pkg/schema"
)

// extractedFile wraps one document's envelope with its source path.
type extractedFile struct {
	File   string           `json:"file" yaml:"file"`
	Result *result.Envelope `json:"result" yaml:"result"`
}

var extractCmd = &cobra.Command{
	Use:   "extract [files...]",
	Short: "Extract schema-defined fields from documents",
	Long: `Extract ingests each file, chunks its text, runs the chunks through the
selected extraction backend, and merges the candidates into one result
per document. Every extracted value carries character spans back into
the normalized text plus a confidence score; low critical confidence
triggers a second pass on the escalation backend.

Examples:
  # Extract invoice fields, auto-selecting a backend from credentials
  docsift extract -s invoice.yaml inv-0042.pdf

  # Pin the backend and model
  docsift extract -s invoice.yaml -b ollama -m llama3.1:8b-instruct inv.pdf

  # Validate totals with rules
  docsift extract -s invoice.yaml \
      --rule "equals(grand_total, add(subtotal, tax_total), tol=0.01)" \
      --rule "match(invoice_number, \"^INV-\")" inv.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	flags := extractCmd.Flags()
	flags.StringP("schema", "s", "", "path to workflow schema file (required)")
	flags.StringP("backend", "b", backend.Auto, "extraction backend: auto, local, groq, ollama, anthropic")
	flags.StringP("model", "m", "", "model override for the selected backend")
	flags.String("escalation", "", "backend for the low-confidence second pass (default: groq)")
	flags.Float64("threshold", 0, "critical-confidence threshold for escalation (default: 0.9)")
	flags.Bool("fallback-local", false, "rerun failed chunks on the local extractor instead of failing")
	flags.Duration("timeout", 60*time.Second, "per-backend-call timeout")

	flags.StringArray("rule", nil, "validation rule (can be repeated)")
	flags.String("rules", "", "file with one validation rule per line")

	flags.String("mime", "", "MIME type override (default: sniff from filename)")
	flags.String("lang", "", "language hint (ISO code, e.g. de, fr)")
	flags.Bool("mask-pii", false, "mask emails, phone numbers, and IBANs before extraction")
	flags.Bool("ocr", true, "run OCR on image inputs (requires tesseract)")
	flags.String("tessdata", "", "tesseract data directory (default: system)")

	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "json", "output format: json, jsonl, yaml")

	_ = extractCmd.MarkFlagRequired("schema")
}

func runExtract(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	schemaPath, _ := cmd.Flags().GetString("schema")
	wf, err := schema.FromFile(schemaPath)
	if err != nil {
		logger.Error("failed to load schema", "path", schemaPath, "error", err)
		return err
	}
	logger.Debug("schema loaded", "id", wf.ID, "fields", len(wf.Fields))

	ruleList, err := loadRules(cmd)
	if err != nil {
		return err
	}

	cfg, selector, err := backendConfig(cmd)
	if err != nil {
		return err
	}
	pipeline := extract.NewPipeline(cfg)

	mime, _ := cmd.Flags().GetString("mime")
	lang, _ := cmd.Flags().GetString("lang")
	maskPII, _ := cmd.Flags().GetBool("mask-pii")
	engine := ocrEngine(cmd)

	writer, closeOut, err := openWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	for _, path := range args {
		data, err := os.ReadFile(path) //#nosec G304 -- CLI tool reads user-specified files
		if err != nil {
			logger.Error("failed to read file", "path", path, "error", err)
			return err
		}

		doc := ingest.Ingest(ctx, data, ingest.Options{
			Filename: path, MIME: mime, LanguageHint: lang, OCR: engine,
		})
		if maskPII {
			doc = pii.Mask(doc)
		}

		env, err := pipeline.Extract(ctx, wf, doc, selector)
		if err != nil {
			logger.Error("extraction failed", "path", path, "error", err)
			return err
		}

		if len(ruleList) > 0 {
			outcome := rules.Evaluate(env, ruleList)
			env.Validation.RulesPassed = outcome.Passed
			env.Validation.RulesFailed = outcome.Failed
		}

		logger.Info("document extracted",
			"path", path,
			"status", env.Status,
			"backend", env.Stats.Backend,
			"critical_confidence", env.Stats.CriticalConfidence)

		if err := writer.Write(extractedFile{File: path, Result: env}); err != nil {
			return err
		}
	}

	return writer.Flush()
}

// backendConfig assembles the backend configuration from flags, config
// file, and environment.
func backendConfig(cmd *cobra.Command) (backend.Config, string, error) {
	cfg := backend.DefaultConfig()
	cfg.GroqAPIKey = viper.GetString("groq_api_key")
	cfg.AnthropicAPIKey = viper.GetString("anthropic_api_key")
	cfg.OllamaHost = viper.GetString("ollama_host")

	if esc, _ := cmd.Flags().GetString("escalation"); esc != "" {
		cfg.Escalation = esc
	}
	if threshold, _ := cmd.Flags().GetFloat64("threshold"); threshold > 0 {
		cfg.ConfidenceThreshold = threshold
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}
	cfg.FallbackLocal, _ = cmd.Flags().GetBool("fallback-local")

	selector, _ := cmd.Flags().GetString("backend")
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		switch cfg.Resolve(selector) {
		case backend.Groq:
			cfg.GroqModel = model
		case backend.Ollama:
			cfg.OllamaModel = model
		case backend.Anthropic:
			cfg.AnthropicModel = model
		}
	}
	return cfg, selector, nil
}

// loadRules merges --rule flags with the --rules file, one rule per
// line, '#' comments allowed.
func loadRules(cmd *cobra.Command) ([]string, error) {
	list, _ := cmd.Flags().GetStringArray("rule")

	path, _ := cmd.Flags().GetString("rules")
	if path == "" {
		return list, nil
	}
	data, err := os.ReadFile(path) //#nosec G304 -- CLI tool reads user-specified files
	if err != nil {
		logger.Error("failed to read rules file", "path", path, "error", err)
		return nil, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		list = append(list, line)
	}
	return list, nil
}
