package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/docsift/docsift/internal/ingest"
	"github.com/docsift/docsift/internal/logger"
	"github.com/docsift/docsift/internal/output"
	"github.com/docsift/docsift/pkg/doctext"
	"github.com/docsift/docsift/pkg/ocr"
	"github.com/docsift/docsift/pkg/pii"
)

// ingestedFile is the per-file summary the ingest command prints.
type ingestedFile struct {
	File     string          `json:"file" yaml:"file"`
	Kind     string          `json:"kind" yaml:"kind"`
	Language string          `json:"language" yaml:"language"`
	Pages    int             `json:"pages" yaml:"pages"`
	Chars    int             `json:"chars" yaml:"chars"`
	Warnings []string        `json:"warnings" yaml:"warnings"`
	Text     string          `json:"text,omitempty" yaml:"text,omitempty"`
	PageMap  []doctext.PageSpan `json:"page_map,omitempty" yaml:"page_map,omitempty"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Normalize documents to plain text",
	Long: `Ingest runs the format adapters only: each file is detected, converted to
the canonical text representation, and summarized. Useful for checking
what the extraction pipeline will actually see.

Examples:
  # Summarize a PDF's normalized text
  docsift ingest report.pdf

  # Dump the full text of an HTML file
  docsift ingest --text page.html

  # OCR a scan in German
  docsift ingest --lang de scan.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	flags := ingestCmd.Flags()
	flags.String("mime", "", "MIME type override (default: sniff from filename)")
	flags.String("lang", "", "language hint (ISO code, e.g. de, fr)")
	flags.Bool("text", false, "include the full normalized text in the output")
	flags.Bool("page-map", false, "include per-page span offsets in the output")
	flags.Bool("mask-pii", false, "mask emails, phone numbers, and IBANs in the text")
	flags.Bool("ocr", true, "run OCR on image inputs (requires tesseract)")
	flags.String("tessdata", "", "tesseract data directory (default: system)")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "json", "output format: json, jsonl, yaml")
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mime, _ := cmd.Flags().GetString("mime")
	lang, _ := cmd.Flags().GetString("lang")
	includeText, _ := cmd.Flags().GetBool("text")
	includePageMap, _ := cmd.Flags().GetBool("page-map")
	maskPII, _ := cmd.Flags().GetBool("mask-pii")

	writer, closeOut, err := openWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	engine := ocrEngine(cmd)

	for _, path := range args {
		data, err := os.ReadFile(path) //#nosec G304 -- CLI tool reads user-specified files
		if err != nil {
			logger.Error("failed to read file", "path", path, "error", err)
			return err
		}

		opts := ingest.Options{Filename: path, MIME: mime, LanguageHint: lang, OCR: engine}
		doc := ingest.Ingest(ctx, data, opts)
		if maskPII {
			doc = pii.Mask(doc)
		}

		item := ingestedFile{
			File:     path,
			Kind:     string(ingest.Detect(path, mime)),
			Language: doc.Language,
			Pages:    len(doc.PageMap),
			Chars:    len(doc.Text),
			Warnings: doc.Warnings,
		}
		if includeText {
			item.Text = doc.Text
		}
		if includePageMap {
			item.PageMap = doc.PageMap
		}
		if err := writer.Write(item); err != nil {
			return err
		}
	}

	return writer.Flush()
}

// openWriter builds the output writer from the shared --output/--format
// flags. The returned func closes the file when one was opened.
func openWriter(cmd *cobra.Command) (output.Writer, func(), error) {
	out := os.Stdout
	closeOut := func() {}
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			return nil, nil, fmt.Errorf("create output file: %w", err)
		}
		out = f
		closeOut = func() { _ = f.Close() }
	}

	format, _ := cmd.Flags().GetString("format")
	w, err := output.NewWriter(out, output.Format(format))
	if err != nil {
		closeOut()
		return nil, nil, err
	}
	return w, closeOut, nil
}

// ocrEngine returns the tesseract engine, or nil when --ocr=false.
func ocrEngine(cmd *cobra.Command) ocr.Engine {
	if enabled, _ := cmd.Flags().GetBool("ocr"); !enabled {
		return nil
	}
	tessdata, _ := cmd.Flags().GetString("tessdata")
	return &ocr.Tesseract{LangPath: tessdata}
}
