package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pep299/document-insight/internal/analyzer"
	"github.com/pep299/document-insight/internal/config"
	"github.com/pep299/document-insight/internal/document"
	"github.com/pep299/document-insight/internal/summarizer"
	"github.com/pep299/document-insight/internal/textproc"
)

var Version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "docinsight",
		Short:         "docinsight - summarize and question local documents",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var clean bool
	extractCmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Print the text of a txt, pdf or docx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0], clean)
		},
	}
	extractCmd.Flags().BoolVar(&clean, "clean", false, "Trim lines and rebuild paragraphs")

	var length string
	summarizeCmd := &cobra.Command{
		Use:   "summarize FILE",
		Short: "Summarize a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd, args[0], length)
		},
	}
	summarizeCmd.Flags().StringVarP(&length, "length", "l", string(summarizer.Medium), "Summary length: short, medium or long")

	askCmd := &cobra.Command{
		Use:   "ask FILE QUESTION",
		Short: "Answer a question from a document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args[0], strings.Join(args[1:], " "))
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration and capabilities",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}

	rootCmd.AddCommand(extractCmd, summarizeCmd, askCmd, statusCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func readDocument(path string) (string, error) {
	if !document.AllowedFile(path) {
		return "", fmt.Errorf("%w: supported types are %s", document.ErrUnsupportedFormat, strings.Join(document.AllowedExtensions, ", "))
	}

	text, err := document.NewExtractor().ExtractText(path)
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", path, err)
	}
	return text, nil
}

func runExtract(cmd *cobra.Command, path string, clean bool) error {
	text, err := readDocument(path)
	if err != nil {
		return err
	}
	if clean {
		text = document.CleanText(text)
	}

	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func runSummarize(cmd *cobra.Command, path, length string) error {
	text, err := readDocument(path)
	if err != nil {
		return err
	}

	summary, err := analyzer.New().SummarizeText(text, summarizer.ParseLength(length))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, summary)

	stats := summarizer.Stats(text, summary)
	fmt.Fprintf(out, "\nWords: %d -> %d", stats.OriginalWords, stats.SummaryWords)
	if stats.RatioAvailable {
		fmt.Fprintf(out, " (%.1f%% shorter)", stats.CompressionRatio)
	}
	fmt.Fprintln(out)
	return nil
}

func runAsk(cmd *cobra.Command, path, question string) error {
	text, err := readDocument(path)
	if err != nil {
		return err
	}

	answer, err := analyzer.New().AnswerQuestion(strings.TrimSpace(question), text)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(out, "Config: error (%v)\n", err)
		return nil
	}

	availability := analyzer.New().Availability()
	fmt.Fprintf(out, "Version: %s\n", Version)
	fmt.Fprintf(out, "Summarizer: available=%v\n", availability.Summarizer)
	fmt.Fprintf(out, "QA: available=%v\n", availability.QA)
	fmt.Fprintf(out, "Stop words: %d\n", len(textproc.StopWords()))
	fmt.Fprintf(out, "Formats: %s\n", strings.Join(document.AllowedExtensions, ", "))
	fmt.Fprintf(out, "Upload dir: %s (max %dMB)\n", cfg.UploadDir, cfg.MaxUploadMB)
	if cfg.StorageEnabled() {
		fmt.Fprintf(out, "Cloud Storage: gs://%s/%s\n", cfg.GCSBucket, cfg.GCSPrefix)
	} else {
		fmt.Fprintln(out, "Cloud Storage: not configured")
	}
	if cfg.APIAuthToken != "" {
		fmt.Fprintln(out, "API auth: enabled")
	} else {
		fmt.Fprintln(out, "API auth: disabled")
	}
	return nil
}
