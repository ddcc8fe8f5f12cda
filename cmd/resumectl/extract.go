package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"alfredoptarigan/resume-analyzer/internal/config"
	"alfredoptarigan/resume-analyzer/internal/services"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Print the text extracted from a résumé",
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := setupLogger(debug)

	file, err := readResume(resumePath, cfg.Upload.MaxFileSize)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Analysis.Timeout)
	defer cancel()

	extracted, err := services.NewExtractor(logger).Extract(ctx, file)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "📄 %s (%s", file.Filename, extracted.Format)
	if extracted.PageCount > 0 {
		fmt.Fprintf(out, ", %d pages", extracted.PageCount)
	}
	fmt.Fprintf(out, ", %d characters)\n\n", utf8.RuneCountInString(extracted.Text))
	fmt.Fprintln(out, extracted.Text)
	return nil
}
