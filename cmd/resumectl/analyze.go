package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"alfredoptarigan/resume-analyzer/internal/config"
	"alfredoptarigan/resume-analyzer/internal/services"
)

var (
	jobDescriptionPath string
	outPath            string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a résumé, optionally against a job description",
	Long:  "Runs extraction, prompt building, the configured LLM provider and normalization, then prints the analysis JSON.",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&jobDescriptionPath, "jd", "", "path to a plain-text job description")
	analyzeCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the JSON result to this file instead of stdout")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := setupLogger(debug)

	file, err := readResume(resumePath, cfg.Upload.MaxFileSize)
	if err != nil {
		return err
	}

	var jobDescription string
	if jobDescriptionPath != "" {
		data, err := os.ReadFile(jobDescriptionPath)
		if err != nil {
			return fmt.Errorf("read job description: %w", err)
		}
		jobDescription = string(data)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Analysis.Timeout)
	defer cancel()

	extracted, err := services.NewExtractor(logger).Extract(ctx, file)
	if err != nil {
		return err
	}
	resumeText := strings.TrimSpace(extracted.Text)
	if utf8.RuneCountInString(resumeText) < cfg.Analysis.MinTextLen {
		return fmt.Errorf("resume is empty or too short: %d characters extracted", utf8.RuneCountInString(resumeText))
	}

	prompt := services.NewPromptBuilder().Build(services.AnalysisRequest{
		ResumeText:     resumeText,
		JobDescription: jobDescription,
	})

	logger.Info("calling llm provider", "provider", cfg.LLM.Provider, "resume_chars", utf8.RuneCountInString(resumeText))
	raw, err := services.NewLLMClient(cfg, &http.Client{Timeout: cfg.Analysis.Timeout}).Complete(ctx, prompt.System, prompt.User)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	result, err := services.NewNormalizer().Normalize(raw)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if outPath == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return nil
	}
	if err := os.WriteFile(outPath, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✅ Analysis written to %s (overall score %d)\n", outPath, result.OverallScore)
	return nil
}
