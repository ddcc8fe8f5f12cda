package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"alfredoptarigan/resume-analyzer/internal/services"
)

var (
	resumePath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:          "resumectl",
	Short:        "Run the résumé analysis pipeline against local files",
	Long:         "resumectl extracts text from a local résumé and, with an LLM credential configured, runs the same ATS analysis the API serves.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&resumePath, "resume", "r", "", "path to a .pdf, .docx, .doc or .txt résumé")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	_ = rootCmd.MarkPersistentFlagRequired("resume")
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// readResume loads path as an upload, applying the same type and size rules as the API.
func readResume(path string, maxSize int64) (services.UploadedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return services.UploadedFile{}, fmt.Errorf("stat resume: %w", err)
	}
	file := services.UploadedFile{Filename: filepath.Base(path), Size: info.Size()}
	if err := services.ValidateUpload(file.Filename, file.Size, maxSize); err != nil {
		return services.UploadedFile{}, err
	}

	file.Content, err = os.ReadFile(path)
	if err != nil {
		return services.UploadedFile{}, fmt.Errorf("read resume: %w", err)
	}
	return file, nil
}
