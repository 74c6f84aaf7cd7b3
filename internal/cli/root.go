// Package cli реализует консольный клиент cytoctl поверх тех же сервисов, что и бот.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	app "cyto-bot/internal/application"
	"cyto-bot/internal/infrastructure/inference"
)

// Коды выхода
const (
	exitOK          = 0
	exitFailure     = 1
	exitUnreachable = 2 // бэкенд не ответил
	exitBackend     = 3 // бэкенд ответил ошибкой
)

// Форматы вывода результатов
const (
	outputText = "text"
	outputJSON = "json"
)

var (
	cfgFile   string
	apiURL    string
	logLevel  string
	noColor   bool
	outputFmt string
)

// NewRootCommand создаёт корневую команду
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cytoctl",
		Short: "Cervical cytology analysis client",
		Long: `cytoctl sends cervical cytology images to the analysis backend and renders
classification, segmentation, explainability, uncertainty and clinical
decision support results in the terminal.

Images are read from disk; the content type is derived from the file extension.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if outputFmt != outputText && outputFmt != outputJSON {
				return fmt.Errorf("output format %q must be text or json", outputFmt)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ./cyto.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "analysis backend URL (overrides CYTO_API_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", outputText, "output format (text, json)")

	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newClassifyCommand())
	rootCmd.AddCommand(newQualityCommand())
	rootCmd.AddCommand(newStainCommand())
	rootCmd.AddCommand(newCellsCommand())
	rootCmd.AddCommand(newToolsCommand())
	rootCmd.AddCommand(newBatchCommand())
	rootCmd.AddCommand(newBatchStatusCommand())
	rootCmd.AddCommand(newReportCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newClassesCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

// Execute выполняет команду и возвращает код выхода.
// Ошибку, о которой уже пришло уведомление, повторно не печатает.
func Execute(version, commit, date string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand(version, commit, date)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		if !app.Notified(err) {
			fmt.Fprintln(os.Stderr, "Error:", errorText(err))
		}
		if inference.IsTransport(err) {
			fmt.Fprintln(os.Stderr, "Check that the analysis backend is running (--api-url or CYTO_API_URL).")
		}
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case inference.IsTransport(err):
		return exitUnreachable
	case inference.StatusCode(err) != 0:
		return exitBackend
	}
	return exitFailure
}

func errorText(err error) string {
	if msg := app.UserMessage(err); msg != "" {
		return msg
	}
	return err.Error()
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cytoctl %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
