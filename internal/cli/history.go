package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cyto-bot/internal/presenter"
)

func newHistoryCommand() *cobra.Command {
	var (
		pdf    bool
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List past predictions or show one record",
		Long: `Without arguments list the predictions stored by the backend.
With an id show that record; --pdf downloads its PDF report instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if len(args) == 0 {
				if pdf {
					return errors.New("--pdf requires a record id")
				}
				records, err := s.app.HistoryService.List(ctx)
				if err != nil {
					return err
				}
				return render(s.out, records, presenter.HistoryList(records))
			}

			if pdf {
				file, err := s.app.HistoryService.PDF(ctx, args[0])
				if err != nil {
					return err
				}
				saved, err := writeExported(outDir, file)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Saved", saved)
				return nil
			}

			record, err := s.app.HistoryService.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return render(s.out, record, presenter.HistoryRecord(record))
		},
	}

	cmd.Flags().BoolVar(&pdf, "pdf", false, "download the record's PDF report")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory for the downloaded PDF")

	return cmd
}

func newClassesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "List the classifier's classes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			classes, err := s.app.AnalysisService.Classes(cmd.Context())
			if err != nil {
				return err
			}
			if outputFmt == outputJSON {
				return printJSON(s.out, classes)
			}
			fmt.Fprintln(s.out, strings.Join(classes, "\n"))
			return nil
		},
	}
}
