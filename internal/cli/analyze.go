package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	app "cyto-bot/internal/application"
	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
	"cyto-bot/internal/presenter"
)

type analyzeOptions struct {
	patientID       string
	patientName     string
	method          string
	mode            string
	opacity         int
	heatmapOut      string
	segmentationOut string
}

func newAnalyzeCommand() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Run full analysis: classification, segmentation and explainability",
		Long: `Send one image for classification and segmentation and render every result panel.

Examples:
  cytoctl analyze cell.png
  cytoctl analyze --patient-id P-102 --heatmap-out xai.png --mode masked --opacity 40 cell.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts, false)
		},
	}

	cmd.Flags().StringVar(&opts.patientID, "patient-id", "", "patient identifier")
	cmd.Flags().StringVar(&opts.patientName, "patient-name", "", "patient name")
	cmd.Flags().StringVar(&opts.method, "method", "", "explainability method: scorecam or layercam")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "heatmap display mode: overlay, masked, heatmap_only")
	cmd.Flags().IntVar(&opts.opacity, "opacity", app.DefaultOpacity, "heatmap opacity 0-100")
	cmd.Flags().StringVar(&opts.heatmapOut, "heatmap-out", "", "write the blended explainability image to this PNG file")
	cmd.Flags().StringVar(&opts.segmentationOut, "segmentation-out", "", "write the segmentation overlay to this PNG file")

	return cmd
}

func newClassifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <image>",
		Short: "Classify an image without segmentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], &analyzeOptions{}, true)
		},
	}
}

func runAnalyze(cmd *cobra.Command, path string, opts *analyzeOptions, classifyOnly bool) error {
	file, err := loadImage(path)
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := s.app.AnalysisService.Submit(cmd.Context(), localUser, localChat, app.SubmitRequest{
		File:         file,
		Patient:      port.Patient{ID: opts.patientID, Name: opts.patientName},
		ClassifyOnly: classifyOnly,
	})
	if err != nil {
		return err
	}

	view := out.View
	flags := cmd.Flags()
	if flags.Changed("method") || flags.Changed("mode") || flags.Changed("opacity") {
		if opts.method != "" {
			view.Method = opts.method
		}
		if opts.mode != "" {
			view.Mode = port.BlendMode(opts.mode)
		}
		if flags.Changed("opacity") {
			view.Opacity = opts.opacity
		}
		if view, err = s.app.AnalysisService.SetView(localUser, view); err != nil {
			return err
		}
	}

	r := out.Result
	var panels []presenter.Panel
	if classifyOnly {
		panels = []presenter.Panel{presenter.Classification(r), presenter.Uncertainty(r.Uncertainty), presenter.ClinicalDecision(r)}
	} else {
		panels = presenter.ResultPanels(r, view.Method, view.Mode, view.Opacity)
	}
	if err := render(s.out, r, panels...); err != nil {
		return err
	}

	if opts.segmentationOut != "" {
		if err := writeBase64(opts.segmentationOut, r.SegmentationOverlay); err != nil {
			return fmt.Errorf("segmentation overlay: %w", err)
		}
	}
	if opts.heatmapOut != "" {
		blended, _, err := s.app.AnalysisService.Heatmap(localUser)
		if err != nil {
			return err
		}
		if err := writeOutput(opts.heatmapOut, blended); err != nil {
			return err
		}
	}
	return nil
}

type reportOptions struct {
	meta   entity.ReportMetadata
	outDir string
	pdf    bool
}

func newReportCommand() *cobra.Command {
	opts := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "report <image>",
		Short: "Analyze an image and generate a clinical report",
		Long: `Analyze an image, then generate a report from the result and the patient metadata.
A PDF returned by the backend is saved to --out; a JSON report is rendered and,
with --pdf, exported to PDF.

Examples:
  cytoctl report --patient-id P-102 cell.png
  cytoctl report --patient-id P-102 --clinician "Dr. Wu" --pdf --out ./reports cell.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.meta.PatientID, "patient-id", "", "patient identifier (required)")
	cmd.Flags().StringVar(&opts.meta.SampleID, "sample-id", "", "sample identifier")
	cmd.Flags().StringVar(&opts.meta.Clinician, "clinician", "", "clinician name")
	cmd.Flags().StringVar(&opts.meta.AnalysisDate, "date", "", "analysis date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.meta.Notes, "notes", "", "analyst notes")
	cmd.Flags().StringVar(&opts.outDir, "out", ".", "directory for exported files")
	cmd.Flags().BoolVar(&opts.pdf, "pdf", false, "export the JSON report to PDF")

	return cmd
}

func runReport(cmd *cobra.Command, path string, opts *reportOptions) error {
	file, err := loadImage(path)
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if _, err := s.app.AnalysisService.Submit(ctx, localUser, localChat, app.SubmitRequest{
		File:    file,
		Patient: port.Patient{ID: opts.meta.PatientID},
	}); err != nil {
		return err
	}

	outcome, err := s.app.ReportService.Generate(ctx, localUser, localChat, opts.meta)
	if err != nil {
		return err
	}
	if !outcome.IsPDF() {
		if err := render(s.out, outcome.Report, presenter.Report(outcome.Report)); err != nil {
			return err
		}
		if !opts.pdf {
			return nil
		}
	}

	exported, err := s.app.ReportService.ReportPDF(ctx, localUser, localChat)
	if err != nil {
		return err
	}
	saved, err := writeExported(opts.outDir, exported)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Saved", saved)
	return nil
}
