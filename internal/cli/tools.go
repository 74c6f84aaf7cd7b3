package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/presenter"
)

func newQualityCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "quality <image>",
		Short: "Assess image quality",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := loadImage(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			q, err := s.app.ToolService.AssessQuality(cmd.Context(), localUser, localChat, file)
			if err != nil {
				return err
			}
			if err := render(s.out, q, presenter.Quality(q)); err != nil {
				return err
			}
			return saveImage(out, q.NormalizedImage)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the normalized image to this file")
	return cmd
}

func newCellsCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "cells <image>",
		Short: "Detect multiple cells in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := loadImage(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			cells, err := s.app.ToolService.DetectCells(cmd.Context(), localUser, localChat, file)
			if err != nil {
				return err
			}
			if err := render(s.out, cells, presenter.MultiCell(cells)); err != nil {
				return err
			}
			return saveImage(out, cells.ImageWithBoxes)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the image with bounding boxes to this file")
	return cmd
}

func newStainCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "stain <source> <target>",
		Short: "Normalize the stain of source to match target",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := loadImage(args[0])
			if err != nil {
				return err
			}
			target, err := loadImage(args[1])
			if err != nil {
				return err
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.app.ToolService.SelectStainSource(localUser, source); err != nil {
				return err
			}
			stain, err := s.app.ToolService.NormalizeStain(cmd.Context(), localUser, localChat, target)
			if err != nil {
				return err
			}
			if err := render(s.out, stain, presenter.Stain(stain)); err != nil {
				return err
			}
			return saveImage(out, &stain.NormalizedImage)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the normalized image to this file")
	return cmd
}

// toolsResult результаты инструментов, запущенных параллельно
type toolsResult struct {
	Quality   *entity.QualityAssessment        `json:"quality,omitempty"`
	MultiCell *entity.MultiCellDetectionResult `json:"multi_cell,omitempty"`
}

func newToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools <image>",
		Short: "Run quality assessment and multi-cell detection concurrently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := loadImage(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			// У каждого инструмента свой слот; сбой одного не отменяет другой
			var res toolsResult
			var g errgroup.Group
			ctx := cmd.Context()
			g.Go(func() error {
				q, err := s.app.ToolService.AssessQuality(ctx, localUser, localChat, file)
				res.Quality = q
				return err
			})
			g.Go(func() error {
				cells, err := s.app.ToolService.DetectCells(ctx, localUser, localChat, file)
				res.MultiCell = cells
				return err
			})
			groupErr := g.Wait()

			if err := render(s.out, res, presenter.Quality(res.Quality), presenter.MultiCell(res.MultiCell)); err != nil {
				return err
			}
			return groupErr
		},
	}
}

// saveImage пишет изображение из ответа, если задан путь
func saveImage(path string, b64 *string) error {
	if path == "" {
		return nil
	}
	err := writeBase64(path, b64)
	if errors.Is(err, errNoImage) {
		return fmt.Errorf("%s: %w", path, err)
	}
	return err
}
