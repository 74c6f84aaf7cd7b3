package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	app "cyto-bot/internal/application"
	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/rules"
	"cyto-bot/internal/presenter"
)

// defaultSettle сколько файл должен не меняться, прежде чем уйти на анализ
const defaultSettle = 500 * time.Millisecond

type watchOptions struct {
	classify bool
	settle   time.Duration
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Analyze images as they appear in a folder",
		Long: `Monitor a folder and analyze every image written to it. A file is sent once
it has not changed for --settle. Press Ctrl+C to stop watching.

Examples:
  cytoctl watch ./incoming
  cytoctl watch --classify --settle 2s /mnt/scanner`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.classify, "classify", false, "classification only, without segmentation")
	cmd.Flags().DurationVar(&opts.settle, "settle", defaultSettle, "quiet period before a new file is analyzed")

	return cmd
}

func runWatch(cmd *cobra.Command, dir string, opts *watchOptions) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch folder: %w", err)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s, press Ctrl+C to stop...\n", dir)

	ready := debounceEvents(ctx, watcher.Events, opts.settle)
	for {
		select {
		case <-ctx.Done():
			return nil

		case path, ok := <-ready:
			if !ok {
				return nil
			}
			line, err := analyzeWatched(ctx, s, path, opts.classify)
			if err != nil {
				if !app.Notified(err) && !app.IsDiscarded(err) {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", filepath.Base(path), errorText(err))
				}
				continue
			}
			fmt.Fprintln(s.out, line)

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}

func analyzeWatched(ctx context.Context, s *session, path string, classifyOnly bool) (string, error) {
	file, err := loadImage(path)
	if err != nil {
		return "", err
	}
	out, err := s.app.AnalysisService.Submit(ctx, localUser, localChat, app.SubmitRequest{File: file, ClassifyOnly: classifyOnly})
	if err != nil {
		return "", err
	}
	return summarize(file.Name, out.Result), nil
}

// summarize одна строка с итогом анализа файла
func summarize(name string, r *entity.AnalysisResult) string {
	confidence, ok := r.Confidence()
	if !ok {
		confidence = r.Probabilities.Max() * 100
	}
	badge := presenter.BadgeLowRisk
	if rules.IsHighRiskClass(r.PredictedClass) {
		badge = presenter.BadgeHighRisk
	}
	return fmt.Sprintf("%s: %s %.1f%% [%s]", name, r.PredictedClass, rules.ClampPercent(confidence), badge)
}

// pendingFile ожидающий файл; gen отличает перезапуски таймера
type pendingFile struct {
	timer *time.Timer
	gen   int
}

type settledFile struct {
	name string
	gen  int
}

// debounceEvents отдаёт путь снимка, когда события по нему стихли на settle.
func debounceEvents(ctx context.Context, events <-chan fsnotify.Event, settle time.Duration) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)

		pending := make(map[string]*pendingFile)
		fired := make(chan settledFile)
		defer func() {
			for _, p := range pending {
				p.timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) || !isImagePath(ev.Name) {
					continue
				}
				p := pending[ev.Name]
				if p == nil {
					p = &pendingFile{}
					pending[ev.Name] = p
				} else {
					p.timer.Stop()
				}
				p.gen++
				msg := settledFile{name: ev.Name, gen: p.gen}
				p.timer = time.AfterFunc(settle, func() {
					select {
					case fired <- msg:
					case <-ctx.Done():
					}
				})

			case msg := <-fired:
				p := pending[msg.name]
				if p == nil || p.gen != msg.gen {
					continue
				}
				delete(pending, msg.name)
				select {
				case out <- msg.name:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
