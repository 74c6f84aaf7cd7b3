package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/presenter"
)

const progressWidth = 30

type batchOptions struct {
	wait     bool
	plain    bool
	interval time.Duration
}

func newBatchCommand() *cobra.Command {
	opts := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch <image>...",
		Short: "Submit images as one batch job",
		Long: `Submit all images in one request. With --wait the job is polled until it
completes or fails; progress is shown interactively unless --plain is set.

Examples:
  cytoctl batch a.png b.png c.png
  cytoctl batch --wait --interval 5s slides/*.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.wait, "wait", "w", false, "poll the job until it finishes")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print progress lines instead of the interactive view")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "poll interval (default from config)")

	return cmd
}

func runBatch(cmd *cobra.Command, paths []string, opts *batchOptions) error {
	files, err := loadImages(paths)
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	job, err := s.app.BatchService.Submit(ctx, localUser, localChat, files)
	if err != nil {
		return err
	}
	if !opts.wait {
		return render(s.out, job, presenter.Batch(job))
	}

	interval := opts.interval
	if interval <= 0 {
		interval = s.cfg.PollInterval
	}
	if opts.plain || outputFmt == outputJSON {
		last := ""
		job, err = s.app.BatchService.Wait(ctx, localUser, localChat, interval, func(j *entity.BatchJob) {
			line := progressLine(j)
			if line != last && outputFmt != outputJSON {
				fmt.Fprintln(s.out, line)
			}
			last = line
		})
		if err != nil {
			return err
		}
		return render(s.out, job, presenter.Batch(job))
	}
	return watchBatch(ctx, s, job, interval)
}

// watchBatch показывает прогресс задания в интерактивном виде
func watchBatch(ctx context.Context, s *session, job *entity.BatchJob, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newBatchModel(job, cancel), tea.WithOutput(s.out), tea.WithContext(ctx))
	go func() {
		final, err := s.app.BatchService.Wait(ctx, localUser, localChat, interval, func(j *entity.BatchJob) {
			p.Send(batchUpdateMsg{job: j})
		})
		p.Send(batchDoneMsg{job: final, err: err})
	}()

	result, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	m, ok := result.(batchModel)
	if !ok {
		return nil
	}
	if m.err != nil && !errors.Is(m.err, context.Canceled) {
		return m.err
	}
	if m.job != nil {
		printPanels(s.out, presenter.Batch(m.job))
	}
	return nil
}

func newBatchStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "batch-status <job-id>",
		Short: "Show the state of a batch job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			job, err := s.app.BatchService.Lookup(cmd.Context(), localChat, args[0])
			if err != nil {
				return err
			}
			return render(s.out, job, presenter.Batch(job))
		},
	}
}

// progressLine одна строка прогресса задания
func progressLine(j *entity.BatchJob) string {
	return fmt.Sprintf("%s %s %s %d/%d", progressBar(j.Progress(), progressWidth), j.FormatProgress(),
		j.Status, j.ProcessedFiles, j.TotalFiles)
}

// batchUpdateMsg новое состояние задания после опроса
type batchUpdateMsg struct {
	job *entity.BatchJob
}

// batchDoneMsg опрос закончен: задание завершено или ожидание прервано
type batchDoneMsg struct {
	job *entity.BatchJob
	err error
}

// batchModel интерактивный вид прогресса пакетного задания
type batchModel struct {
	job    *entity.BatchJob
	err    error
	done   bool
	cancel context.CancelFunc
}

func newBatchModel(job *entity.BatchJob, cancel context.CancelFunc) batchModel {
	return batchModel{job: job, cancel: cancel}
}

func (m batchModel) Init() tea.Cmd {
	return nil
}

func (m batchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			m.err = context.Canceled
			m.done = true
			return m, tea.Quit
		}

	case batchUpdateMsg:
		if msg.job != nil {
			m.job = msg.job
		}

	case batchDoneMsg:
		if msg.job != nil {
			m.job = msg.job
		}
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m batchModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Batch Processing"))
	if m.job != nil {
		b.WriteString(" " + labelStyle.Render(m.job.JobID) + "\n")
		b.WriteString(progressLine(m.job) + "\n")
	}
	b.WriteString(labelStyle.Render("q to stop waiting") + "\n")
	return b.String()
}
