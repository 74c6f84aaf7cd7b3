package app

import (
	"errors"
	"sync"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

// slotActions действия, для каждого из которых у пользователя свой слот
var slotActions = []entity.Action{
	entity.ActionAnalyze,
	entity.ActionQuality,
	entity.ActionStain,
	entity.ActionCells,
	entity.ActionBatch,
	entity.ActionReport,
	entity.ActionExport,
}

// Параметры отображения карты объяснимости по умолчанию
const (
	DefaultOpacity = 70
	DefaultMethod  = entity.MethodScoreCAM
)

// ExplainabilityView выбранный пользователем вид карты объяснимости
type ExplainabilityView struct {
	Method  string
	Mode    port.BlendMode
	Opacity int
}

// DefaultView вид карты после нового анализа
func DefaultView() ExplainabilityView {
	return ExplainabilityView{Method: DefaultMethod, Mode: port.BlendOverlay, Opacity: DefaultOpacity}
}

// Snapshot копия состояния рабочего пространства на момент чтения.
// Результаты не изменяются после сохранения, поэтому указатели можно отдавать наружу.
type Snapshot struct {
	Epoch       uint64
	Result      *entity.AnalysisResult
	Upload      *entity.ImageFile
	Preview     []byte
	View        ExplainabilityView
	Quality     *entity.QualityAssessment
	Stain       *entity.StainNormalization
	StainSource *entity.ImageFile
	Cells       *entity.MultiCellDetectionResult
	Batch       *entity.BatchJob
	BatchFiles  []entity.ImageFile
	Report      *entity.ReportOutcome
	Slots       map[entity.Action]entity.ActionSlot
}

// Workspace временное состояние одного пользователя: слоты действий и последние результаты.
type Workspace struct {
	mu    sync.Mutex
	epoch uint64
	slots map[entity.Action]*entity.ActionSlot

	result  *entity.AnalysisResult
	upload  *entity.ImageFile
	preview []byte
	view    ExplainabilityView

	quality     *entity.QualityAssessment
	stain       *entity.StainNormalization
	stainSource *entity.ImageFile
	cells       *entity.MultiCellDetectionResult

	batch      *entity.BatchJob
	batchFiles []entity.ImageFile

	report *entity.ReportOutcome
}

func newWorkspace() *Workspace {
	w := &Workspace{}
	w.resetLocked()
	return w
}

func (w *Workspace) resetLocked() {
	w.slots = make(map[entity.Action]*entity.ActionSlot, len(slotActions))
	for _, a := range slotActions {
		w.slots[a] = entity.NewActionSlot()
	}
	w.result, w.upload, w.preview = nil, nil, nil
	w.view = DefaultView()
	w.quality, w.stain, w.stainSource, w.cells = nil, nil, nil, nil
	w.batch, w.batchFiles = nil, nil
	w.report = nil
}

// Reset забывает все результаты. Ответы на запросы, начатые до сброса, будут отброшены.
func (w *Workspace) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.epoch++
	w.resetLocked()
}

// Snapshot возвращает копию состояния
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	slots := make(map[entity.Action]entity.ActionSlot, len(w.slots))
	for a, s := range w.slots {
		slots[a] = *s
	}
	return Snapshot{
		Epoch:       w.epoch,
		Result:      w.result,
		Upload:      w.upload,
		Preview:     w.preview,
		View:        w.view,
		Quality:     w.quality,
		Stain:       w.stain,
		StainSource: w.stainSource,
		Cells:       w.cells,
		Batch:       w.batch,
		BatchFiles:  append([]entity.ImageFile(nil), w.batchFiles...),
		Report:      w.report,
		Slots:       slots,
	}
}

// update меняет состояние под блокировкой
func (w *Workspace) update(fn func(w *Workspace)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(w)
}

// ticket запрос, начатый в конкретную эпоху
type ticket struct {
	action entity.Action
	epoch  uint64
	slot   *entity.ActionSlot
}

// begin занимает слот действия. Занятый слот даёт ErrActionBusy.
func (w *Workspace) begin(action entity.Action) (ticket, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	slot := w.slots[action]
	if err := slot.Begin(); err != nil {
		return ticket{}, err
	}
	return ticket{action: action, epoch: w.epoch, slot: slot}, nil
}

// finish освобождает слот и применяет результат, если эпоха не сменилась.
// Ответ устаревшей эпохи отбрасывается целиком: и результат, и ошибка.
func (w *Workspace) finish(t ticket, reqErr error, apply func(w *Workspace)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := t.slot.Complete(reqErr); err != nil {
		return err
	}
	if err := t.slot.Settle(); err != nil {
		return err
	}
	if t.epoch != w.epoch {
		return entity.ErrResultDiscarded
	}
	if reqErr != nil {
		return reqErr
	}
	if apply != nil {
		apply(w)
	}
	return nil
}

// WorkspaceStore рабочие пространства пользователей
type WorkspaceStore struct {
	mu     sync.Mutex
	spaces map[int64]*Workspace
}

// NewWorkspaceStore создаёт пустое хранилище
func NewWorkspaceStore() *WorkspaceStore {
	return &WorkspaceStore{spaces: make(map[int64]*Workspace)}
}

// Get возвращает рабочее пространство пользователя, создавая его при первом обращении
func (s *WorkspaceStore) Get(userID int64) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.spaces[userID]
	if !ok {
		w = newWorkspace()
		s.spaces[userID] = w
	}
	return w
}

// Reset сбрасывает рабочее пространство пользователя
func (s *WorkspaceStore) Reset(userID int64) {
	s.Get(userID).Reset()
}

// IsDiscarded сообщает, что ответ пришёл после сброса и был отброшен
func IsDiscarded(err error) bool {
	return errors.Is(err, entity.ErrResultDiscarded)
}
