package entity

import "fmt"

// Action логическое действие пользователя, для которого действует запрет повторного запуска
type Action string

const (
	ActionAnalyze Action = "analyze"
	ActionQuality Action = "quality"
	ActionStain   Action = "stain"
	ActionCells   Action = "cells"
	ActionBatch   Action = "batch"
	ActionReport  Action = "report"
	ActionExport  Action = "export"
)

// ActionState состояние запроса одного действия
type ActionState string

const (
	ActionIdle       ActionState = "idle"
	ActionSubmitting ActionState = "submitting"
	ActionSuccess    ActionState = "success"
	ActionError      ActionState = "error"
)

// ActionSlot конечный автомат idle → submitting → success|error → idle.
// Повторный вход в submitting возможен только из idle.
type ActionSlot struct {
	State     ActionState
	LastError string
}

// NewActionSlot создаёт слот в состоянии idle
func NewActionSlot() *ActionSlot {
	return &ActionSlot{State: ActionIdle}
}

// Begin переводит слот в submitting.
func (s *ActionSlot) Begin() error {
	if s.State != ActionIdle {
		return ErrActionBusy
	}
	s.State = ActionSubmitting
	s.LastError = ""
	return nil
}

// Complete фиксирует исход запроса.
func (s *ActionSlot) Complete(err error) error {
	if s.State != ActionSubmitting {
		return fmt.Errorf("complete from %s: invalid transition", s.State)
	}
	if err != nil {
		s.State = ActionError
		s.LastError = err.Error()
		return nil
	}
	s.State = ActionSuccess
	return nil
}

// Settle возвращает слот в idle после публикации результата.
func (s *ActionSlot) Settle() error {
	if s.State != ActionSuccess && s.State != ActionError {
		return fmt.Errorf("settle from %s: invalid transition", s.State)
	}
	s.State = ActionIdle
	return nil
}

// Busy сообщает, что запрос в полёте
func (s ActionSlot) Busy() bool {
	return s.State == ActionSubmitting
}
