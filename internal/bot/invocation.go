package bot

import (
	"context"

	"telegram-dialog-bot/internal/domain/model"
	"telegram-dialog-bot/internal/domain/ports/adapter"
)

// Invocation is one step execution: the triggering update, the resolved input
// data and the helpers a step needs to send messages and mint the callback
// tokens for its possible next actions.
type Invocation struct {
	Update Update
	// Data is the resolved input data. It always carries a correlation key;
	// the framework never schema-validates the rest.
	Data map[string]any

	engine *Engine
	cmd    *Command
	step   *Step
	chat   *model.ChatState
}

// ChatID returns the chat this invocation belongs to.
func (inv *Invocation) ChatID() int64 { return inv.chat.ChatID }

// State exposes the chat's persistent state for advanced step logic. Mutations
// must be persisted with SaveState.
func (inv *Invocation) State() *model.ChatState { return inv.chat }

// SaveState persists the chat state record.
func (inv *Invocation) SaveState(ctx context.Context) error {
	return inv.engine.chats.Save(ctx, inv.chat)
}

// Send delivers text to the invocation's chat. When the triggering update was
// a button interaction the existing message is edited in place.
func (inv *Invocation) Send(ctx context.Context, text string, keyboard [][]adapter.Button) error {
	return inv.engine.sender.Send(ctx, text, inv.chat.ChatID, keyboard, inv.Update.MessageID)
}

// NextStepCallback mints a token that advances to the next step. extra is
// merged over data; the correlation key is carried forward unless the merged
// payload starts a fresh one.
func (inv *Invocation) NextStepCallback(ctx context.Context, data, extra map[string]any) (string, error) {
	return inv.createCallback(ctx, model.ActionNextStep, data, extra)
}

// PreviousStepCallback mints a token that rewinds stepsBack steps.
func (inv *Invocation) PreviousStepCallback(ctx context.Context, stepsBack int, data, extra map[string]any) (string, error) {
	if extra == nil {
		extra = map[string]any{}
	}
	extra[model.StepsBackKey] = stepsBack
	return inv.createCallback(ctx, model.ActionPreviousStep, data, extra)
}

// CurrentStepCallback mints a token that re-invokes this step with the given
// data (in-place UI updates such as pagination).
func (inv *Invocation) CurrentStepCallback(ctx context.Context, data, extra map[string]any) (string, error) {
	return inv.createCallback(ctx, model.ActionCurrentStep, data, extra)
}

// CancelCallback mints a token that cancels the command. The cancellation
// message can be overridden via a "cancel_text" entry.
func (inv *Invocation) CancelCallback(ctx context.Context, data, extra map[string]any) (string, error) {
	return inv.createCallback(ctx, model.ActionCancel, data, extra)
}

// RestartCallback mints a token that restarts the command from its first step,
// clearing the chat state first.
func (inv *Invocation) RestartCallback(ctx context.Context, data, extra map[string]any) (string, error) {
	return inv.createCallback(ctx, model.ActionStart, data, extra)
}

// WaitForInput registers that the chat's next free-text message is input for
// messageKey: a next-step token tagged with the key is persisted into the
// chat state as the waiting-for pointer.
func (inv *Invocation) WaitForInput(ctx context.Context, messageKey string, data map[string]any) error {
	token, err := inv.NextStepCallback(ctx, data, map[string]any{model.MessageKey: messageKey})
	if err != nil {
		return err
	}
	inv.chat.Data[model.WaitingForKey] = token
	return inv.SaveState(ctx)
}

// Advance moves the dialog past this step immediately: the next step runs with
// this invocation's update, or the command finishes when this is the last step.
func (inv *Invocation) Advance(ctx context.Context) error {
	return inv.engine.runner(inv.cmd, inv.chat).nextStep(ctx, inv.step.ID, inv.Update)
}

func (inv *Invocation) createCallback(ctx context.Context, action model.Action, data, extra map[string]any) (string, error) {
	merged := make(map[string]any, len(data)+len(extra))
	for k, v := range data {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return inv.engine.createToken(ctx, inv.cmd, inv.step.ID, string(action), merged)
}
