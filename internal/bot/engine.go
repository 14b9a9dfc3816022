package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-dialog-bot/internal/domain"
	"telegram-dialog-bot/internal/domain/model"
	"telegram-dialog-bot/internal/domain/ports/adapter"
	"telegram-dialog-bot/internal/domain/ports/repository"
	"telegram-dialog-bot/internal/i18n"
	"telegram-dialog-bot/internal/infra/logging"
	"telegram-dialog-bot/internal/infra/metrics"
)

// DoNothingToken short-circuits dispatch entirely. Steps embed it as the
// callback payload of an inert default choice.
const DoNothingToken = "noop"

const expiredNotice = "This command has expired."

// Engine routes normalized updates to command steps and manages state
// transitions across stateless webhook calls.
type Engine struct {
	registry *Registry
	chats    repository.ChatStateRepository
	tokens   repository.CallbackRepository
	sender   adapter.MessageSender

	allowChatCreation bool
	helpIntro         string
	helpRenderer      HelpRenderer
	log               *zerolog.Logger
}

func NewEngine(
	registry *Registry,
	chats repository.ChatStateRepository,
	tokens repository.CallbackRepository,
	sender adapter.MessageSender,
	allowChatCreation bool,
	helpIntro string,
	logger *zerolog.Logger,
) *Engine {
	engLog := logger.With().Str("component", "Engine").Logger()
	return &Engine{
		registry:          registry,
		chats:             chats,
		tokens:            tokens,
		sender:            sender,
		allowChatCreation: allowChatCreation,
		helpIntro:         helpIntro,
		log:               &engLog,
	}
}

// SetHelpRenderer overrides the default help text renderer.
func (e *Engine) SetHelpRenderer(fn HelpRenderer) { e.helpRenderer = fn }

// Registry exposes the engine's command table (setcommands CLI, help).
func (e *Engine) Registry() *Registry { return e.registry }

// HandleUpdate processes one raw webhook payload end to end: normalize, load
// the chat state, route to the right step and action, persist resulting state.
func (e *Engine) HandleUpdate(ctx context.Context, raw []byte) error {
	start := time.Now()
	defer func() { metrics.ObserveDispatch(time.Since(start).Seconds()) }()

	upd, err := ParseUpdate(raw)
	if err != nil {
		metrics.IncUpdateReceived("malformed")
		return err
	}
	metrics.IncUpdateReceived(updateKind(upd))

	ctx = logging.WithChatID(ctx, upd.ChatID)
	defer logging.TraceDuration(logging.With(ctx, e.log), "Engine.HandleUpdate")()

	chat, err := e.chatState(ctx, upd)
	if err != nil {
		return err
	}

	switch {
	case upd.IsSlashCommand():
		return e.startCommandOrSendHelp(ctx, upd, chat)
	case upd.IsButtonInteraction():
		return e.callStep(ctx, upd.CallbackToken, chat, upd)
	case chat.WaitingFor() != "":
		return e.callStep(ctx, chat.WaitingFor(), chat, upd)
	default:
		return e.sendHelp(ctx, chat, upd)
	}
}

func (e *Engine) startCommandOrSendHelp(ctx context.Context, upd Update, chat *model.ChatState) error {
	cmd, err := e.registry.Resolve(upd.CommandName())
	if errors.Is(err, domain.ErrCommandNotFound) {
		return e.sendHelp(ctx, chat, upd)
	}
	if err != nil {
		return err
	}
	return e.runner(cmd, chat).start(ctx, upd)
}

// callStep resolves a callback token to its command and action and executes it.
// A missing token is not an error: the user is told the interaction expired.
func (e *Engine) callStep(ctx context.Context, token string, chat *model.ChatState, upd Update) error {
	if token == DoNothingToken {
		return nil
	}
	ctx = logging.WithToken(ctx, token)

	rec, err := e.tokens.Get(ctx, token)
	if errors.Is(err, domain.ErrTokenNotFound) {
		logging.With(ctx, e.log).Info().Msg("callback token expired")
		return e.sender.Send(ctx, expiredNotice, upd.ChatID, nil, upd.MessageID)
	}
	if err != nil {
		return fmt.Errorf("load callback token: %w", err)
	}

	cmd, err := e.registry.Resolve(rec.Command)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", rec.Command, err)
	}

	r := e.runner(cmd, chat)
	switch rec.Action {
	case model.ActionStart:
		return r.start(ctx, upd)
	case model.ActionNextStep:
		return r.nextStep(ctx, rec.Step, upd)
	case model.ActionPreviousStep:
		return r.previousStep(ctx, rec.Step, upd)
	case model.ActionCurrentStep:
		return r.currentStep(ctx, rec.Step, upd)
	case model.ActionCancel:
		return r.cancel(ctx, rec.Step, upd)
	default:
		return fmt.Errorf("unknown action %q for token %s", rec.Action, token)
	}
}

// chatState loads the per-chat record, lazily creating it when permitted.
func (e *Engine) chatState(ctx context.Context, upd Update) (*model.ChatState, error) {
	chat, err := e.chats.Get(ctx, upd.ChatID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, domain.ErrChatNotFound) {
		return nil, err
	}
	if !e.allowChatCreation {
		return nil, fmt.Errorf("chat %d: %w", upd.ChatID, err)
	}
	chat = model.NewChatState(upd.ChatID)
	if err := e.chats.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("create chat %d: %w", upd.ChatID, err)
	}
	return chat, nil
}

// createToken persists a new callback record and returns its opaque token.
// The payload is merged over defaults: a correlation key is generated only when
// the payload does not already carry one.
func (e *Engine) createToken(ctx context.Context, cmd *Command, step, action string, data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data[model.CorrelationKey]; !ok {
		data[model.CorrelationKey] = uuid.NewString()
	}
	rec := &model.CallbackRecord{
		Token:     uuid.NewString(),
		Command:   cmd.CommandString(),
		Step:      step,
		Action:    model.Action(action),
		Data:      data,
		CreatedAt: time.Now(),
	}
	if err := e.tokens.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("create callback token: %w", err)
	}
	return rec.Token, nil
}

// tokenData returns the data stored behind token, or the default data (a fresh
// correlation key) when token is empty.
func (e *Engine) tokenData(ctx context.Context, token string) (map[string]any, error) {
	if token == "" {
		return defaultCallbackData(), nil
	}
	rec, err := e.tokens.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	return cloneData(rec.Data), nil
}

func (e *Engine) runner(cmd *Command, chat *model.ChatState) *runner {
	return &runner{engine: e, cmd: cmd, chat: chat}
}

func defaultCallbackData() map[string]any {
	return map[string]any{model.CorrelationKey: uuid.NewString()}
}

func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func updateKind(upd Update) string {
	switch {
	case upd.IsSlashCommand():
		return "command"
	case upd.IsButtonInteraction():
		return "callback"
	default:
		return "text"
	}
}

// runner binds one command to one chat's persistent state for the duration of
// a single dispatch.
type runner struct {
	engine *Engine
	cmd    *Command
	chat   *model.ChatState
}

func (r *runner) start(ctx context.Context, upd Update) error {
	r.engine.log.Info().Str("command", r.cmd.Name).Int64("chat_id", r.chat.ChatID).Msg("starting command")
	if err := r.clearState(ctx); err != nil {
		return err
	}
	return r.invoke(ctx, 0, upd)
}

func (r *runner) nextStep(ctx context.Context, current string, upd Update) error {
	idx, err := r.index(current)
	if err != nil {
		return err
	}
	if idx+1 < len(r.cmd.Steps) {
		return r.invoke(ctx, idx+1, upd)
	}
	return r.finish(ctx, current, upd)
}

// previousStep rewinds by the trigger's _steps_back (default 1). Rewinding past
// the first step is a silent no-op, not an error.
func (r *runner) previousStep(ctx context.Context, current string, upd Update) error {
	idx, err := r.index(current)
	if err != nil {
		return err
	}
	data, err := r.engine.tokenData(ctx, upd.CallbackToken)
	if err != nil {
		return err
	}
	back := intValue(data[model.StepsBackKey], 1)
	if idx-back < 0 {
		return nil
	}
	return r.invoke(ctx, idx-back, upd)
}

func (r *runner) currentStep(ctx context.Context, current string, upd Update) error {
	idx, err := r.index(current)
	if err != nil {
		return err
	}
	return r.invoke(ctx, idx, upd)
}

func (r *runner) cancel(ctx context.Context, current string, upd Update) error {
	r.engine.log.Info().Str("command", r.cmd.Name).Str("step", current).Msg("command canceled")
	data, err := r.engine.tokenData(ctx, upd.CallbackToken)
	if err != nil {
		return err
	}
	lctx := i18n.WithLocale(ctx, upd.LanguageCode)
	text, ok := data[model.CancelTextKey].(string)
	if !ok || text == "" {
		text = i18n.T(lctx, "Command canceled.")
	}
	if err := r.engine.sender.Send(ctx, text, r.chat.ChatID, nil, 0); err != nil {
		return err
	}
	return r.finish(ctx, current, upd)
}

// finish clears chat state and deletes the whole token family sharing the
// trigger's correlation key. A tokenless trigger resolves to a fresh key, so
// nothing is deleted; leftover tokens age out via the store's TTL.
func (r *runner) finish(ctx context.Context, current string, upd Update) error {
	r.engine.log.Info().Str("command", r.cmd.Name).Str("step", current).Msg("finishing command")
	if err := r.clearState(ctx); err != nil {
		return err
	}
	data, err := r.engine.tokenData(ctx, upd.CallbackToken)
	if err != nil {
		return err
	}
	if corr, ok := data[model.CorrelationKey].(string); ok && corr != "" {
		if err := r.engine.tokens.DeleteByCorrelation(ctx, corr); err != nil {
			return fmt.Errorf("clear callback tokens: %w", err)
		}
	}
	return nil
}

// invoke resolves the step's input data and runs its handler under the
// update's locale scope (unless translation is disabled for the step).
func (r *runner) invoke(ctx context.Context, idx int, upd Update) error {
	if idx < 0 || idx >= len(r.cmd.Steps) {
		return fmt.Errorf("command %s has no step %d", r.cmd.Name, idx)
	}
	step := &r.cmd.Steps[idx]
	data, err := r.resolveInput(ctx, upd)
	if err != nil {
		return fmt.Errorf("step %s/%s: resolve input: %w", r.cmd.Name, step.ID, err)
	}
	inv := &Invocation{
		Update: upd,
		Data:   data,
		engine: r.engine,
		cmd:    r.cmd,
		step:   step,
		chat:   r.chat,
	}
	if r.cmd.translates(idx) {
		ctx = i18n.WithLocale(ctx, upd.LanguageCode)
	}
	return step.Handle(ctx, inv)
}

// resolveInput implements the step input contract: an explicit callback token
// wins; a free-text reply with a pending waiting-for token binds the stripped
// message text into that token's data under its _message_key; otherwise the
// default data applies.
func (r *runner) resolveInput(ctx context.Context, upd Update) (map[string]any, error) {
	if upd.CallbackToken == "" && upd.IsTextMessage() && !upd.IsSlashCommand() {
		if waiting := r.chat.WaitingFor(); waiting != "" {
			data, err := r.engine.tokenData(ctx, waiting)
			if err != nil {
				return nil, err
			}
			if key, ok := data[model.MessageKey].(string); ok && key != "" {
				data[key] = strings.TrimSpace(upd.MessageText)
			}
			return data, nil
		}
	}
	return r.engine.tokenData(ctx, upd.CallbackToken)
}

func (r *runner) clearState(ctx context.Context) error {
	r.chat.Clear()
	if err := r.engine.chats.Save(ctx, r.chat); err != nil {
		return fmt.Errorf("clear chat state: %w", err)
	}
	return nil
}

func (r *runner) index(name string) (int, error) {
	idx := r.cmd.stepIndex(name)
	if idx < 0 {
		return 0, fmt.Errorf("command %s has no step %q", r.cmd.Name, name)
	}
	return idx, nil
}

func intValue(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64: // JSON round-trip turns ints into float64
		return int(n)
	default:
		return fallback
	}
}
