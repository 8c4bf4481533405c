package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"quill/chat"
	"quill/config"
	"quill/llm"
	"quill/vault"
)

// Phase tracks where a view's generation currently is. Transitions run
// Idle -> Dispatching -> Streaming -> Finalizing -> Idle; any failure drops
// straight back to Idle after the notice is raised.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDispatching
	PhaseStreaming
	PhaseFinalizing
)

// DefaultRollbackDelay is how long a failed prompt stays visible before the
// trailing user turn is removed from the conversation.
const DefaultRollbackDelay = time.Second

type viewState struct {
	store *chat.MessageStore
	phase Phase
	busy  bool
}

// Engine drives generation for every chat view: it assembles the request
// from the view's settings, injects vault context, dispatches to the right
// provider adapter, consumes the normalized chunk stream, and commits the
// finished exchange to the history ledger.
//
// Generations are serialized per view; different views may generate from
// separate goroutines. The ledger and settings saves are guarded, but
// regenerating the same ledger index from two views at once is a caller
// error.
type Engine struct {
	mu     sync.Mutex
	saveMu sync.Mutex

	settings *config.Settings
	store    config.Store
	history  *chat.History
	builder  *vault.ContextBuilder

	preview  PreviewSink
	notifier Notifier
	adapters AdapterFactory
	log      *slog.Logger

	rollbackDelay time.Duration

	views map[config.ViewType]*viewState
}

// Options carries the optional collaborators; zero values get sensible
// defaults in New.
type Options struct {
	Preview       PreviewSink
	Notifier      Notifier
	Adapters      AdapterFactory
	RollbackDelay time.Duration
}

func New(settings *config.Settings, store config.Store, v vault.Vault, log *slog.Logger, opts Options) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if opts.Preview == nil {
		opts.Preview = NopPreview{}
	}
	if opts.Notifier == nil {
		opts.Notifier = NewSingletonNotifier(nil)
	}
	if opts.Adapters == nil {
		opts.Adapters = NewAdapterFactory()
	}
	if opts.RollbackDelay == 0 {
		opts.RollbackDelay = DefaultRollbackDelay
	}

	e := &Engine{
		settings:      settings,
		store:         store,
		preview:       opts.Preview,
		notifier:      opts.Notifier,
		adapters:      opts.Adapters,
		log:           log,
		rollbackDelay: opts.RollbackDelay,
		views: map[config.ViewType]*viewState{
			config.ViewModal:  {store: chat.NewMessageStore()},
			config.ViewWidget: {store: chat.NewMessageStore()},
			config.ViewFAB:    {store: chat.NewMessageStore()},
		},
	}
	if v != nil {
		e.builder = vault.NewContextBuilder(v, log)
	}
	e.history = chat.NewHistory(settings.PromptHistory, func(items []chat.HistoryItem) {
		e.saveMu.Lock()
		defer e.saveMu.Unlock()
		e.settings.PromptHistory = items
		e.saveLocked()
	})
	return e
}

// History exposes the shared exchange ledger.
func (e *Engine) History() *chat.History { return e.history }

// Messages returns a snapshot of the view's conversation.
func (e *Engine) Messages(viewType config.ViewType) []llm.Message {
	vs, ok := e.views[viewType]
	if !ok {
		return nil
	}
	return vs.store.Messages()
}

// MessageStore hands out the view's live store so a UI can subscribe.
func (e *Engine) MessageStore(viewType config.ViewType) *chat.MessageStore {
	vs, ok := e.views[viewType]
	if !ok {
		return nil
	}
	return vs.store
}

// Phase reports the view's current generation phase.
func (e *Engine) Phase(viewType config.ViewType) Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	if vs, ok := e.views[viewType]; ok {
		return vs.phase
	}
	return PhaseIdle
}

// NewConversation wipes the view's conversation and detaches it from the
// ledger so the next generation starts a fresh history entry.
func (e *Engine) NewConversation(viewType config.ViewType) error {
	view, err := e.settings.View(viewType)
	if err != nil {
		return goerr.Wrap(err, "unknown view", goerr.T(TagConfiguration))
	}
	if vs, ok := e.views[viewType]; ok {
		vs.store.Reset()
	}

	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	view.HistoryIndex = -1
	e.saveLocked()
	return nil
}

// Generate runs one full exchange for the view: append the user turn,
// stream the reply, commit to history. It blocks until the exchange is
// committed or has failed. Only one generation per view may be in flight.
func (e *Engine) Generate(ctx context.Context, viewType config.ViewType, prompt string) error {
	view, err := e.settings.View(viewType)
	if err != nil {
		return goerr.Wrap(err, "unknown view", goerr.T(TagConfiguration))
	}
	vs, err := e.acquire(viewType)
	if err != nil {
		return err
	}
	defer e.release(vs)

	e.recall(view, vs)

	if err := e.generate(ctx, viewType, view, vs, prompt, true); err != nil {
		e.report(viewType, err)
		return err
	}
	return nil
}

// Regenerate discards the newest assistant turn of the exchange the view is
// on and produces a replacement for the same trailing user turn. The ledger
// entry is overwritten in place, never duplicated.
func (e *Engine) Regenerate(ctx context.Context, viewType config.ViewType) error {
	view, err := e.settings.View(viewType)
	if err != nil {
		return goerr.Wrap(err, "unknown view", goerr.T(TagConfiguration))
	}
	vs, err := e.acquire(viewType)
	if err != nil {
		return err
	}
	defer e.release(vs)

	e.recall(view, vs)

	msgs := vs.store.Messages()
	if len(msgs) > 0 && msgs[len(msgs)-1].Role == llm.RoleAssistant {
		vs.store.PopLast()
		if view.HistoryIndex > -1 {
			if uerr := e.history.Update(view.HistoryIndex, vs.store.Messages()); uerr != nil {
				e.log.Warn("history update failed", "error", uerr)
			}
		}
	}

	msgs = vs.store.Messages()
	if len(msgs) == 0 || msgs[len(msgs)-1].Role != llm.RoleUser {
		return goerr.New("nothing to regenerate", goerr.T(TagConfiguration))
	}
	prompt := msgs[len(msgs)-1].Content

	if err := e.generate(ctx, viewType, view, vs, prompt, false); err != nil {
		e.report(viewType, err)
		return err
	}
	return nil
}

func (e *Engine) acquire(viewType config.ViewType) (*viewState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	vs, ok := e.views[viewType]
	if !ok {
		return nil, goerr.New("unknown view", goerr.T(TagConfiguration), goerr.V("view", viewType))
	}
	if vs.busy {
		return nil, ErrBusy
	}
	vs.busy = true
	return vs, nil
}

func (e *Engine) release(vs *viewState) {
	e.mu.Lock()
	vs.busy = false
	vs.phase = PhaseIdle
	e.mu.Unlock()
}

func (e *Engine) setPhase(vs *viewState, p Phase) {
	e.mu.Lock()
	vs.phase = p
	e.mu.Unlock()
}

// recall loads the view's attached ledger entry into its message store, so
// reopening a view continues the exchange it was on.
func (e *Engine) recall(view *config.ViewSettings, vs *viewState) {
	if view.HistoryIndex < 0 {
		return
	}
	item, err := e.history.At(view.HistoryIndex)
	if err != nil {
		e.log.Warn("stale history index, detaching", "index", view.HistoryIndex)
		view.HistoryIndex = -1
		return
	}
	if vs.store.Len() == 0 {
		vs.store.Set(item.Messages)
	}
}

func (e *Engine) generate(ctx context.Context, viewType config.ViewType, view *config.ViewSettings, vs *viewState, prompt string, appendTurn bool) error {
	e.setPhase(vs, PhaseDispatching)
	defer e.setPhase(vs, PhaseIdle)

	if strings.TrimSpace(prompt) == "" {
		return goerr.New("empty prompt", goerr.T(TagConfiguration))
	}
	if view.Model == "" {
		return goerr.New("no model selected", goerr.T(TagConfiguration))
	}
	if err := e.checkCredential(view); err != nil {
		return err
	}

	var vctx *vault.Context
	if appendTurn {
		if view.Endpoint != llm.EndpointImages {
			vctx = e.injectContext(view, vs)
		}
		vs.store.Add(llm.Message{Role: llm.RoleUser, Content: prompt})
	}

	e.preview.Begin()

	var reply string
	var err error
	if view.Endpoint == llm.EndpointImages {
		reply, err = e.generateImages(ctx, view, prompt)
	} else {
		reply, err = e.streamReply(ctx, view, vs, prompt)
	}
	if err != nil {
		// Only the turn appended by this call is rolled back; a failed
		// regenerate leaves the retained user turn in place.
		if appendTurn {
			e.rollback(vs)
		}
		return err
	}

	e.setPhase(vs, PhaseFinalizing)
	vs.store.Add(llm.Message{Role: llm.RoleAssistant, Content: reply})
	e.preview.Finalize(reply)
	e.commit(viewType, view, vs, prompt, vctx)
	return nil
}

func (e *Engine) checkCredential(view *config.ViewSettings) error {
	if view.ModelType == llm.TypeGPT4All {
		return nil
	}
	if e.settings.KeyFor(view.ModelType) == "" {
		return goerr.New("no API key configured",
			goerr.T(TagConfiguration), goerr.V("provider", view.ModelType))
	}
	return nil
}

// injectContext adds the formatted vault context as a user turn ahead of the
// prompt. Nothing is added when context is disabled or empty.
func (e *Engine) injectContext(view *config.ViewSettings, vs *viewState) *vault.Context {
	if !e.settings.EnableFileContext || e.builder == nil {
		return nil
	}
	budget := e.builder.ContextTokenBudget(view.ChatSettings.MaxTokens, view.ContextSettings.MaxContextTokensPercent)
	formatted, vctx := e.builder.BuildFormattedContext(view.ContextSettings, budget)
	if formatted == "" {
		return nil
	}
	vs.store.Add(llm.Message{Role: llm.RoleUser, Content: formatted})
	return vctx
}

func (e *Engine) adapterConfig(view *config.ViewSettings) llm.AdapterConfig {
	// Local registry entries carry an endpoint path, not a base URL; the
	// GPT4All adapter supplies its own fixed address.
	baseURL := view.EndpointURL
	if view.ModelType == llm.TypeGPT4All {
		baseURL = ""
	}
	return llm.AdapterConfig{
		Model:   view.Model,
		APIKey:  e.settings.KeyFor(view.ModelType),
		BaseURL: baseURL,
		Timeout: llm.DefaultTimeout,
	}
}

// streamReply picks the provider, starts the stream, and consumes it to a
// single reply string. Dispatch order matters: assistants first, then the
// Gemini model family regardless of endpoint, then the messages endpoint,
// then local models ahead of the generic chat endpoint they share a wire
// shape with.
func (e *Engine) streamReply(ctx context.Context, view *config.ViewSettings, vs *viewState, prompt string) (string, error) {
	msgs := vs.store.Messages()
	params := llm.ChatParams{
		Prompt:      prompt,
		Messages:    msgs,
		Model:       view.Model,
		Tokens:      view.ChatSettings.MaxTokens,
		Temperature: view.ChatSettings.Temperature,
		TopP:        view.ChatSettings.TopP,
	}
	cfg := e.adapterConfig(view)

	chunks := make(chan llm.StreamChunk)
	errs := make(chan error, 1)

	switch {
	case view.Assistant || view.Endpoint == llm.EndpointAssistant:
		runner := e.adapters.Assistants(cfg)
		ap := llm.AssistantParams{
			Prompt:      prompt,
			Messages:    msgs,
			Model:       view.Model,
			AssistantID: view.AssistantID,
		}
		go func() { errs <- runner.StreamRun(ctx, ap, chunks) }()

	case llm.IsGeminiModel(view.Model):
		adapter, err := e.adapters.Gemini(ctx, cfg)
		if err != nil {
			return "", goerr.Wrap(err, "gemini client", goerr.T(TagTransport))
		}
		go func() { errs <- adapter.StreamChat(ctx, params, chunks) }()

	case view.Endpoint == llm.EndpointMessages:
		// the messages endpoint takes only the newest turn; earlier turns
		// stay in the local conversation
		if len(params.Messages) > 0 {
			params.Messages = params.Messages[len(params.Messages)-1:]
		}
		adapter := e.adapters.Claude(cfg)
		go func() { errs <- adapter.StreamChat(ctx, params, chunks) }()

	case view.ModelType == llm.TypeGPT4All:
		adapter := e.adapters.GPT4All(cfg)
		if h, ok := adapter.(interface{ Healthy(context.Context) bool }); ok && !h.Healthy(ctx) {
			return "", goerr.New("local model server is not running",
				goerr.T(TagConfiguration), goerr.V("baseURL", cfg.BaseURL))
		}
		go func() { errs <- adapter.StreamChat(ctx, params, chunks) }()

	case view.Endpoint == llm.EndpointChat:
		adapter := e.adapters.Chat(cfg)
		go func() { errs <- adapter.StreamChat(ctx, params, chunks) }()

	default:
		return "", goerr.New("model has no usable endpoint",
			goerr.T(TagConfiguration), goerr.V("model", view.Model), goerr.V("endpoint", view.Endpoint))
	}

	e.setPhase(vs, PhaseStreaming)
	return e.consume(chunks, errs)
}

// consume drains one normalized chunk stream into the accumulated reply.
// Every provider funnel ends up here, so preview updates and terminal
// handling live in exactly one place.
func (e *Engine) consume(chunks <-chan llm.StreamChunk, errs <-chan error) (string, error) {
	var acc strings.Builder
	done := false
	for chunk := range chunks {
		if chunk.Error != nil {
			return acc.String(), goerr.Wrap(chunk.Error, "stream failed", goerr.T(TagTransport))
		}
		if chunk.Done {
			done = true
			continue
		}
		if chunk.Content != "" {
			acc.WriteString(chunk.Content)
			e.preview.SetText(acc.String())
		}
	}
	if err := <-errs; err != nil {
		return acc.String(), goerr.Wrap(err, "stream failed", goerr.T(TagTransport))
	}
	if !done {
		return acc.String(), goerr.New("stream ended without completion", goerr.T(TagTransport))
	}
	return acc.String(), nil
}

func (e *Engine) generateImages(ctx context.Context, view *config.ViewSettings, prompt string) (string, error) {
	gen := e.adapters.Images(e.adapterConfig(view))
	urls, err := gen.GenerateImages(ctx, llm.ImageParams{
		Prompt:         prompt,
		Model:          view.Model,
		NumberOfImages: view.ImageSettings.NumberOfImages,
		Size:           view.ImageSettings.Size,
		Style:          view.ImageSettings.Style,
		Quality:        view.ImageSettings.Quality,
		ResponseFormat: view.ImageSettings.ResponseFormat,
	})
	if err != nil {
		return "", goerr.Wrap(err, "image generation failed", goerr.T(TagTransport))
	}

	var sb strings.Builder
	for _, url := range urls {
		fmt.Fprintf(&sb, "![created with prompt %s](%s)\n", prompt, url)
	}
	return sb.String(), nil
}

// rollback removes the failed trailing user turn after a short delay, so
// the user sees what was sent before it disappears.
func (e *Engine) rollback(vs *viewState) {
	msgs := vs.store.Messages()
	if len(msgs) == 0 || msgs[len(msgs)-1].Role != llm.RoleUser {
		return
	}
	time.Sleep(e.rollbackDelay)
	vs.store.PopLast()
}

// commit writes the finished exchange to the ledger. A view attached to an
// entry overwrites it in place; a detached view pushes a new entry and
// attaches to it.
func (e *Engine) commit(viewType config.ViewType, view *config.ViewSettings, vs *viewState, prompt string, vctx *vault.Context) {
	item := chat.HistoryItem{
		Kind:         view.Endpoint,
		ModelName:    view.ModelName,
		Model:        view.Model,
		Prompt:       prompt,
		Messages:     vs.store.Messages(),
		VaultContext: vctx,
	}
	switch view.Endpoint {
	case llm.EndpointImages:
		item.ImageSize = view.ImageSettings.Size
		item.ImageStyle = view.ImageSettings.Style
		item.ImageQuality = view.ImageSettings.Quality
		item.NumberOfImages = view.ImageSettings.NumberOfImages
	case llm.EndpointAssistant:
		item.AssistantID = view.AssistantID
	default:
		item.Temperature = view.ChatSettings.Temperature
		item.Tokens = view.ChatSettings.MaxTokens
		item.TopP = view.ChatSettings.TopP
	}

	if view.HistoryIndex > -1 {
		if err := e.history.Update(view.HistoryIndex, item.Messages); err != nil {
			e.log.Warn("history update failed", "index", view.HistoryIndex, "error", err)
		}
		return
	}
	length := e.history.Push(item)

	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	if err := e.settings.SetHistoryIndex(viewType, length); err != nil {
		e.log.Warn("history index update failed", "error", err)
	}
	e.saveLocked()
}

func (e *Engine) report(viewType config.ViewType, err error) {
	e.log.Error("generation failed", "view", viewType, "error", err)
	e.notifier.Notify(noticeFor(err))
}

func (e *Engine) saveSettings() {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	e.saveLocked()
}

// saveLocked runs with saveMu held.
func (e *Engine) saveLocked() {
	if e.store == nil {
		return
	}
	if err := e.store.Save(e.settings); err != nil {
		e.log.Error("settings save failed", "error", err)
	}
}
