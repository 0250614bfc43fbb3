// Package conversation drives a chat turn end to end: it analyzes the
// user's emotional state, persists the exchange to memory, recalls
// related past conversations, assembles the persona prompt and calls
// the configured language model.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/projectyui/yui/pkg/emotion"
	"github.com/projectyui/yui/pkg/llm"
	"github.com/projectyui/yui/pkg/memory"
	"github.com/projectyui/yui/pkg/personality"
)

// maxHistory bounds the in-memory context window sent to the model.
const maxHistory = 20

// Config assembles an Orchestrator.
type Config struct {
	Provider    llm.Provider
	Memory      *memory.Manager
	Personality string // empty selects the default persona
	UserName    string
	Logger      zerolog.Logger
}

// Orchestrator manages one user's conversation with the companion.
// It is not safe for concurrent use; callers drive one turn at a time.
type Orchestrator struct {
	provider llm.Provider
	memory   *memory.Manager
	persona  *personality.Personality
	detector *emotion.Detector
	mood     *emotion.State
	userName string
	logger   zerolog.Logger

	history        []llm.Message
	sessionStarted bool
	startedAt      time.Time
}

// NewOrchestrator wires the conversation pipeline together.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("llm provider is required")
	}
	if cfg.Memory == nil {
		return nil, fmt.Errorf("memory manager is required")
	}

	userName := cfg.UserName
	if userName == "" {
		userName = "User"
	}

	persona := personality.Get(cfg.Personality)

	return &Orchestrator{
		provider: cfg.Provider,
		memory:   cfg.Memory,
		persona:  persona,
		detector: emotion.NewDetector(),
		mood:     emotion.NewState(),
		userName: userName,
		logger:   cfg.Logger.With().Str("component", "conversation").Logger(),
	}, nil
}

// Persona returns the active persona.
func (o *Orchestrator) Persona() *personality.Personality {
	return o.persona
}

// Memory exposes the long-term memory manager for stats and history
// queries outside the chat flow.
func (o *Orchestrator) Memory() *memory.Manager {
	return o.memory
}

// SendMessage runs one conversation turn and returns the companion's
// reply. Persistence failures abort the turn; memory recall and reply
// archival failures degrade to a reply without them.
func (o *Orchestrator) SendMessage(ctx context.Context, text string) (string, error) {
	return o.turn(ctx, text, nil)
}

// StreamMessage runs one conversation turn, delivering the reply
// incrementally through onChunk when the provider supports streaming.
// Providers without streaming fall back to a single chunk.
func (o *Orchestrator) StreamMessage(ctx context.Context, text string, onChunk func(chunk string) error) (string, error) {
	return o.turn(ctx, text, onChunk)
}

func (o *Orchestrator) turn(ctx context.Context, text string, onChunk func(chunk string) error) (string, error) {
	feeling := o.detector.Analyze(text)
	o.mood.Update(feeling.Emotion)

	if !o.sessionStarted {
		if err := o.memory.StartSession(strings.ToLower(o.persona.Name)); err != nil {
			return "", fmt.Errorf("failed to start session: %w", err)
		}
		o.sessionStarted = true
		o.startedAt = time.Now()
	}

	// The user's turn must be durably recorded before the model runs.
	if err := o.memory.SaveMessage(memory.RoleUser, text, strings.ToLower(o.persona.Name), feeling.Emotion); err != nil {
		return "", fmt.Errorf("failed to save message: %w", err)
	}

	o.appendHistory(llm.Message{Role: llm.RoleUser, Content: text})

	system := o.systemPrompt(ctx, text, feeling)

	reply, err := o.generate(ctx, system, onChunk)
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	o.appendHistory(llm.Message{Role: llm.RoleAssistant, Content: reply})

	// Losing the archived reply is survivable; the turn already happened.
	if err := o.memory.SaveMessage(memory.RoleAssistant, reply, strings.ToLower(o.persona.Name), ""); err != nil {
		o.logger.Error().Err(err).Msg("Failed to archive assistant reply")
	}

	return reply, nil
}

func (o *Orchestrator) generate(ctx context.Context, system string, onChunk func(chunk string) error) (string, error) {
	if onChunk != nil {
		if sp, ok := o.provider.(llm.StreamingProvider); ok {
			return sp.Stream(ctx, o.history, system, onChunk)
		}
	}

	reply, err := o.provider.Generate(ctx, o.history, system)
	if err != nil {
		return "", err
	}
	if onChunk != nil {
		if err := onChunk(reply); err != nil {
			return reply, err
		}
	}
	return reply, nil
}

// systemPrompt layers the persona prompt with the user's emotional
// state, the companion's tone and recalled memories.
func (o *Orchestrator) systemPrompt(ctx context.Context, text string, feeling emotion.Result) string {
	var b strings.Builder
	b.WriteString(o.persona.SystemPrompt(o.userName))

	b.WriteString("\n\n# Emotional Awareness\n")
	b.WriteString(o.detector.PromptContext(feeling))
	b.WriteString("\n")
	b.WriteString(o.mood.ToneInstruction())

	memories, err := o.memory.GetRelevantContext(ctx, text, 3)
	if err != nil {
		// Recall is additive; a reply without memories beats no reply.
		o.logger.Warn().Err(err).Msg("Failed to recall memories")
	}
	if len(memories) > 0 {
		b.WriteString("\n\n# Relevant Memories\n")
		b.WriteString("You remember these past conversations with ")
		b.WriteString(o.userName)
		b.WriteString(":\n")
		for _, m := range memories {
			b.WriteString("- ")
			b.WriteString(m)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (o *Orchestrator) appendHistory(msg llm.Message) {
	o.history = append(o.history, msg)
	if len(o.history) > maxHistory {
		o.history = o.history[len(o.history)-maxHistory:]
	}
}

// SwitchPersonality ends the current session and starts fresh with the
// named persona. Long-term memory survives the switch; the in-memory
// context window does not.
func (o *Orchestrator) SwitchPersonality(name string) error {
	if !personality.Known(name) {
		return fmt.Errorf("unknown personality: %s (available: %s)", name, strings.Join(personality.Names(), ", "))
	}

	if o.sessionStarted {
		if err := o.memory.EndSession(); err != nil {
			o.logger.Error().Err(err).Msg("Failed to end session on personality switch")
		}
	}
	o.memory.ClearSessionMemory()

	o.persona = personality.Get(name)
	o.history = nil
	o.sessionStarted = false
	o.mood = emotion.NewState()

	o.logger.Info().Str("personality", name).Msg("Switched personality")
	return nil
}

// ClearHistory drops the context window and rotates to a new session.
// Long-term memory is untouched.
func (o *Orchestrator) ClearHistory() {
	if o.sessionStarted {
		if err := o.memory.EndSession(); err != nil {
			o.logger.Error().Err(err).Msg("Failed to end session on clear")
		}
	}
	o.memory.ClearSessionMemory()
	o.history = nil
	o.sessionStarted = false
}

// Close ends the active session and releases memory resources.
func (o *Orchestrator) Close() error {
	if o.sessionStarted {
		if err := o.memory.EndSession(); err != nil {
			o.logger.Error().Err(err).Msg("Failed to end session on close")
		}
	}
	return o.memory.Close()
}

// Summary describes the current conversation for display.
func (o *Orchestrator) Summary() string {
	started := "N/A"
	if o.sessionStarted {
		started = o.startedAt.Format(time.RFC3339)
	}
	return fmt.Sprintf("Conversation with %s\nTotal messages: %d\nUser: %s\nStarted: %s",
		o.persona.Name, len(o.history), o.userName, started)
}
