package team

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ErrNoSelection indicates the selector model did not name any participant.
var ErrNoSelection = errors.New("selector output named no participant")

// Selector asks the chat model to pick the next speaker. The prompt uses
// {roles}, {participants} and {history} placeholders.
type Selector struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewSelector compiles the speaker-selection chain.
func NewSelector(ctx context.Context, chatModel model.ChatModel, selectorPrompt string) (*Selector, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage(selectorPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile selector chain: %w", err)
	}

	return &Selector{chain: runnable}, nil
}

// Next invokes the selector and resolves its answer to one of the agents.
func (s *Selector) Next(ctx context.Context, agents []*Agent, turns []Turn) (*Agent, error) {
	input := map[string]any{
		"roles":        describeRoles(agents),
		"participants": participantList(agents),
		"history":      formatTranscript(turns),
	}

	msg, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("selector invoke failed: %w", err)
	}
	if msg == nil {
		return nil, ErrNoSelection
	}

	return resolveAgent(agents, msg.Content)
}

// resolveAgent matches the model's free-form answer to a participant,
// preferring an exact name match over a substring hit.
func resolveAgent(agents []*Agent, answer string) (*Agent, error) {
	cleaned := strings.TrimSpace(answer)
	for _, agent := range agents {
		if cleaned == agent.Name {
			return agent, nil
		}
	}
	for _, agent := range agents {
		if strings.Contains(cleaned, agent.Name) {
			return agent, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoSelection, cleaned)
}

func describeRoles(agents []*Agent) string {
	var b strings.Builder
	for _, agent := range agents {
		fmt.Fprintf(&b, "%s: %s\n", agent.Name, agent.Description)
	}
	return b.String()
}

func participantList(agents []*Agent) string {
	names := make([]string, 0, len(agents))
	for _, agent := range agents {
		names = append(names, agent.Name)
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func formatTranscript(turns []Turn) string {
	var b strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&b, "%s: %s\n", turn.Source, turn.Content)
	}
	return b.String()
}
