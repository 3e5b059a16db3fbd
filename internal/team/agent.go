package team

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// Agent is one named participant of a group chat. Its chain pairs a fixed
// system prompt with the shared conversation history.
type Agent struct {
	Name        string
	Description string
	systemMsg   string
	chain       compose.Runnable[map[string]any, *schema.Message]
}

// NewAgent compiles the agent's chat chain against the shared model.
func NewAgent(ctx context.Context, chatModel model.ChatModel, name, description, systemPrompt string) (*Agent, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("agent name is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chain for agent %s: %w", name, err)
	}

	return &Agent{
		Name:        name,
		Description: description,
		systemMsg:   systemPrompt,
		chain:       runnable,
	}, nil
}

// Stream starts a streaming completion for this agent's next turn.
func (a *Agent) Stream(ctx context.Context, history []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
	stream, err := a.chain.Stream(ctx, map[string]any{
		"system":  a.systemMsg,
		"history": history,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stream agent %s output: %w", a.Name, err)
	}
	return stream, nil
}

// buildHistory projects the shared transcript into this agent's view:
// its own turns become assistant messages, everything else arrives as
// speaker-prefixed user messages.
func (a *Agent) buildHistory(turns []Turn) []*schema.Message {
	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Source {
		case a.Name:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		case UserRole:
			history = append(history, schema.UserMessage(turn.Content))
		default:
			history = append(history, schema.UserMessage(fmt.Sprintf("%s: %s", turn.Source, turn.Content)))
		}
	}
	return history
}
