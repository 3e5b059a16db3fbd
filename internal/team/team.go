package team

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/cloudwego/eino/schema"

	"github.com/yunxiao/lessonforge/backend/internal/model/event"
)

// UserRole marks transcript turns that came from the end user.
const UserRole = "user"

// Turn is one completed message of the shared group-chat transcript.
type Turn struct {
	Source  string
	Content string
}

// Team drives a selector group chat: a model-backed selector picks the
// next speaker, the speaker streams its turn, and termination conditions
// are checked after every completed message.
type Team struct {
	agents     []*Agent
	selector   *Selector
	conditions []Condition
}

// New assembles a team. Agent order doubles as the round-robin fallback
// order when the selector fails to name a participant.
func New(agents []*Agent, selector *Selector, conditions ...Condition) (*Team, error) {
	if len(agents) == 0 {
		return nil, errors.New("team requires at least one agent")
	}
	if selector == nil {
		return nil, errors.New("team requires a selector")
	}
	return &Team{agents: agents, selector: selector, conditions: conditions}, nil
}

// Run is one in-flight conversation. It exposes the event stream plus the
// terminal error, valid once the channel has closed.
type Run struct {
	events chan event.Event
	err    error
}

// Events returns the run's event stream. The channel closes when the
// conversation ends, errors out, or the context is cancelled.
func (r *Run) Events() <-chan event.Event {
	return r.events
}

// Err reports the stream-level failure, if any. Only valid after the
// Events channel has closed.
func (r *Run) Err() error {
	return r.err
}

// Start launches the conversation with the supplied seed task. Events are
// emitted strictly in generation order; cancellation via ctx closes the
// stream early without an error.
func (t *Team) Start(ctx context.Context, task string) *Run {
	run := &Run{events: make(chan event.Event)}
	go t.drive(ctx, task, run)
	return run
}

func (t *Team) drive(ctx context.Context, task string, run *Run) {
	defer close(run.events)

	turns := []Turn{{Source: UserRole, Content: task}}
	var lastSpeaker *Agent

	for {
		if ctx.Err() != nil {
			return
		}

		speaker := t.nextSpeaker(ctx, turns, lastSpeaker)

		content, err := t.streamTurn(ctx, speaker, turns, run)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			run.err = fmt.Errorf("agent %s turn failed: %w", speaker.Name, err)
			return
		}

		turns = append(turns, Turn{Source: speaker.Name, Content: content})
		lastSpeaker = speaker

		if reason, fired := t.checkTermination(turns); fired {
			if !emit(ctx, run.events, event.Stop(reason)) {
				return
			}
			emit(ctx, run.events, event.Result())
			return
		}
	}
}

// streamTurn streams one agent turn, forwarding every chunk as an event
// and returning the concatenated message content.
func (t *Team) streamTurn(ctx context.Context, speaker *Agent, turns []Turn, run *Run) (string, error) {
	reader, err := speaker.Stream(ctx, speaker.buildHistory(turns))
	if err != nil {
		return "", err
	}
	defer reader.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := reader.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			if !emit(ctx, run.events, event.Chunk(speaker.Name, chunk.Content)) {
				return "", ctx.Err()
			}
		}
	}

	full, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}
	return full.Content, nil
}

// nextSpeaker consults the selector, falling back to declaration order
// after the last speaker when the model fails to pick anyone.
func (t *Team) nextSpeaker(ctx context.Context, turns []Turn, lastSpeaker *Agent) *Agent {
	speaker, err := t.selector.Next(ctx, t.agents, turns)
	if err == nil {
		return speaker
	}
	log.Printf("[team] selector failed, falling back to round-robin: %v", err)

	if lastSpeaker == nil {
		return t.agents[0]
	}
	for i, agent := range t.agents {
		if agent.Name == lastSpeaker.Name {
			return t.agents[(i+1)%len(t.agents)]
		}
	}
	return t.agents[0]
}

func (t *Team) checkTermination(turns []Turn) (string, bool) {
	for _, condition := range t.conditions {
		if reason, fired := condition.Check(turns); fired {
			return reason, true
		}
	}
	return "", false
}

// emit sends an event unless the context ends first. Reports whether the
// event was delivered.
func emit(ctx context.Context, ch chan<- event.Event, ev event.Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
