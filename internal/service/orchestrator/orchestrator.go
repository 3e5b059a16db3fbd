package orchestrator

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/yunxiao/lessonforge/backend/internal/model/event"
	"github.com/yunxiao/lessonforge/backend/internal/model/lesson"
)

// EventSource is one in-flight conversation as seen by the orchestrator:
// a lazy, finite, non-restartable event stream plus the terminal error,
// valid once the channel has closed.
type EventSource interface {
	Events() <-chan event.Event
	Err() error
}

// Engine starts conversations. Implemented by team.Team.
type Engine interface {
	Start(ctx context.Context, task string) EventSource
}

// Persister writes the final transcript to disk. Implemented by
// artifact.Writer.
type Persister interface {
	Persist(text string) (*lesson.Artifact, error)
}

// Orchestrator drives one multi-agent conversation to completion,
// routing streamed text between the progress and final surfaces and
// persisting the final transcript as an artifact.
type Orchestrator struct {
	finalRole string
	writer    Persister
}

// New creates an orchestrator routing finalRole output to the final
// surface and everything else to the progress surface.
func New(finalRole string, writer Persister) *Orchestrator {
	return &Orchestrator{finalRole: finalRole, writer: writer}
}

// Run consumes the conversation started for task until exhaustion. It
// returns the persisted artifact, or nil when the final transcript stayed
// empty or persistence was skipped. The returned error is the stream-level
// engine failure; it has already been surfaced to the user when non-nil.
func (o *Orchestrator) Run(ctx context.Context, task string, engine Engine, progress ProgressSurface, final FinalSurface) (*lesson.Artifact, error) {
	state := lesson.NewRunState(o.finalRole)

	if err := progress.SetLabel(ctx, "Executing"); err != nil {
		log.Printf("[orchestrator] failed to open progress surface: %v", err)
	}

	source := engine.Start(ctx, task)
	for ev := range source.Events() {
		if err := o.handleEvent(ctx, state, ev, progress, final); err != nil {
			// 单条事件失败只记录，不中断会话。
			log.Printf("[orchestrator] error handling %s event: %v", ev.Kind, err)
		}
	}

	if err := progress.Close(ctx); err != nil {
		log.Printf("[orchestrator] failed to close progress surface: %v", err)
	}

	streamErr := source.Err()
	if streamErr != nil {
		log.Printf("[orchestrator] stream failed: %v", streamErr)
		if err := final.Notify(ctx, fmt.Sprintf("生成内容时出错: %v", streamErr)); err != nil {
			log.Printf("[orchestrator] failed to deliver error notice: %v", err)
		}
	}

	var artifact *lesson.Artifact
	if streamErr == nil && state.Final() != "" {
		artifact = o.persist(ctx, state, final)
	}

	// 即使最终内容为空也要交付 final surface，空结果不是错误。
	if err := final.Send(ctx); err != nil {
		log.Printf("[orchestrator] failed to deliver final surface: %v", err)
	}

	return artifact, streamErr
}

// handleEvent classifies and routes a single event. Any error is contained
// by the caller.
func (o *Orchestrator) handleEvent(ctx context.Context, state *lesson.RunState, ev event.Event, progress ProgressSurface, final FinalSurface) error {
	switch ev.Kind {
	case event.KindChunk:
		return o.handleChunk(ctx, state, ev, progress, final)

	case event.KindStop:
		if ev.Content == "" {
			return nil
		}
		content := event.StripSentinel(ev.Content)
		if content == "" {
			return nil
		}
		recovered := "\n\n" + content
		state.AppendFinal(recovered)
		return final.StreamToken(ctx, recovered)

	case event.KindResult:
		// Terminal marker only, carries no text to route.
		return nil

	default:
		// 未识别的事件尽力转发到进度面板，失败也不影响会话。
		if ev.Content == "" {
			return nil
		}
		if err := progress.StreamToken(ctx, ev.Content); err != nil {
			log.Printf("[orchestrator] failed to forward unrecognized event: %v", err)
		}
		return nil
	}
}

func (o *Orchestrator) handleChunk(ctx context.Context, state *lesson.RunState, ev event.Event, progress ProgressSurface, final FinalSurface) error {
	if ev.Content == "" {
		return nil
	}

	content := event.StripSentinel(ev.Content)

	if ev.Source != state.FinalRole {
		state.IsExecuting = true
		if content == "" {
			return nil
		}
		state.AppendWorking(content)
		return progress.StreamToken(ctx, content)
	}

	state.IsExecuting = false
	if err := progress.SetLabel(ctx, fmt.Sprintf("Executed for %ds", state.Elapsed())); err != nil {
		log.Printf("[orchestrator] failed to update progress label: %v", err)
	}
	if content == "" {
		return nil
	}
	state.AppendFinal(content)
	return final.StreamToken(ctx, content)
}

// persist hands the final transcript to the artifact writer and appends
// the resulting links, or a failure notice, to the final surface. A write
// failure must not lose the generated text from the user's view.
func (o *Orchestrator) persist(ctx context.Context, state *lesson.RunState, final FinalSurface) *lesson.Artifact {
	cleaned := event.StripSentinel(state.Final())

	artifact, err := o.writer.Persist(cleaned)
	if err != nil {
		log.Printf("[orchestrator] failed to persist artifact: %v", err)
		notice := "\n\n无法创建文件，请检查生成的内容。"
		state.AppendFinal(notice)
		if streamErr := final.StreamToken(ctx, notice); streamErr != nil {
			log.Printf("[orchestrator] failed to deliver persist failure notice: %v", streamErr)
		}
		return nil
	}

	links := fmt.Sprintf("\n\nMarkdown: [%s](%s)\n\nPDF: [%s](%s)",
		filepath.Base(artifact.MarkdownPath), artifact.MarkdownPath,
		filepath.Base(artifact.PDFPath), artifact.PDFPath)
	state.AppendFinal(links)
	if err := final.StreamToken(ctx, links); err != nil {
		log.Printf("[orchestrator] failed to deliver artifact links: %v", err)
	}

	return artifact
}
