package event

import "strings"

// Sentinel 是对话引擎在内容末尾内联的终止标记。
// 提示词约定 materials_compiler 以该词结束最终文档，
// 因此所有写入缓冲区或前端的文本都必须先剥离它。
const Sentinel = "TERMINATE"

// Kind distinguishes the event variants produced by a team run.
type Kind int

const (
	// KindChunk is a streamed text fragment from one agent turn.
	KindChunk Kind = iota
	// KindStop signals that a termination condition fired.
	KindStop
	// KindResult is the terminal marker closing a run. It carries no text.
	KindResult
	// KindOther covers events the orchestrator does not recognize.
	KindOther
)

// String returns a loggable name for the event kind.
func (k Kind) String() string {
	switch k {
	case KindChunk:
		return "chunk"
	case KindStop:
		return "stop"
	case KindResult:
		return "result"
	default:
		return "other"
	}
}

// Event is a single item of a team's output stream.
// Source identifies the emitting role and is only meaningful for KindChunk.
type Event struct {
	Kind    Kind
	Source  string
	Content string
}

// Chunk builds a streaming text fragment event.
func Chunk(source, content string) Event {
	return Event{Kind: KindChunk, Source: source, Content: content}
}

// Stop builds a termination event. Reason may be empty for normal completion.
func Stop(reason string) Event {
	return Event{Kind: KindStop, Content: reason}
}

// Result builds the terminal marker event.
func Result() Event {
	return Event{Kind: KindResult}
}

// StripSentinel truncates s at the first occurrence of the termination
// token and trims surrounding whitespace from the kept part. Text without
// the token is returned unchanged.
func StripSentinel(s string) string {
	idx := strings.Index(s, Sentinel)
	if idx < 0 {
		return s
	}
	return strings.TrimSpace(s[:idx])
}
