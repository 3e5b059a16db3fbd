package team

import (
	"fmt"
	"strings"
)

// Condition decides whether a run should stop after the latest completed
// turn. Reason carries optional text surfaced to the user; normal
// completion reports an empty reason.
type Condition interface {
	Check(turns []Turn) (reason string, fired bool)
}

// TextMentionCondition fires when the latest turn mentions the given text.
type TextMentionCondition struct {
	Text string
}

// Check implements Condition.
func (c TextMentionCondition) Check(turns []Turn) (string, bool) {
	if len(turns) == 0 {
		return "", false
	}
	if strings.Contains(turns[len(turns)-1].Content, c.Text) {
		// 正常收尾，不向用户追加额外说明。
		return "", true
	}
	return "", false
}

// MaxMessageCondition fires once the transcript reaches Max turns,
// guarding against teams that never converge.
type MaxMessageCondition struct {
	Max int
}

// Check implements Condition.
func (c MaxMessageCondition) Check(turns []Turn) (string, bool) {
	if c.Max <= 0 || len(turns) < c.Max {
		return "", false
	}
	return fmt.Sprintf("已达到最大消息数上限（%d），生成提前结束。", c.Max), true
}
