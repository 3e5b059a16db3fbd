package team

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"

	"github.com/yunxiao/lessonforge/backend/internal/model/lesson"
)

// Registry maps generation profiles to their assembled teams. Built once
// at process start so sessions stay independently testable.
type Registry struct {
	teams map[string]*Team
}

// NewRegistry builds the teams for every seeded profile.
func NewRegistry(ctx context.Context, chatModel model.ChatModel, maxMessages int) (*Registry, error) {
	openTopic, err := NewOpenTopicTeam(ctx, chatModel, maxMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to build open-topic team: %w", err)
	}

	catchUp, err := NewCatchUpTeam(ctx, chatModel, maxMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to build catch-up team: %w", err)
	}

	return &Registry{teams: map[string]*Team{
		lesson.OpenTopicProfileID: openTopic,
		lesson.CatchUpProfileID:   catchUp,
	}}, nil
}

// ForProfile returns the team bound to a profile. A nil registry reports
// no teams, so handlers degrade uniformly when AI is unconfigured.
func (r *Registry) ForProfile(profileID string) (*Team, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.teams[profileID]
	return t, ok
}
