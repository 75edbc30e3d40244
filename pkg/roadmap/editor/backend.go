// Package editor is the in-memory authority for the loaded roadmap
// collection. Every mutation is applied optimistically, persisted through a
// Backend and then committed or reverted.
package editor

import (
	"context"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/client"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/ordering"
)

// Backend is the collaborator REST API. *client.Client implements it.
type Backend interface {
	ListRoadmaps(ctx context.Context) ([]roadmap.Roadmap, error)
	GetRoadmap(ctx context.Context, id string) (roadmap.Roadmap, error)
	SaveRoadmap(ctx context.Context, r roadmap.Roadmap) (roadmap.Roadmap, error)
	PatchRoadmap(ctx context.Context, id string, p client.RoadmapPatch) (roadmap.Roadmap, error)
	DeleteRoadmap(ctx context.Context, id string) error
	SaveLevel(ctx context.Context, roadmapID string, l roadmap.Level) (roadmap.Level, error)
	DeleteLevel(ctx context.Context, roadmapID, levelID string) error
	SaveMilestone(ctx context.Context, roadmapID, levelID string, m roadmap.Milestone) (roadmap.Milestone, error)
	DeleteMilestone(ctx context.Context, roadmapID, levelID, milestoneID string) error
	SaveChallenge(ctx context.Context, roadmapID, levelID, milestoneID string, c roadmap.Challenge) (roadmap.Challenge, error)
	DeleteChallenge(ctx context.Context, roadmapID, levelID, milestoneID, challengeID string) error
	Reorder(ctx context.Context, parent roadmap.Path, entries []ordering.OrderEntry) error
	Stats(ctx context.Context) (roadmap.Stats, error)
}

var _ Backend = (*client.Client)(nil)

// EntityState is the persistence lifecycle of one node.
type EntityState string

const (
	StateUnknown  EntityState = ""
	StateUnsaved  EntityState = "unsaved"
	StateSaved    EntityState = "saved"
	StateModified EntityState = "modified"
	StateDeleted  EntityState = "deleted"
)
