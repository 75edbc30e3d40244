// Package roadmaptest builds small roadmap trees for tests.
package roadmaptest

import (
	"fmt"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
)

// Sample returns a fresh two-roadmap collection:
//
//	rm-go "Go Fundamentals" (published)
//	  lv-1 "Basics" > ms-1 "Syntax" > ch-1 "Variables quiz", ch-2 "Loops project"
//	  lv-2 "Concurrency" > ms-2 "Goroutines" > ch-3 "Channels reading"
//	  lv-3 "Tooling"
//	rm-sys "Introduction to Systems" (draft)
//	  lv-4 "Operating Systems" > ms-3 "Processes"
func Sample() []roadmap.Roadmap {
	return []roadmap.Roadmap{
		{
			ID: "rm-go", Title: "Go Fundamentals", Description: "Learn Go", Icon: "go",
			Visibility: roadmap.VisibilityPublic, Status: roadmap.StatusPublished,
			Levels: []roadmap.Level{
				{ID: "lv-1", Title: "Basics", Order: 1, Milestones: []roadmap.Milestone{
					{ID: "ms-1", Title: "Syntax", Description: "Core syntax", Order: 1, Challenges: []roadmap.Challenge{
						{ID: "ch-1", Title: "Variables quiz", Description: "Quiz", Type: roadmap.ChallengeQuiz, Resources: []string{}, Order: 1},
						{ID: "ch-2", Title: "Loops project", Description: "Build", Type: roadmap.ChallengeProject, Resources: []string{"https://go.dev/tour"}, Order: 2},
					}},
				}},
				{ID: "lv-2", Title: "Concurrency", Order: 2, Milestones: []roadmap.Milestone{
					{ID: "ms-2", Title: "Goroutines", Description: "Go statements", Order: 1, Challenges: []roadmap.Challenge{
						{ID: "ch-3", Title: "Channels reading", Description: "Read", Type: roadmap.ChallengeReading, Resources: []string{}, Order: 1},
					}},
				}},
				{ID: "lv-3", Title: "Tooling", Order: 3, Milestones: []roadmap.Milestone{}},
			},
		},
		{
			ID: "rm-sys", Title: "Introduction to Systems", Description: "OS basics",
			Visibility: roadmap.VisibilityPrivate, Status: roadmap.StatusDraft,
			Levels: []roadmap.Level{
				{ID: "lv-4", Title: "Operating Systems", Order: 1, Milestones: []roadmap.Milestone{
					{ID: "ms-3", Title: "Processes", Description: "fork and exec", Order: 1, Challenges: []roadmap.Challenge{}},
				}},
			},
		},
	}
}

// Levels returns n levels titled L1..Ln with dense order.
func Levels(n int) []roadmap.Level {
	out := make([]roadmap.Level, n)
	for i := range out {
		out[i] = roadmap.Level{ID: fmt.Sprintf("L%d", i+1), Title: fmt.Sprintf("L%d", i+1), Order: i + 1, Milestones: []roadmap.Milestone{}}
	}
	return out
}

// IDs returns the ids of the given roadmaps in order.
func IDs(roadmaps []roadmap.Roadmap) []string {
	out := make([]string, len(roadmaps))
	for i, r := range roadmaps {
		out[i] = r.ID
	}
	return out
}
