package editor

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/houzhh15/roadmap-console/pkg/metrics"
	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/selection"
)

// BulkResult reports the outcome of every item of one bulk action.
type BulkResult struct {
	Action    selection.Action `json:"action"`
	Succeeded []string         `json:"succeeded"`
	Failed    map[string]error `json:"-"`
}

// BulkSummary is the JSON view of a BulkResult.
type BulkSummary struct {
	Action    selection.Action  `json:"action"`
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed"`
	Success   int               `json:"successCount"`
	Failure   int               `json:"failureCount"`
}

// Summary flattens errors to messages and adds the counts.
func (r BulkResult) Summary() BulkSummary {
	out := BulkSummary{
		Action:    r.Action,
		Succeeded: r.Succeeded,
		Failed:    make(map[string]string, len(r.Failed)),
		Success:   len(r.Succeeded),
		Failure:   len(r.Failed),
	}
	if out.Succeeded == nil {
		out.Succeeded = []string{}
	}
	for id, err := range r.Failed {
		out.Failed[id] = err.Error()
	}
	return out
}

// Bulk runs action against every roadmap in ids. Items are independent: a
// failure is recorded and the others carry on. Delete refuses to run unless
// confirmed is set. Publish and archive only change the status field.
func (s *Store) Bulk(ctx context.Context, action selection.Action, ids []string, confirmed bool) (BulkResult, error) {
	res := BulkResult{Action: action, Failed: map[string]error{}}
	target, setsStatus := action.TargetStatus()
	if !setsStatus && action != selection.ActionDelete {
		return res, roadmap.ValidationError("bulk", "unknown action "+string(action))
	}
	if action == selection.ActionDelete && !confirmed {
		return res, roadmap.ConfirmationRequired("bulk delete")
	}
	if len(ids) == 0 {
		return res, nil
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.bulk)
	for _, id := range ids {
		g.Go(func() error {
			var err error
			if setsStatus {
				st := target
				err = s.Update(ctx, roadmap.KindRoadmap, id, roadmap.Patch{Status: &st})
			} else {
				_, err = s.Delete(ctx, roadmap.KindRoadmap, id)
			}
			metrics.RecordBulkItem(string(action), err == nil)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed[id] = err
				return nil
			}
			res.Succeeded = append(res.Succeeded, id)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(res.Succeeded)
	s.log.Info("bulk action finished",
		"action", action,
		"succeeded", len(res.Succeeded),
		"failed", len(res.Failed),
	)
	return res, nil
}
