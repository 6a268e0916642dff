package app

import (
	"context"
	"fmt"

	"github.com/kilianp07/leafdash/core/displaystate"
	"github.com/kilianp07/leafdash/core/journal"
	"github.com/kilianp07/leafdash/core/model"
)

// Replay feeds the journaled envelopes matching q through c as replay
// envelopes, so each one is projected at its original receive time. fn is
// called for every admitted state. It returns the number of admitted
// records.
func Replay(ctx context.Context, store journal.Store, q journal.Query, c *Controller, fn func(displaystate.State)) (int, error) {
	recs, err := store.Query(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("query journal: %w", err)
	}
	admitted := 0
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return admitted, err
		}
		env, err := rec.Envelope()
		if err != nil {
			c.log.Warnf("skip journal record: %v", err)
			continue
		}
		env.Origin = model.OriginReplay
		st, ok := c.Process(ctx, env)
		if !ok {
			continue
		}
		admitted++
		if fn != nil {
			fn(st)
		}
	}
	return admitted, nil
}
