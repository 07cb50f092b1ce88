package journal

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestServiceSnapshotProperties verifies that the snapshot always reflects
// the stored list after creates and a delete.
func TestServiceSnapshotProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("delete updates aggregates and keeps order", prop.ForAll(
		func(outcomes []bool, pick int) bool {
			f := newFixture(t)
			ctx := context.Background()

			wins := 0
			for _, win := range outcomes {
				form := validForm()
				if win {
					wins++
				} else {
					form.Result = "loss"
				}
				if _, err := f.svc.Create(ctx, form); err != nil {
					return false
				}
			}

			before := f.svc.List()
			target := before[pick%len(before)]
			if _, err := f.svc.Delete(ctx, target.ID); err != nil {
				return false
			}
			if target.IsWin() {
				wins--
			}

			after := f.svc.List()
			if len(after) != len(before)-1 {
				return false
			}
			j := 0
			for _, r := range before {
				if r.ID == target.ID {
					continue
				}
				if after[j].ID != r.ID {
					return false
				}
				j++
			}

			snap := f.svc.Snapshot()
			return snap.TotalTrades == len(after) &&
				snap.Wins == wins &&
				snap.Wins+snap.Losses == snap.TotalTrades
		},
		gen.SliceOfN(12, gen.Bool()),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
