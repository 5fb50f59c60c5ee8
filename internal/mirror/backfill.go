package mirror

import (
	"context"
	"log"

	"barkpark-backend/internal/store"
)

const backfillBatchSize = 500

// BackfillResult reports the totals of a backfill run.
type BackfillResult struct {
	Processed int
	Wrote     int
	Skipped   int
}

// Backfill streams every owner and merge-writes its public profile,
// reporting progress every batch. Used by the parkctl maintenance command.
func Backfill(ctx context.Context, s store.Store) (BackfillResult, error) {
	var res BackfillResult
	afterID := ""

	log.Println("Starting backfill from owners -> public_profiles ...")

	for {
		owners, err := s.OwnerBatch(ctx, afterID, backfillBatchSize)
		if err != nil {
			return res, err
		}
		if len(owners) == 0 {
			break
		}

		for i := range owners {
			o := &owners[i]
			res.Processed++

			if err := s.UpsertPublicProfile(ctx, profileFor(o.ID, o)); err != nil {
				log.Printf("backfill: skipping owner %s: %v", o.ID, err)
				res.Skipped++
				continue
			}
			res.Wrote++
		}

		afterID = owners[len(owners)-1].ID
		log.Printf("Progress: processed=%d, wrote=%d, skipped=%d", res.Processed, res.Wrote, res.Skipped)
	}

	log.Println("Backfill complete.")
	log.Printf("Totals: processed=%d, wrote=%d, skipped=%d", res.Processed, res.Wrote, res.Skipped)
	return res, nil
}
