package usecase_game

import (
	"time"

	"github.com/nbelyakov/doodleroom/internal/model"
)

// Correct guesses are grouped into fixed 2-second arrival buckets so that
// near-simultaneous guessers land in the same reward tier regardless of
// network jitter.
const guessBucketMillis = 2000

func bucketFor(at time.Time) int64 {
	return at.UnixMilli() / guessBucketMillis
}

// pointsFor computes the award for an arrival in the given bucket, against
// the ledger as it stood before this arrival. The first bucket to register
// a guess is tier 0, each later distinct bucket one tier lower; arrivals in
// an already-seen bucket share its tier.
func pointsFor(ledger []model.GuessEntry, bucket int64) int {
	distinct := make(map[int64]struct{}, len(ledger))
	for _, e := range ledger {
		distinct[e.Bucket] = struct{}{}
	}

	index := len(distinct)
	if _, seen := distinct[bucket]; seen {
		index = len(distinct) - 1
	}

	points := 100 - 10*index
	if points < 10 {
		points = 10
	}
	return points
}

// drawerBonus is half the single highest award in the turn's ledger,
// floored; zero when nobody guessed.
func drawerBonus(ledger []model.GuessEntry) int {
	best := 0
	for _, e := range ledger {
		if e.Points > best {
			best = e.Points
		}
	}
	return best / 2
}
