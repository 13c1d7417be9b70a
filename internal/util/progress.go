package util

import (
	"fmt"
	"time"
)

// SyncProgress is the human readable state of a corpus synchronisation.
type SyncProgress struct {
	Done          string         `json:"done"`
	Failed        int64          `json:"failed,omitempty"`
	Percentage    *int32         `json:"percentage,omitempty"`
	Rate          float64        `json:"rate"`
	TimeRemaining *time.Duration `json:"time_remaining,omitempty"`
}

// BuildSyncProgress derives percentage, throughput and an ETA from the raw
// counters. Percentage and ETA are only set when total is known.
func BuildSyncProgress(done, failed, total int64, elapsed time.Duration) SyncProgress {
	p := SyncProgress{Failed: failed}

	if total > 0 {
		p.Done = fmt.Sprintf("%d/%d", done, total)
		pct := CalculateSyncPercentage(done, total)
		p.Percentage = &pct
	} else {
		p.Done = fmt.Sprintf("%d", done)
	}

	if elapsed > 0 && done > 0 {
		p.Rate = float64(done) / elapsed.Seconds()
	}

	if total > 0 && done > 0 && done < total {
		perItem := elapsed / time.Duration(done)
		remaining := perItem * time.Duration(total-done)
		p.TimeRemaining = &remaining
	}

	return p
}

func CalculateSyncPercentage(done, total int64) int32 {
	if total <= 0 {
		return 0
	}
	return int32(min(done, total) * 100 / total)
}
