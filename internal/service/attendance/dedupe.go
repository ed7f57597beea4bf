package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
)

// FilterDuplicates drops incoming punches that land within window of an existing or
// already accepted punch of the same user and type. It returns the accepted punches in
// chronological order and the number dropped.
func FilterDuplicates(existing, incoming []attendance.Punch, window time.Duration) ([]attendance.Punch, int) {
	sorted := make([]attendance.Punch, len(incoming))
	copy(sorted, incoming)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	seen := make([]attendance.Punch, 0, len(existing)+len(sorted))
	seen = append(seen, existing...)

	accepted := make([]attendance.Punch, 0, len(sorted))
	dropped := 0
	for _, p := range sorted {
		if isDuplicate(seen, p, window) {
			dropped++
			continue
		}
		seen = append(seen, p)
		accepted = append(accepted, p)
	}
	return accepted, dropped
}

func isDuplicate(seen []attendance.Punch, p attendance.Punch, window time.Duration) bool {
	for _, s := range seen {
		if s.UserID != p.UserID || s.Type != p.Type {
			continue
		}
		diff := p.Timestamp.Sub(s.Timestamp)
		if diff < 0 {
			diff = -diff
		}
		if diff <= window {
			return true
		}
	}
	return false
}
