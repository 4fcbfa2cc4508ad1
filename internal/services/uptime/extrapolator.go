package uptime

import (
	"math/bits"
	"time"

	"StoreMonitor/internal/domain/models"
)

// Extrapolate scales the share of active polls that landed on open time to
// the whole open duration. With no such polls both uptime and downtime are zero.
func Extrapolate(obs []models.Observation, open Intervals) models.WindowUsage {
	total := open.Total()
	usage := models.WindowUsage{Total: total}

	var active uint64
	for _, o := range obs {
		if !open.Contains(o.Timestamp) {
			continue
		}
		usage.Samples++
		if o.Status == models.StatusActive {
			active++
		}
	}
	if usage.Samples == 0 || total <= 0 {
		return usage
	}

	usage.Uptime = scale(total, active, uint64(usage.Samples))
	usage.Downtime = total - usage.Uptime
	return usage
}

// scale returns floor(total * num / den) without overflow; num <= den.
func scale(total time.Duration, num, den uint64) time.Duration {
	hi, lo := bits.Mul64(uint64(total), num)
	q, _ := bits.Div64(hi, lo, den)
	return time.Duration(q)
}
