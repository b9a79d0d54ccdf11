package fetch

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

// calculateSafeWorkerCount recommends a worker count for available memory.
// A concurrent yt-dlp download plus its ffmpeg remux peaks around 1GB.
func calculateSafeWorkerCount(availableGB float64) int {
	const memoryPerWorker = 1.0 // GB per concurrent download + remux
	const memoryBuffer = 1.0    // GB reserved for the rest of the system

	if availableGB < memoryBuffer {
		return 1
	}

	recommended := int((availableGB - memoryBuffer) / memoryPerWorker)
	if recommended < 1 {
		return 1
	}
	if recommended > 16 {
		return 16
	}

	return recommended
}

// checkMemoryPressure validates worker count against available memory.
// Returns a warning message if the count looks too high, empty string if OK.
func (sv *Supervisor) checkMemoryPressure() string {
	v, err := mem.VirtualMemory()
	if err != nil {
		return "" // Can't check, assume OK
	}

	availableGB := float64(v.Available) / 1024 / 1024 / 1024
	totalGB := float64(v.Total) / 1024 / 1024 / 1024
	recommended := calculateSafeWorkerCount(availableGB)

	if sv.cfg.Workers > recommended {
		return fmt.Sprintf(
			"Worker count (%d) exceeds recommended (%d) for available memory (%.1f/%.1fGB). "+
				"Consider reducing workers to prevent memory pressure.",
			sv.cfg.Workers, recommended, totalGB-availableGB, totalGB)
	}

	return ""
}
