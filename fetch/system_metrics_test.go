package fetch

import (
	"testing"
)

func TestCalculateSafeWorkerCount(t *testing.T) {
	tests := []struct {
		availableGB float64
		expected    int
	}{
		{0.5, 1},   // Less than buffer
		{1.5, 1},   // 1.5GB - 1GB buffer = 0.5GB, rounds up to minimum
		{3.0, 2},   // 3GB - 1GB = 2GB / 1GB = 2 workers
		{9.0, 8},   // 9GB - 1GB = 8GB / 1GB = 8 workers
		{40.0, 16}, // caps at 16 workers
	}

	for _, tt := range tests {
		result := calculateSafeWorkerCount(tt.availableGB)
		if result != tt.expected {
			t.Errorf("calculateSafeWorkerCount(%.1fGB) = %d, expected %d",
				tt.availableGB, result, tt.expected)
		}
	}
}
