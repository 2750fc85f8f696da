// Package engagement produces the simulated reader metrics shown next to
// a digest in demos.
package engagement

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/competitive-radar/backend/internal/storage/models"
)

type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulator(seed int64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// Default is seeded from the clock.
func Default() *Simulator {
	return NewSimulator(time.Now().UnixNano())
}

func (s *Simulator) Next() models.EngagementMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.EngagementMetrics{
		InsightsViewed:   s.intn(85, 98),
		ClickThroughRate: round1(s.uniform(6.5, 9.2)),
		AvgReadTime:      fmt.Sprintf("%d seconds", s.intn(25, 35)),
		ActionTakenRate:  round1(s.uniform(15, 25)),
	}
}

// intn returns an int in [lo, hi].
func (s *Simulator) intn(lo, hi int) int {
	return lo + s.rng.Intn(hi-lo+1)
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
