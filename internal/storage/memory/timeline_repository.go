package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

// timelineRepositoryInMemory держит историю заказов и заявок по aggregate id.
type timelineRepositoryInMemory struct {
	mu      sync.RWMutex
	history map[string][]domain.TimelineEvent
	now     func() time.Time
}

// NewTimelineRepository создаёт in-memory историю событий.
func NewTimelineRepository() domain.TimelineRepository {
	return &timelineRepositoryInMemory{
		history: make(map[string][]domain.TimelineEvent),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Append вставляет событие после всех событий с тем же или более ранним временем,
// так что при равном времени сохраняется порядок записи.
func (r *timelineRepositoryInMemory) Append(event domain.TimelineEvent) error {
	event, err := domain.NormalizeTimelineEvent(event, r.now())
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.history[event.AggregateID]
	at := sort.Search(len(events), func(i int) bool {
		return events[i].Occurred.After(event.Occurred)
	})
	events = append(events, domain.TimelineEvent{})
	copy(events[at+1:], events[at:])
	events[at] = event
	r.history[event.AggregateID] = events
	return nil
}

func (r *timelineRepositoryInMemory) List(aggregateID string) ([]domain.TimelineEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.history[strings.TrimSpace(aggregateID)]
	return append([]domain.TimelineEvent{}, events...), nil
}
