package pipeline

import (
	"sync"
	"time"

	"carmarket/pkg/contracts/domain"
)

// State is the freshness of the published snapshot.
type State string

const (
	// StateFresh means the published snapshot reflects the current sources.
	StateFresh State = "FRESH"
	// StateStale means a source changed after the snapshot was computed.
	StateStale State = "STALE"
	// StateEmpty means no run has published yet.
	StateEmpty State = "EMPTY"
)

// Snapshot is the immutable result of one pipeline run: the cleaned
// tables, the quality reports and every derived analytics table. Readers
// share snapshots freely; nothing in a published snapshot is ever
// mutated.
type Snapshot struct {
	RunID       string        `json:"run_id"`
	Version     uint64        `json:"version"`
	GeneratedAt time.Time     `json:"generated_at"`
	Duration    time.Duration `json:"duration"`

	Catalog []domain.ModelRecord      `json:"catalog"`
	Prices  []domain.PriceObservation `json:"prices"`
	Sales   []domain.SalesRecord      `json:"sales"`

	CleaningReports []domain.CleaningReport   `json:"cleaning_reports"`
	Validations     []domain.ValidationResult `json:"validations"`
	Quality         []domain.QualityReport    `json:"quality"`

	Models        []domain.EnrichedModel     `json:"models"`
	Shares        []domain.ManufacturerShare `json:"shares"`
	Concentration domain.Concentration       `json:"concentration"`
	Outliers      []domain.Outlier           `json:"outliers"`
	Elasticities  []domain.Elasticity        `json:"elasticities"`
	Clusters      []domain.ClusterAssignment `json:"clusters"`
	Correlation   domain.CorrelationMatrix   `json:"correlation"`
	KPI           domain.KPISummary          `json:"kpi"`
	Insights      []domain.Insight           `json:"insights"`
}

// Store publishes snapshots to readers. Publication is an atomic pointer
// swap guarded by a monotonically increasing version: a slow writer
// finishing after a newer run can never clobber the newer snapshot. A
// boolean dirty flag cannot express that ordering, which is why staleness
// is tracked against versions instead.
type Store struct {
	mu      sync.RWMutex
	current *Snapshot
	version uint64 // last version handed to a run
	staleAt uint64 // versions at or below this are stale
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{}
}

// NextVersion reserves a version number for a run about to start. Versions
// are handed out in increasing order and never reused.
func (s *Store) NextVersion() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	return s.version
}

// Publish installs a snapshot unless a newer one is already current.
// It reports whether the snapshot became current.
func (s *Store) Publish(snap *Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.Version >= snap.Version {
		return false
	}
	s.current = snap
	return true
}

// Current returns the published snapshot, or nil before the first run.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// MarkStale records that a source changed, invalidating every version
// reserved so far. Already-published snapshots stay readable; they are
// just no longer fresh.
func (s *Store) MarkStale() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staleAt = s.version
}

// State reports the freshness of the published snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.current == nil:
		return StateEmpty
	case s.current.Version <= s.staleAt:
		return StateStale
	default:
		return StateFresh
	}
}
