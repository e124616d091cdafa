package event

// Type classifies a workspace activity event. The set is closed: producers
// emitting a type outside this enumeration fail structural validation.
type Type string

const (
	TypeCycle           Type = "cycle"
	TypeFileChange      Type = "file_change"
	TypeGitCommit       Type = "git_commit"
	TypeBurst           Type = "burst"
	TypePatternDetected Type = "pattern_detected"
	TypeCognitiveSignal Type = "cognitive_signal"
	TypeADRCreated      Type = "adr_created"
	TypeForecast        Type = "forecast"
	TypeAggregated      Type = "aggregated"
	TypeSystem          Type = "system"
	TypeConfigChange    Type = "config_change"
)

var allTypes = map[Type]struct{}{
	TypeCycle:           {},
	TypeFileChange:      {},
	TypeGitCommit:       {},
	TypeBurst:           {},
	TypePatternDetected: {},
	TypeCognitiveSignal: {},
	TypeADRCreated:      {},
	TypeForecast:        {},
	TypeAggregated:      {},
	TypeSystem:          {},
	TypeConfigChange:    {},
}

// Valid reports whether t is a member of the closed enumeration.
func (t Type) Valid() bool {
	_, ok := allTypes[t]
	return ok
}

// String returns the wire name of the type.
func (t Type) String() string { return string(t) }

// Types returns all members of the type enumeration.
func Types() []Type {
	types := make([]Type, 0, len(allTypes))
	for t := range allTypes {
		types = append(types, t)
	}
	return types
}

// Source identifies the producer of an event.
type Source string

const (
	SourceFileWatcher     Source = "file_watcher"
	SourceGitListener     Source = "git_listener"
	SourcePatternEngine   Source = "pattern_engine"
	SourceCognitiveEngine Source = "cognitive_engine"
	SourceScheduler       Source = "scheduler"
	SourceSystem          Source = "system"
)

var allSources = map[Source]struct{}{
	SourceFileWatcher:     {},
	SourceGitListener:     {},
	SourcePatternEngine:   {},
	SourceCognitiveEngine: {},
	SourceScheduler:       {},
	SourceSystem:          {},
}

// Valid reports whether s is a known producer.
func (s Source) Valid() bool {
	_, ok := allSources[s]
	return ok
}

// String returns the wire name of the source.
func (s Source) String() string { return string(s) }

// UnitType names the coherence reason behind a cognitive unit.
type UnitType string

const (
	UnitSession        UnitType = "session"
	UnitBurst          UnitType = "burst"
	UnitWorkingSet     UnitType = "working_set"
	UnitRefactorStreak UnitType = "refactor_streak"
	UnitHotspot        UnitType = "hotspot"
	UnitTask           UnitType = "task"
	UnitAnomaly        UnitType = "anomaly"
)

// String returns the wire name of the unit type.
func (u UnitType) String() string { return string(u) }

// AnomalyType classifies an out-of-band observation over the timeline.
type AnomalyType string

const (
	AnomalyTemporalGap        AnomalyType = "temporal_gap"
	AnomalyRapidContextSwitch AnomalyType = "rapid_context_switch"
	AnomalyExcessiveDeletion  AnomalyType = "excessive_deletion"
	AnomalyUnusualHours       AnomalyType = "unusual_hours"
	AnomalyCorruptedData      AnomalyType = "corrupted_data"
	AnomalyCircularDependency AnomalyType = "circular_dependency"
	AnomalyResourceExhaustion AnomalyType = "resource_exhaustion"
)

// String returns the wire name of the anomaly type.
func (a AnomalyType) String() string { return string(a) }

// Severity grades an anomaly. Ordered: low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// String returns the wire name of the severity.
func (s Severity) String() string { return string(s) }

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}
