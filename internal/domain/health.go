package domain

// Feature is a configuration flag gating an engine or capability.
type Feature string

const (
	FeatureRecognition    Feature = "recognition"
	FeatureAnalysis       Feature = "analysis"
	FeatureFraud          Feature = "fraud"
	FeatureClassification Feature = "classification"
)

// Features lists every known feature flag in a stable order.
func Features() []Feature {
	return []Feature{FeatureRecognition, FeatureAnalysis, FeatureFraud, FeatureClassification}
}

// HealthStatus is the per-engine probe outcome.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthDisabled  HealthStatus = "disabled"
)

// EngineHealth reports one engine's probe result.
type EngineHealth struct {
	Status HealthStatus `json:"status"`
	Err    string       `json:"error,omitempty"`
}

// AggregateStatus is the service-level health rollup.
type AggregateStatus string

const (
	AggregateHealthy  AggregateStatus = "healthy"
	AggregateDegraded AggregateStatus = "degraded"
)

// ServiceHealth aggregates per-engine probes. Disabled engines never count
// against the aggregate; any enabled-but-unhealthy engine degrades it.
type ServiceHealth struct {
	Engines map[Feature]EngineHealth `json:"engines"`
	Status  AggregateStatus          `json:"status"`
}

// Aggregate computes the rollup status from the per-engine map.
func (h *ServiceHealth) Aggregate() {
	h.Status = AggregateHealthy
	for _, e := range h.Engines {
		if e.Status == HealthUnhealthy {
			h.Status = AggregateDegraded
			return
		}
	}
}
