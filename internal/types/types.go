package types

import "time"

// OutcomeCategory classifies the result of a single gestión
type OutcomeCategory string

const (
	OutcomeEffectiveContact OutcomeCategory = "CONTACTO_EFECTIVO"
	OutcomeNoContact        OutcomeCategory = "NO_CONTACTO"
	OutcomePaymentPromise   OutcomeCategory = "PDP"
	OutcomeOther            OutcomeCategory = "OTRO"
)

// Normalize maps any category outside the known set to OutcomeOther
func (c OutcomeCategory) Normalize() OutcomeCategory {
	switch c {
	case OutcomeEffectiveContact, OutcomeNoContact, OutcomePaymentPromise:
		return c
	default:
		return OutcomeOther
	}
}

// GestionRecord is one logged negotiation event between an agent and a
// debtor, as returned by the warehouse. Immutable once fetched.
type GestionRecord struct {
	AgentEmail      string
	AgentDNI        string
	AgentName       string
	Date            time.Time // day of the event, midnight UTC
	Hour            int       // 0-23
	Outcome         OutcomeCategory
	Count           int
	DurationSeconds int64 // handling time, feeds the connected-time accumulation
}

// HourlyAgentMetric is the fold of all gestión events sharing a
// (date, hour, agent email) key.
type HourlyAgentMetric struct {
	Date              time.Time
	Hour              int
	AgentEmail        string
	AgentDNI          string
	AgentName         string
	Total             int
	EffectiveContacts int
	NoContacts        int
	PDPCount          int
}

// HeatmapRow holds one agent's promises-per-hour value for every day of
// the period. Daily[0] is day 1; days without activity stay 0.
type HeatmapRow struct {
	AgentEmail     string
	AgentDNI       string
	AgentName      string
	Daily          []float64
	MonthlyAverage float64 // mean of the non-zero daily values, 0 when none
}

// Heatmap is the agent-by-day productivity matrix for one period.
type Heatmap struct {
	Period Period
	Rows   []HeatmapRow
}

// ProcessResponse is the result of one process-period run. Errors carries
// non-fatal degradations (e.g. connected-time accumulation failures); the
// run itself succeeded whenever a response is returned.
type ProcessResponse struct {
	TotalRecords          int      `json:"total_records"`
	UniqueAgents          int      `json:"unique_agents"`
	ExcelFilePath         string   `json:"excel_file_path,omitempty"`
	ProcessingTimeSeconds float64  `json:"processing_time_seconds"`
	Period                string   `json:"period"`
	Errors                []string `json:"errors"`
}
