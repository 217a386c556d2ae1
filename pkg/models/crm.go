package models

import "time"

// LeadStatus is the qualification stage of a lead.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusLost      LeadStatus = "lost"
)

// Lead is a sales prospect tracked in the CRM.
type Lead struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Company   string     `json:"company,omitempty"`
	Email     string     `json:"email,omitempty"`
	Status    LeadStatus `json:"status"`
	Score     int        `json:"score"`
	CreatedAt time.Time  `json:"created_at"`
}

// DealStage is the pipeline stage of a deal.
type DealStage string

const (
	DealStageProspecting DealStage = "prospecting"
	DealStageProposal    DealStage = "proposal"
	DealStageNegotiation DealStage = "negotiation"
	DealStageClosedWon   DealStage = "closed_won"
	DealStageClosedLost  DealStage = "closed_lost"
)

// Deal is an opportunity in the sales pipeline.
type Deal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Value       float64   `json:"value"`
	Stage       DealStage `json:"stage"`
	Probability int       `json:"probability"`
	Contact     string    `json:"contact,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CRMTask is a pending to-do item tracked in the CRM.
type CRMTask struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	DueDate  *time.Time `json:"due_date,omitempty"`
	Priority string     `json:"priority,omitempty"`
	Done     bool       `json:"done"`
}

// CRMSnapshot is a read-only view of the leads and deals used by
// analysis steps.
type CRMSnapshot struct {
	Leads []Lead `json:"leads"`
	Deals []Deal `json:"deals"`
}
