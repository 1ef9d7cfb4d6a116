package events

import "time"

const CompensationApprovedTopic = "hr.compensation.approved.v1"

type CompensationApprovedEvent struct {
	EventType     string    `json:"event_type"`
	StructureID   string    `json:"structure_id"`
	EmployeeID    string    `json:"employee_id"`
	CompanyID     string    `json:"company_id"`
	ApprovedBy    string    `json:"approved_by"`
	EffectiveFrom string    `json:"effective_from"`
	OccurredAt    time.Time `json:"occurred_at"`
}
