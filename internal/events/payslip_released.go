package events

import "time"

const PayslipReleasedTopic = "hr.payslip.released.v1"

type PayslipReleasedEvent struct {
	EventType  string    `json:"event_type"`
	PayslipID  string    `json:"payslip_id"`
	EmployeeID string    `json:"employee_id"`
	CompanyID  string    `json:"company_id"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	ReleasedBy string    `json:"released_by"`
	OccurredAt time.Time `json:"occurred_at"`
}
