package payslip

import "github.com/shopspring/decimal"

type GeneratePayslipRequest struct {
	EmployeeID         string           `json:"employee_id" binding:"required,uuid"`
	Year               int              `json:"year" binding:"required,min=1"`
	Month              int              `json:"month" binding:"required,min=1,max=12"`
	LOPDays            int              `json:"lop_days" binding:"min=0,max=31"`
	OverrideAllowances *decimal.Decimal `json:"override_allowances"`
	OverrideDeductions *decimal.Decimal `json:"override_deductions"`
}

type RegeneratePayslipRequest struct {
	LOPDays            int              `json:"lop_days" binding:"min=0,max=31"`
	OverrideAllowances *decimal.Decimal `json:"override_allowances"`
	OverrideDeductions *decimal.Decimal `json:"override_deductions"`
}

type LineItemResponse struct {
	Label     string `json:"label"`
	Amount    string `json:"amount"`
	Synthetic bool   `json:"synthetic,omitempty"`
}

type BreakdownResponse struct {
	DaysInMonth        int     `json:"days_in_month"`
	LOPDays            int     `json:"lop_days"`
	MonthlyBasic       string  `json:"monthly_basic"`
	MonthlyHRA         string  `json:"monthly_hra"`
	TotalAllowances    string  `json:"total_allowances"`
	TotalDeductions    string  `json:"total_deductions"`
	OverrideAllowances *string `json:"override_allowances,omitempty"`
	OverrideDeductions *string `json:"override_deductions,omitempty"`
	MonthlyAllowances  string  `json:"monthly_allowances"`
	MonthlyDeductions  string  `json:"monthly_deductions"`
	TotalPayable       string  `json:"total_payable"`
	DailyRate          string  `json:"daily_rate"`
	LOPAmount          string  `json:"lop_amount"`
	PreTax             string  `json:"pre_tax"`
	TaxPercent         string  `json:"tax_percent"`
	Tax                string  `json:"tax"`
	Net                string  `json:"net"`
	SnapshotAllowances string  `json:"snapshot_allowances"`
	SnapshotDeductions string  `json:"snapshot_deductions"`
	SnapshotMismatch   bool    `json:"snapshot_mismatch"`
}

type PayslipResponse struct {
	ID           string             `json:"id,omitempty"`
	CompanyID    string             `json:"company_id"`
	EmployeeID   string             `json:"employee_id"`
	StructureID  string             `json:"structure_id"`
	Year         int                `json:"year"`
	Month        int                `json:"month"`
	MonthlyBasic string             `json:"monthly_basic"`
	MonthlyHRA   string             `json:"monthly_hra"`
	Allowances   []LineItemResponse `json:"allowances"`
	Deductions   []LineItemResponse `json:"deductions"`
	Tax          string             `json:"tax"`
	LOPDays      int                `json:"lop_days"`
	Net          string             `json:"net"`
	Status       string             `json:"status"`
	Released     bool               `json:"released"`
	Version      int64              `json:"version"`
	CreatedBy    string             `json:"created_by,omitempty"`
	ApprovedBy   *string            `json:"approved_by,omitempty"`
	ApprovedAt   *string            `json:"approved_at,omitempty"`
	ReleasedBy   *string            `json:"released_by,omitempty"`
	ReleasedAt   *string            `json:"released_at,omitempty"`
	Breakdown    BreakdownResponse  `json:"breakdown"`
}
