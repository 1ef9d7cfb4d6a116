package compensation

import "github.com/shopspring/decimal"

type LineItemRequest struct {
	Label  string          `json:"label" binding:"required,max=120"`
	Amount decimal.Decimal `json:"amount"`
}

// TemplateRequest is the compensation shape shared by single creation,
// superseding and batch assignment.
type TemplateRequest struct {
	Basic         decimal.Decimal   `json:"basic"`
	HRA           decimal.Decimal   `json:"hra"`
	Allowances    []LineItemRequest `json:"allowances" binding:"omitempty,dive"`
	Deductions    []LineItemRequest `json:"deductions" binding:"omitempty,dive"`
	TaxPercent    decimal.Decimal   `json:"tax_percent"`
	EffectiveFrom string            `json:"effective_from" binding:"required"`
	EffectiveTo   string            `json:"effective_to"`
}

type CreateCompensationRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	TemplateRequest
}

type SupersedeCompensationRequest struct {
	TemplateRequest
}

type LineItemResponse struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

type CompensationResponse struct {
	ID              string             `json:"id"`
	CompanyID       string             `json:"company_id"`
	EmployeeID      string             `json:"employee_id"`
	Basic           string             `json:"basic"`
	HRA             string             `json:"hra"`
	Allowances      []LineItemResponse `json:"allowances"`
	Deductions      []LineItemResponse `json:"deductions"`
	TaxPercent      string             `json:"tax_percent"`
	TotalAllowances string             `json:"total_allowances"`
	TotalDeductions string             `json:"total_deductions"`
	GrossCTC        string             `json:"gross_ctc"`
	EffectiveFrom   string             `json:"effective_from"`
	EffectiveTo     *string            `json:"effective_to,omitempty"`
	Status          string             `json:"status"`
	Version         int64              `json:"version"`
	SupersedesID    *string            `json:"supersedes_id,omitempty"`
	CreatedBy       string             `json:"created_by"`
	ApprovedBy      *string            `json:"approved_by,omitempty"`
	ApprovedAt      *string            `json:"approved_at,omitempty"`
}
