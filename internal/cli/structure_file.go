package cli

import (
	"fmt"
	"os"

	"go-payroll/internal/compensation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type lineFile struct {
	Label  string `yaml:"label"`
	Amount string `yaml:"amount"`
}

// structureFile is the on-disk shape read by `payrollctl compile`. Amounts
// are kept as text so YAML floats never touch the money path.
type structureFile struct {
	EmployeeID    string     `yaml:"employee_id"`
	Basic         string     `yaml:"basic"`
	HRA           string     `yaml:"hra"`
	TaxPercent    string     `yaml:"tax_percent"`
	EffectiveFrom string     `yaml:"effective_from"`
	EffectiveTo   string     `yaml:"effective_to"`
	Allowances    []lineFile `yaml:"allowances"`
	Deductions    []lineFile `yaml:"deductions"`
}

func loadStructureFile(path string) (compensation.CompensationStructure, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return compensation.CompensationStructure{}, err
	}
	return parseStructure(raw)
}

func parseStructure(raw []byte) (compensation.CompensationStructure, error) {
	var f structureFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return compensation.CompensationStructure{}, fmt.Errorf("parse structure file: %w", err)
	}

	req := compensation.TemplateRequest{
		EffectiveFrom: f.EffectiveFrom,
		EffectiveTo:   f.EffectiveTo,
	}
	var err error
	if req.Basic, err = amount("basic", f.Basic); err != nil {
		return compensation.CompensationStructure{}, err
	}
	if req.HRA, err = amount("hra", f.HRA); err != nil {
		return compensation.CompensationStructure{}, err
	}
	if req.TaxPercent, err = amount("tax_percent", f.TaxPercent); err != nil {
		return compensation.CompensationStructure{}, err
	}
	if req.Allowances, err = lines("allowances", f.Allowances); err != nil {
		return compensation.CompensationStructure{}, err
	}
	if req.Deductions, err = lines("deductions", f.Deductions); err != nil {
		return compensation.CompensationStructure{}, err
	}

	terms, err := compensation.ParseTemplate(req)
	if err != nil {
		return compensation.CompensationStructure{}, err
	}

	employeeID := uuid.Nil
	if f.EmployeeID != "" {
		if employeeID, err = uuid.Parse(f.EmployeeID); err != nil {
			return compensation.CompensationStructure{}, fmt.Errorf("employee_id: %w", err)
		}
	}

	structure := compensation.Draft(uuid.Nil, employeeID, "payrollctl", terms)
	structure.Status = compensation.StatusApproved
	return structure, nil
}

func amount(field, v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

func lines(field string, items []lineFile) ([]compensation.LineItemRequest, error) {
	out := make([]compensation.LineItemRequest, 0, len(items))
	for i, item := range items {
		d, err := amount(fmt.Sprintf("%s[%d].amount", field, i), item.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, compensation.LineItemRequest{Label: item.Label, Amount: d})
	}
	return out, nil
}
