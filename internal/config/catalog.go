package config

import (
	"fmt"
	"os"

	loanUC "makono-backend/internal/usecase/loan"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// CatalogFile is the optional YAML product catalog. Zero fields keep the env/default value.
//
//	max_repayment_months: 2
//	default_interest_rate: 30
//	currency: MKW
//	loan_types: [personal, emergency]
//	purposes: [Education, Other]
type CatalogFile struct {
	MaxRepaymentMonths  int      `yaml:"max_repayment_months"`
	DefaultInterestRate float64  `yaml:"default_interest_rate"`
	Currency            string   `yaml:"currency"`
	LoanTypes           []string `yaml:"loan_types"`
	Purposes            []string `yaml:"purposes"`
}

func readCatalogFile(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f CatalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// LoanCatalog builds the product catalog: built-in defaults, then env, then LOAN_CATALOG_FILE.
func (c *Config) LoanCatalog() (loanUC.Catalog, error) {
	cat := loanUC.DefaultCatalog()
	cat.MaxRepaymentMonths = c.MaxRepaymentMonths
	cat.DefaultInterestRate = decimal.NewFromFloat(c.DefaultInterestRate)
	cat.Currency = c.Currency

	if c.LoanCatalogFile == "" {
		return cat, nil
	}
	f, err := readCatalogFile(c.LoanCatalogFile)
	if err != nil {
		return loanUC.Catalog{}, fmt.Errorf("loan catalog: %w", err)
	}
	if f.MaxRepaymentMonths > 0 {
		cat.MaxRepaymentMonths = f.MaxRepaymentMonths
	}
	if f.DefaultInterestRate > 0 {
		if f.DefaultInterestRate > 100 {
			return loanUC.Catalog{}, fmt.Errorf("loan catalog: default_interest_rate %v out of range", f.DefaultInterestRate)
		}
		cat.DefaultInterestRate = decimal.NewFromFloat(f.DefaultInterestRate)
	}
	if f.Currency != "" {
		cat.Currency = f.Currency
	}
	if len(f.LoanTypes) > 0 {
		cat.LoanTypes = f.LoanTypes
	}
	if len(f.Purposes) > 0 {
		cat.Purposes = f.Purposes
	}
	return cat, nil
}
