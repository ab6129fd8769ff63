package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"openmuni/fiscalcast/internal/models"
	"openmuni/fiscalcast/internal/moneyutils"
)

type capacityDoc struct {
	AsOf           string `yaml:"as_of"`
	Population     int64  `yaml:"population"`
	AssessedValue  string `yaml:"assessed_value"`
	RevenueSources []struct {
		Name          string `yaml:"name"`
		AnnualRevenue string `yaml:"annual_revenue"`
		PledgedFundID string `yaml:"pledged_fund_id"`
	} `yaml:"revenue_sources"`
	Instruments []instrumentDoc `yaml:"instruments"`
}

// LoadCapacityInput reads a debt capacity input document. Instruments may be
// listed inline or supplied separately by the caller.
func LoadCapacityInput(path string) (models.DebtCapacityInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.DebtCapacityInput{}, fmt.Errorf("error reading capacity file: %w", err)
	}
	input, err := ParseCapacityInput(data)
	if err != nil {
		return models.DebtCapacityInput{}, fmt.Errorf("%s: %w", path, err)
	}
	return input, nil
}

// ParseCapacityInput parses a debt capacity input document.
func ParseCapacityInput(data []byte) (models.DebtCapacityInput, error) {
	var doc capacityDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return models.DebtCapacityInput{}, fmt.Errorf("error parsing capacity document: %w", err)
	}

	input := models.DebtCapacityInput{Population: doc.Population}

	var err error
	if input.AsOf, err = parseDateField(doc.AsOf, "as_of"); err != nil {
		return models.DebtCapacityInput{}, err
	}
	if doc.AssessedValue != "" {
		if input.AssessedValue, err = moneyutils.ParseAmount(doc.AssessedValue); err != nil {
			return models.DebtCapacityInput{}, fmt.Errorf("assessed_value: %w", err)
		}
	}

	for i, s := range doc.RevenueSources {
		revenue, err := moneyutils.ParseAmount(s.AnnualRevenue)
		if err != nil {
			return models.DebtCapacityInput{}, fmt.Errorf("revenue_sources[%d]: %w", i, err)
		}
		input.RevenueSources = append(input.RevenueSources, models.RevenueSource{
			Name:          s.Name,
			AnnualRevenue: revenue,
			PledgedFundID: s.PledgedFundID,
		})
	}

	for i := range doc.Instruments {
		inst, err := buildInstrument(&doc.Instruments[i])
		if err != nil {
			return models.DebtCapacityInput{}, fmt.Errorf("instruments[%d]: %w", i, err)
		}
		input.Instruments = append(input.Instruments, inst)
	}

	return input, nil
}
