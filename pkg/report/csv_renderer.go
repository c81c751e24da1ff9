package report

import (
	"bytes"
	"encoding/csv"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Renderer interface {
	RenderCategoryReport(summary CategorySummary) (string, error)
}

type CsvRendererImpl struct{}

func NewCsvRenderer() *CsvRendererImpl {
	return &CsvRendererImpl{}
}

// RenderCategoryReport writes a header, one row per category and a closing SUM row.
func (r *CsvRendererImpl) RenderCategoryReport(summary CategorySummary) (string, error) {
	data := make([][]string, 0, len(summary.Categories)+2)
	data = append(data, []string{"Category", "Budget", "Spent", "Remaining", "Percent spent", "Status"})
	for _, c := range summary.Categories {
		percent := ""
		if c.PercentSpent != nil {
			percent = c.PercentSpent.StringFixed(2)
		}
		data = append(data, []string{
			c.Name,
			money(c.Budget),
			money(c.Spent),
			money(c.Remaining),
			percent,
			string(c.Status),
		})
	}
	data = append(data, []string{
		"SUM",
		money(summary.TotalBudget),
		money(summary.TotalSpent),
		money(summary.TotalRemaining),
		"",
		"",
	})

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}
	return b.String(), nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
