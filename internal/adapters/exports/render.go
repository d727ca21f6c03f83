package exports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"pantrycore/pkg/domain"
)

var csvHeader = []string{"id", "label", "ingredients", "instructions", "calories", "created_at", "updated_at"}

func render(format Format, recipes []domain.Recipe) (payload []byte, contentType string, err error) {
	switch format {
	case FormatJSON:
		payload, err = json.MarshalIndent(recipes, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("marshal json: %w", err)
		}
		return payload, "application/json", nil
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write(csvHeader); err != nil {
			return nil, "", err
		}
		for _, r := range recipes {
			row := []string{
				strconv.FormatInt(r.ID, 10),
				r.Label,
				r.Ingredients,
				r.Instructions,
				strconv.Itoa(r.Calories),
				r.CreatedAt.UTC().Format(time.RFC3339),
				r.UpdatedAt.UTC().Format(time.RFC3339),
			}
			if err := writer.Write(row); err != nil {
				return nil, "", err
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil
	default:
		return nil, "", fmt.Errorf("unsupported export format %s", format)
	}
}
