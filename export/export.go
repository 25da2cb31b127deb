// Package export serialises extracted records for download.
package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/researchaccelerator-hub/page-scraper/model"
)

// JSON renders records as a two-space indented array.
func JSON(records []model.Record) ([]byte, error) {
	if records == nil {
		records = []model.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return data, nil
}

// CSV renders records with a header made of the first record's keys. String
// values are always quoted with embedded quotes doubled; rows are joined with
// "\n". Columns absent from a later record are left empty. An empty input
// yields an empty string.
func CSV(records []model.Record) string {
	if len(records) == 0 {
		return ""
	}

	header := records[0].Columns()
	keys := make([]string, len(header))
	for i, col := range header {
		keys[i] = col.Key
	}

	rows := make([]string, 0, len(records)+1)
	rows = append(rows, strings.Join(keys, ","))
	for _, r := range records {
		values := make(map[string]interface{}, len(keys))
		for _, col := range r.Columns() {
			values[col.Key] = col.Value
		}
		cells := make([]string, len(keys))
		for i, k := range keys {
			cells[i] = cell(values[k])
		}
		rows = append(rows, strings.Join(cells, ","))
	}
	return strings.Join(rows, "\n")
}

func cell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return `"` + strings.ReplaceAll(val, `"`, `""`) + `"`
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}
