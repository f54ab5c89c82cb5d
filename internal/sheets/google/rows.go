package google

import (
	"fmt"
	"strings"

	"kakeibo/internal/core"
)

// parseRecordRows converts raw sheet values into expense records. The
// conversion is deliberately forgiving: short rows are padded, non-numeric
// amounts become zero, and the raw date text is kept as-is for the
// defensive parser downstream. A nil values slice yields an empty list.
func parseRecordRows(values [][]any, firstRow int) []core.Expense {
	out := make([]core.Expense, 0, len(values))
	for i, row := range values {
		cols := toStrings(row)
		for len(cols) < 4 {
			cols = append(cols, "")
		}
		out = append(out, core.Expense{
			RowNumber:   int64(firstRow + i),
			Date:        cols[0],
			Amount:      core.ParseAmount(cols[1]),
			Description: cols[2],
			Genre:       cols[3],
		})
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
