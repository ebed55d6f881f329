package sqlite

import "strings"

// priorityRankExpr orders rows by safety priority: critical first, then
// high, then everything else.
const priorityRankExpr = `CASE priority
			WHEN 'critical' THEN 1
			WHEN 'high' THEN 2
			ELSE 3
		END`

// placeholders builds a comma-separated list of n "?" placeholders.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
