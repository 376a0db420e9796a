package sqlite

import "strings"

// appendPagination appends LIMIT and OFFSET clauses to a query builder if values are > 0.
// SQLite requires a LIMIT before OFFSET, so an offset alone uses LIMIT -1.
func appendPagination(query *strings.Builder, args *[]any, limit, offset int) {
	if limit > 0 {
		query.WriteString(" LIMIT ?")
		*args = append(*args, limit)
	} else if offset > 0 {
		query.WriteString(" LIMIT -1")
	}
	if offset > 0 {
		query.WriteString(" OFFSET ?")
		*args = append(*args, offset)
	}
}

// appendContains appends a substring match on a lowercased search column.
func appendContains(query *strings.Builder, args *[]any, column string, value *string) {
	if value == nil {
		return
	}
	query.WriteString(" AND " + column + ` LIKE ? ESCAPE '\'`)
	*args = append(*args, "%"+escapeLike(strings.ToLower(*value))+"%")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
