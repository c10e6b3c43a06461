package persistence

import (
	"errors"
	"strings"

	"github.com/d2bcart/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateNotFound maps GORM's record-not-found to the domain sentinel
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// isUniqueViolation reports whether err is a unique constraint failure.
// The DB must be opened with TranslateError; the string checks cover
// sessions that were not.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

// paginate applies normalized page and page size to a query
func paginate(query *gorm.DB, page, pageSize int) (*gorm.DB, shared.Filter) {
	f := shared.Filter{Page: page, PageSize: pageSize}.Normalize()
	return query.Offset(f.Offset()).Limit(f.PageSize), f
}

// likePattern escapes LIKE wildcards in user input and wraps it in %...%
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

// orderClause validates a sort column against an allow-list
func orderClause(orderBy, orderDir string, allowed map[string]string, fallback string) string {
	col, ok := allowed[orderBy]
	if !ok {
		col = fallback
	}
	if strings.EqualFold(orderDir, "asc") {
		return col + " ASC"
	}
	return col + " DESC"
}
