package persistence

import (
	"strings"

	"github.com/erp/consignment/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ordering whitelists the columns a list query may sort by. Only whitelisted
// names ever reach an ORDER BY clause.
type ordering struct {
	columns  map[string]bool
	fallback string
	tieBreak string
}

var consignmentOrdering = ordering{
	columns: map[string]bool{
		"sent_at":          true,
		"closed_at":        true,
		"last_settled_at":  true,
		"total_sold_value": true,
		"total_net":        true,
		"customer_name":    true,
		"status":           true,
		"created_at":       true,
	},
	fallback: "sent_at",
	tieBreak: "id",
}

var movementOrdering = ordering{
	columns: map[string]bool{
		"occurred_at": true,
		"quantity":    true,
		"reason":      true,
		"created_at":  true,
	},
	fallback: "occurred_at",
	tieBreak: "created_at",
}

// resolve returns the whitelisted column and whether the order is descending.
// Anything but an explicit "asc" sorts descending.
func (o ordering) resolve(f shared.Filter) (string, bool) {
	column := strings.TrimSpace(f.OrderBy)
	if !o.columns[column] {
		column = o.fallback
	}
	return column, !strings.EqualFold(strings.TrimSpace(f.OrderDir), "asc")
}

// apply adds ORDER BY, a stable tie-break and LIMIT/OFFSET when a page size is set
func (o ordering) apply(query *gorm.DB, f shared.Filter) *gorm.DB {
	column, desc := o.resolve(f)
	query = query.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: column}, Desc: desc},
		{Column: clause.Column{Name: o.tieBreak}, Desc: desc && o.tieBreak != "id"},
	}})
	if f.PageSize > 0 {
		query = query.Offset(f.Offset()).Limit(f.PageSize)
	}
	return query
}
