package pgshipments

import (
	"fmt"
	"strings"

	"shipdesk/internal/models"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// sortColumns whitelists sortable fields. Anything else falls back to createdAt.
var sortColumns = map[string]string{
	"createdAt":         "created_at",
	"updatedAt":         "updated_at",
	"trackingNumber":    "tracking_number",
	"status":            "status",
	"shipperName":       "shipper_name",
	"consigneeName":     "consignee_name",
	"pickupDate":        "pickup_date",
	"estimatedDelivery": "estimated_delivery",
	"rate":              "rate",
}

// ListQuery is the predicate/order/offset/limit tuple shared by the row query
// and the count query, so the two can never drift apart.
type ListQuery struct {
	Where   string
	Args    []any
	OrderBy string
	Limit   int
	Offset  int
	Page    int
}

// BuildListQuery is pure: same input, same tuple, no I/O.
func BuildListQuery(f models.ShipmentFilter, sort *models.ShipmentSort, page *models.PageInput) ListQuery {
	var conds []string
	var args []any

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.Status) > 0 {
		conds = append(conds, "status = ANY("+next(f.Status)+")")
	}
	if f.CarrierName != nil && *f.CarrierName != "" {
		conds = append(conds, "carrier_name ILIKE "+next("%"+*f.CarrierName+"%"))
	}
	if f.IsFlagged != nil {
		conds = append(conds, "is_flagged = "+next(*f.IsFlagged))
	}
	if f.DateRange != nil {
		if f.DateRange.From != nil {
			conds = append(conds, "created_at >= "+next(*f.DateRange.From))
		}
		if f.DateRange.To != nil {
			conds = append(conds, "created_at <= "+next(*f.DateRange.To))
		}
	}
	if f.RateRange != nil {
		if f.RateRange.Min != nil {
			conds = append(conds, "rate >= "+next(*f.RateRange.Min))
		}
		if f.RateRange.Max != nil {
			conds = append(conds, "rate <= "+next(*f.RateRange.Max))
		}
	}
	if f.SearchTerm != nil && *f.SearchTerm != "" {
		p := next("%" + *f.SearchTerm + "%")
		conds = append(conds, fmt.Sprintf(
			"(tracking_number ILIKE %[1]s OR shipper_name ILIKE %[1]s OR consignee_name ILIKE %[1]s OR carrier_name ILIKE %[1]s)", p))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	col := "created_at"
	dir := "DESC"
	if sort != nil {
		if c, ok := sortColumns[sort.Field]; ok {
			col = c
		}
		if sort.Order == models.SortAsc {
			dir = "ASC"
		}
	}
	// id tie-break keeps pages disjoint when the sort column has duplicates.
	orderBy := fmt.Sprintf("ORDER BY %s %s, id DESC", col, dir)

	p, limit := 1, defaultPageLimit
	if page != nil {
		if page.Page > 0 {
			p = page.Page
		}
		if page.Limit > 0 {
			limit = page.Limit
		}
		if limit > maxPageLimit {
			limit = maxPageLimit
		}
	}

	return ListQuery{
		Where:   where,
		Args:    args,
		OrderBy: orderBy,
		Limit:   limit,
		Offset:  (p - 1) * limit,
		Page:    p,
	}
}
