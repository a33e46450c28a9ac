package repository

import (
	"fmt"
	"strings"
)

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

type OrderBy struct {
	Field     string
	Direction Direction
}

// ParseOrderBy parses "<field>-<ASC|DESC>". The direction defaults to ASC.
func ParseOrderBy(raw string) (*OrderBy, error) {
	if raw == "" {
		return nil, nil
	}
	field, dir, found := strings.Cut(raw, "-")
	if field == "" {
		return nil, fmt.Errorf("invalid order %q", raw)
	}
	if !found {
		return &OrderBy{Field: field, Direction: Asc}, nil
	}
	switch d := Direction(strings.ToUpper(dir)); d {
	case Asc, Desc:
		return &OrderBy{Field: field, Direction: d}, nil
	default:
		return nil, fmt.Errorf("invalid order direction %q", dir)
	}
}

// ListOptions are the paging, search and ordering options accepted by the
// list operations.
type ListOptions struct {
	Limit      int
	Offset     int
	SearchTerm string
	OrderBy    *OrderBy
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchConds builds one case-insensitive substring condition per column,
// meant to be OR-combined. LIKE wildcards in the term match literally.
func searchConds(term string, columns ...string) []Cond {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	conds := make([]Cond, 0, len(columns))
	for _, col := range columns {
		conds = append(conds, Where("LOWER("+col+`) LIKE ? ESCAPE '\'`, pattern))
	}
	return conds
}

// resolveOrder maps a caller supplied field onto a column through the
// whitelist, falling back to def for unknown fields or a nil order.
func resolveOrder(o *OrderBy, columns map[string]string, def Order) []Order {
	if o == nil {
		return []Order{def}
	}
	col, ok := columns[o.Field]
	if !ok {
		return []Order{def}
	}
	return []Order{{Column: col, Desc: o.Direction == Desc}}
}
