package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Menu is a read-only view of one restaurant's orderable catalog.
type Menu struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Items        []Item    `json:"items"`
}

// Item is a menu item with its modifier groups.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	BasePrice   decimal.Decimal `json:"base_price"`
	IsActive    bool            `json:"is_active"`
	IsAvailable bool            `json:"is_available"`
	Groups      []Group         `json:"modifier_groups"`
}

// Group is a modifier group. A nil MaxSelect means unbounded.
type Group struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	MinSelect int       `json:"min_select"`
	MaxSelect *int      `json:"max_select"`
	IsActive  bool      `json:"is_active"`
	Options   []Option  `json:"options"`
}

// Option is a single selectable modifier.
type Option struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"price_delta"`
	IsActive   bool            `json:"is_active"`
}

// maxAllowed returns the effective upper bound for a group and whether one applies.
// A group with max <= 1 is single-select.
func (g *Group) maxAllowed() (int, bool) {
	if g.MaxSelect == nil {
		return 0, false
	}
	if *g.MaxSelect <= 1 {
		return 1, true
	}
	return *g.MaxSelect, true
}

func (g *Group) option(id uuid.UUID) (*Option, bool) {
	for i := range g.Options {
		if g.Options[i].ID == id {
			return &g.Options[i], true
		}
	}
	return nil, false
}

func (it *Item) group(id uuid.UUID) (*Group, bool) {
	for i := range it.Groups {
		if it.Groups[i].ID == id {
			return &it.Groups[i], true
		}
	}
	return nil, false
}

func (m *Menu) index() map[uuid.UUID]*Item {
	idx := make(map[uuid.UUID]*Item, len(m.Items))
	for i := range m.Items {
		idx[m.Items[i].ID] = &m.Items[i]
	}
	return idx
}
