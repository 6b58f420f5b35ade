package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxQuantity = 99

// Errors returned by Resolve. They are always wrapped in a *SelectionError.
var (
	ErrNoItems           = errors.New("items are required")
	ErrInvalidQuantity   = errors.New("quantity must be between 1 and 99")
	ErrItemNotFound      = errors.New("item not found in menu")
	ErrItemUnavailable   = errors.New("item is not orderable")
	ErrGroupNotFound     = errors.New("modifier group does not belong to item")
	ErrGroupInactive     = errors.New("modifier group is inactive")
	ErrDuplicateGroup    = errors.New("modifier group selected more than once")
	ErrOptionNotFound    = errors.New("option does not belong to group")
	ErrOptionInactive    = errors.New("option is inactive")
	ErrDuplicateOption   = errors.New("option selected more than once")
	ErrSelectionBounds   = errors.New("selected option count outside group bounds")
	ErrNegativeUnitTotal = errors.New("unit total is negative")
)

// SelectionError names the offending item, group and option of a rejected request.
type SelectionError struct {
	Index    int
	ItemID   uuid.UUID
	GroupID  uuid.UUID
	OptionID uuid.UUID
	Detail   string
	Err      error
}

func (e *SelectionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "item[%d]", e.Index)
	if e.ItemID != uuid.Nil {
		fmt.Fprintf(&b, " %s", e.ItemID)
	}
	if e.GroupID != uuid.Nil {
		fmt.Fprintf(&b, ": group %s", e.GroupID)
	}
	if e.OptionID != uuid.Nil {
		fmt.Fprintf(&b, ": option %s", e.OptionID)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if e.Detail != "" {
		fmt.Fprintf(&b, " (%s)", e.Detail)
	}
	return b.String()
}

func (e *SelectionError) Unwrap() error { return e.Err }

// IsSelectionError reports whether err was produced by Resolve rejecting input.
func IsSelectionError(err error) bool {
	var se *SelectionError
	return errors.As(err, &se) || errors.Is(err, ErrInvalidSelectionShape)
}

// ItemSelection is one requested line.
type ItemSelection struct {
	ItemID    uuid.UUID          `json:"item_id"`
	Quantity  int                `json:"quantity"`
	Note      string             `json:"note,omitempty"`
	Modifiers ModifierSelections `json:"selected_modifiers"`
}

// SelectedModifier is a frozen copy of a chosen option.
type SelectedModifier struct {
	GroupID    uuid.UUID       `json:"group_id"`
	GroupName  string          `json:"group_name"`
	OptionID   uuid.UUID       `json:"option_id"`
	OptionName string          `json:"option_name"`
	PriceDelta decimal.Decimal `json:"price_delta"`
}

// LineItem is a priced, immutable snapshot of one ordered item.
type LineItem struct {
	ItemID             uuid.UUID          `json:"item_id"`
	Title              string             `json:"title"`
	BasePrice          decimal.Decimal    `json:"base_price"`
	Quantity           int                `json:"quantity"`
	Note               string             `json:"note,omitempty"`
	Modifiers          []SelectedModifier `json:"modifiers"`
	UnitModifiersTotal decimal.Decimal    `json:"unit_modifiers_total"`
	UnitTotal          decimal.Decimal    `json:"unit_total"`
	LineTotal          decimal.Decimal    `json:"line_total"`
}

// Snapshot is the resolved order body.
type Snapshot struct {
	Items    []LineItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Resolve prices the requested items against menu. Any violation rejects the
// whole request; no partial snapshot is returned.
func Resolve(menu *Menu, req []ItemSelection) (*Snapshot, error) {
	if len(req) == 0 {
		return nil, &SelectionError{Index: 0, Err: ErrNoItems}
	}

	idx := menu.index()
	snap := &Snapshot{Items: make([]LineItem, 0, len(req)), Subtotal: decimal.Zero}

	for i, sel := range req {
		line, err := resolveItem(idx, i, sel)
		if err != nil {
			return nil, err
		}
		snap.Items = append(snap.Items, line)
		snap.Subtotal = snap.Subtotal.Add(line.LineTotal)
	}
	return snap, nil
}

func resolveItem(idx map[uuid.UUID]*Item, i int, sel ItemSelection) (LineItem, error) {
	fail := func(groupID, optionID uuid.UUID, err error, detail string) (LineItem, error) {
		return LineItem{}, &SelectionError{
			Index:    i,
			ItemID:   sel.ItemID,
			GroupID:  groupID,
			OptionID: optionID,
			Detail:   detail,
			Err:      err,
		}
	}

	if sel.Quantity < 1 || sel.Quantity > maxQuantity {
		return fail(uuid.Nil, uuid.Nil, ErrInvalidQuantity, "")
	}
	item, ok := idx[sel.ItemID]
	if !ok {
		return fail(uuid.Nil, uuid.Nil, ErrItemNotFound, "")
	}
	if !item.IsActive || !item.IsAvailable {
		return fail(uuid.Nil, uuid.Nil, ErrItemUnavailable, "")
	}

	chosen := make(map[uuid.UUID][]*Option, len(sel.Modifiers))
	for _, gs := range sel.Modifiers {
		group, ok := item.group(gs.GroupID)
		if !ok {
			return fail(gs.GroupID, uuid.Nil, ErrGroupNotFound, "")
		}
		if !group.IsActive {
			return fail(gs.GroupID, uuid.Nil, ErrGroupInactive, "")
		}
		if _, dup := chosen[gs.GroupID]; dup {
			return fail(gs.GroupID, uuid.Nil, ErrDuplicateGroup, "")
		}
		seen := make(map[uuid.UUID]bool, len(gs.OptionIDs))
		opts := make([]*Option, 0, len(gs.OptionIDs))
		for _, oid := range gs.OptionIDs {
			if seen[oid] {
				return fail(gs.GroupID, oid, ErrDuplicateOption, "")
			}
			seen[oid] = true
			opt, ok := group.option(oid)
			if !ok {
				return fail(gs.GroupID, oid, ErrOptionNotFound, "")
			}
			if !opt.IsActive {
				return fail(gs.GroupID, oid, ErrOptionInactive, "")
			}
			opts = append(opts, opt)
		}
		chosen[gs.GroupID] = opts
	}

	line := LineItem{
		ItemID:             item.ID,
		Title:              item.Title,
		BasePrice:          item.BasePrice,
		Quantity:           sel.Quantity,
		Note:               sel.Note,
		Modifiers:          []SelectedModifier{},
		UnitModifiersTotal: decimal.Zero,
	}

	// walk groups in catalog order so the snapshot is stable across payload shapes
	for gi := range item.Groups {
		group := &item.Groups[gi]
		if !group.IsActive {
			continue
		}
		opts := chosen[group.ID]
		n := len(opts)
		if n < group.MinSelect {
			return fail(group.ID, uuid.Nil, ErrSelectionBounds, boundsDetail(group, n))
		}
		if upper, bounded := group.maxAllowed(); bounded && n > upper {
			return fail(group.ID, uuid.Nil, ErrSelectionBounds, boundsDetail(group, n))
		}
		for _, opt := range opts {
			line.Modifiers = append(line.Modifiers, SelectedModifier{
				GroupID:    group.ID,
				GroupName:  group.Name,
				OptionID:   opt.ID,
				OptionName: opt.Name,
				PriceDelta: opt.PriceDelta,
			})
			line.UnitModifiersTotal = line.UnitModifiersTotal.Add(opt.PriceDelta)
		}
	}

	line.UnitTotal = item.BasePrice.Add(line.UnitModifiersTotal)
	if line.UnitTotal.IsNegative() {
		return fail(uuid.Nil, uuid.Nil, ErrNegativeUnitTotal, "")
	}
	line.LineTotal = line.UnitTotal.Mul(decimal.NewFromInt(int64(sel.Quantity)))
	return line, nil
}

func boundsDetail(g *Group, n int) string {
	if upper, bounded := g.maxAllowed(); bounded {
		return fmt.Sprintf("selected %d, allowed %d..%d", n, g.MinSelect, upper)
	}
	return fmt.Sprintf("selected %d, minimum %d", n, g.MinSelect)
}
