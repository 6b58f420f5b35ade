package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// ErrInvalidSelectionShape is returned when a modifier payload matches none of
// the accepted shapes.
var ErrInvalidSelectionShape = errors.New("invalid selected_modifiers shape")

// GroupSelection is the normalized selection for one modifier group.
type GroupSelection struct {
	GroupID   uuid.UUID   `json:"group_id"`
	OptionIDs []uuid.UUID `json:"option_ids"`
}

// ModifierSelections is decoded from any of these payloads:
//
//	[{"group_id": "g1", "option_ids": ["o1", "o2"]}]
//	[{"group_id": "g1", "option_id": "o1"}, {"group_id": "g1", "option_id": "o2"}]
//	{"g1": ["o1", "o2"], "g2": "o3"}
//
// and always holds the first shape after decoding.
type ModifierSelections []GroupSelection

// selectionEntry covers both array element shapes.
type selectionEntry struct {
	GroupID   *uuid.UUID  `json:"group_id"`
	OptionIDs []uuid.UUID `json:"option_ids"`
	OptionID  *uuid.UUID  `json:"option_id"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *ModifierSelections) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}

	switch data[0] {
	case '[':
		sel, err := decodeSelectionArray(data)
		if err != nil {
			return err
		}
		*m = sel
		return nil
	case '{':
		sel, err := decodeSelectionObject(data)
		if err != nil {
			return err
		}
		*m = sel
		return nil
	}
	return ErrInvalidSelectionShape
}

func decodeSelectionArray(data []byte) (ModifierSelections, error) {
	var entries []selectionEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelectionShape, err)
	}

	var out ModifierSelections
	// flat entries for the same group are merged into one selection
	flat := make(map[uuid.UUID]int)
	for i, e := range entries {
		if e.GroupID == nil {
			return nil, fmt.Errorf("%w: entry[%d] missing group_id", ErrInvalidSelectionShape, i)
		}
		switch {
		case e.OptionID != nil && e.OptionIDs != nil:
			return nil, fmt.Errorf("%w: entry[%d] has both option_id and option_ids", ErrInvalidSelectionShape, i)
		case e.OptionID != nil:
			if pos, ok := flat[*e.GroupID]; ok {
				out[pos].OptionIDs = append(out[pos].OptionIDs, *e.OptionID)
				continue
			}
			flat[*e.GroupID] = len(out)
			out = append(out, GroupSelection{GroupID: *e.GroupID, OptionIDs: []uuid.UUID{*e.OptionID}})
		default:
			out = append(out, GroupSelection{GroupID: *e.GroupID, OptionIDs: e.OptionIDs})
		}
	}
	return out, nil
}

func decodeSelectionObject(data []byte) (ModifierSelections, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelectionShape, err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(ModifierSelections, 0, len(keys))
	for _, k := range keys {
		groupID, err := uuid.Parse(k)
		if err != nil {
			return nil, fmt.Errorf("%w: group key %q", ErrInvalidSelectionShape, k)
		}
		v := bytes.TrimSpace(raw[k])
		var ids []uuid.UUID
		if len(v) > 0 && v[0] == '[' {
			if err := json.Unmarshal(v, &ids); err != nil {
				return nil, fmt.Errorf("%w: group %s: %v", ErrInvalidSelectionShape, k, err)
			}
		} else {
			var id uuid.UUID
			if err := json.Unmarshal(v, &id); err != nil {
				return nil, fmt.Errorf("%w: group %s: %v", ErrInvalidSelectionShape, k, err)
			}
			ids = []uuid.UUID{id}
		}
		out = append(out, GroupSelection{GroupID: groupID, OptionIDs: ids})
	}
	return out, nil
}
