package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// IDList accepts either one id or an array of ids. Multi records which form was sent.
type IDList struct {
	IDs   []string
	Multi bool
}

func (l *IDList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var ids []string
		if err := json.Unmarshal(b, &ids); err != nil {
			return err
		}
		*l = IDList{IDs: ids, Multi: true}
		return nil
	}
	var id string
	if err := json.Unmarshal(b, &id); err != nil {
		return fmt.Errorf("expected an id or an array of ids")
	}
	*l = IDList{IDs: []string{id}}
	return nil
}

func (l IDList) MarshalJSON() ([]byte, error) {
	if l.Multi {
		return json.Marshal(l.IDs)
	}
	if len(l.IDs) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(l.IDs[0])
}
