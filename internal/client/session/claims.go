package session

import (
	"encoding/json"
	"strconv"
)

// jsonID is a claim that backends emit either as a number or a string.
type jsonID string

func (id *jsonID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = jsonID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*id = jsonID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = jsonID(n.String())
	return nil
}
