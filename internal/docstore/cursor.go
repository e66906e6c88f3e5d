// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package docstore

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Cursor is an opaque start-after token. Callers must pass it back unmodified.
type Cursor string

// cursorPayload is the decoded form: the order-by value and id of the last
// document on the previous page.
type cursorPayload struct {
	Value any    `json:"v"`
	ID    string `json:"id"`
}

func newCursor(value any, id string) Cursor {
	raw, err := json.Marshal(cursorPayload{Value: value, ID: id})
	if err != nil {
		// Values come from decoded JSON documents, so they always re-encode.
		return ""
	}
	return Cursor(base64.RawURLEncoding.EncodeToString(raw))
}

func (c Cursor) decode() (cursorPayload, error) {
	var p cursorPayload
	raw, err := base64.RawURLEncoding.DecodeString(string(c))
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if p.ID == "" {
		return p, fmt.Errorf("%w: missing id", ErrInvalidCursor)
	}
	return p, nil
}
