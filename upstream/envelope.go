package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope is the outer JSON wrapper returned by the AJAX endpoints. The real
// payload is a second JSON document serialized into the D field, so decoding
// is an explicit two-stage step: first the envelope, then Decode.
type Envelope struct {
	D string `json:"d"`
}

// Decode unmarshals the nested stringified payload into dst.
func (e *Envelope) Decode(dst any) error {
	if e.D == "" {
		return errors.New("upstream envelope: empty payload")
	}
	if err := json.Unmarshal([]byte(e.D), dst); err != nil {
		return fmt.Errorf("upstream envelope: %w", err)
	}
	return nil
}
