package httpapi

import (
	"encoding/json"

	"github.com/rezkam/keepup/internal/domain"
	"github.com/rezkam/keepup/internal/store/blob"
)

// scheduleFromJSON decodes a request body's schedule field using the same
// envelope shape store/blob persists, so clients and the store agree on one
// wire format for the Schedule tagged union.
func scheduleFromJSON(raw json.RawMessage) (domain.Schedule, error) {
	return blob.DecodeSchedule(raw)
}

// scheduleJSON encodes a Schedule back to that envelope shape for responses.
func scheduleJSON(s domain.Schedule) (json.RawMessage, error) {
	data, err := blob.EncodeSchedule(s)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
