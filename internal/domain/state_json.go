package domain

import (
	"encoding/json"
	"fmt"
)

type stateStatus struct {
	Status BatchStatus `json:"status"`
}

// MarshalState encodes a state with its status discriminator.
func MarshalState(s State) ([]byte, error) {
	switch v := s.(type) {
	case Processing:
		return json.Marshal(struct {
			stateStatus
			Processing
		}{stateStatus{v.Status()}, v})
	case FailedValidation:
		return json.Marshal(struct {
			stateStatus
			FailedValidation
		}{stateStatus{v.Status()}, v})
	case PassedValidation:
		return json.Marshal(struct {
			stateStatus
			PassedValidation
		}{stateStatus{v.Status()}, v})
	case Submitting:
		return json.Marshal(struct {
			stateStatus
			Submitting
		}{stateStatus{v.Status()}, v})
	case Submitted:
		return json.Marshal(struct {
			stateStatus
			Submitted
		}{stateStatus{v.Status()}, v})
	case nil:
		return nil, fmt.Errorf("marshal state: state is nil")
	default:
		return nil, fmt.Errorf("marshal state: unsupported state %T", s)
	}
}

// UnmarshalState decodes a state produced by MarshalState.
func UnmarshalState(data []byte) (State, error) {
	var head stateStatus
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}

	var (
		s   State
		err error
	)
	switch head.Status {
	case BatchStatusProcessing:
		var v Processing
		err = json.Unmarshal(data, &v)
		s = v
	case BatchStatusFailedValidation:
		var v FailedValidation
		err = json.Unmarshal(data, &v)
		s = v
	case BatchStatusPassedValidation:
		var v PassedValidation
		err = json.Unmarshal(data, &v)
		s = v
	case BatchStatusSubmitting:
		var v Submitting
		err = json.Unmarshal(data, &v)
		s = v
	case BatchStatusSubmitted:
		var v Submitted
		err = json.Unmarshal(data, &v)
		s = v
	default:
		return nil, fmt.Errorf("unmarshal state: unknown status %q", head.Status)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal state %s: %w", head.Status, err)
	}
	return s, nil
}
