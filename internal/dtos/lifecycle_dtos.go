package dtos

import "github.com/google/uuid"

type LifecycleRunResponse struct {
	Activated []uuid.UUID `json:"activated"`
	Closed    []uuid.UUID `json:"closed"`
}
