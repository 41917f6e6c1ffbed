package api

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisRequest struct {
	Bucket    string `json:"bucket"`
	ObjectKey string `json:"object_key"`
}

type AnalysisSubmitResponse struct {
	Message      string
	InvocationId uuid.UUID
}

type Invocation struct {
	Id           uuid.UUID
	Bucket       string
	ObjectKey    string
	Status       string
	ResultStatus string `json:",omitempty"`
	MatchedLabel bool
	LabelCount   int
	Error        string `json:",omitempty"`

	CreationTime   time.Time
	CompletionTime *time.Time `json:",omitempty"`
}

type ListInvocationsRequest struct {
	Bucket string `schema:"bucket"`
	Status string `schema:"status"`
	Limit  int    `schema:"limit"`
}
