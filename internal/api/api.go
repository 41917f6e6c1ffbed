package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/msdawood/analyse-with-rekognition/internal/database"
	"github.com/msdawood/analyse-with-rekognition/internal/labelcheck"
	"github.com/msdawood/analyse-with-rekognition/internal/messaging"
	"github.com/msdawood/analyse-with-rekognition/internal/storage"
	"github.com/msdawood/analyse-with-rekognition/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultListLimit = 50

type BackendService struct {
	db        *gorm.DB
	store     storage.Provider
	publisher messaging.Publisher
}

func NewBackendService(db *gorm.DB, store storage.Provider, publisher messaging.Publisher) *BackendService {
	return &BackendService{db: db, store: store, publisher: publisher}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Route("/analyses", func(r chi.Router) {
		r.Post("/", RestHandler(s.SubmitAnalysis))
		r.Get("/", RestHandler(s.ListInvocations))
		r.Get("/{invocation_id}", RestHandler(s.GetInvocation))
		r.Get("/{invocation_id}/result", RestHandler(s.GetInvocationResult))
	})
}

func (s *BackendService) SubmitAnalysis(r *http.Request) (any, error) {
	req, err := ParseRequest[api.AnalysisRequest](r)
	if err != nil {
		return nil, err
	}

	if req.Bucket == "" || req.ObjectKey == "" {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "missing required fields: bucket, object_key")
	}

	ctx := r.Context()

	invocation := &database.Invocation{
		Id:           uuid.New(),
		Bucket:       req.Bucket,
		ObjectKey:    req.ObjectKey,
		Status:       database.JobQueued,
		CreationTime: time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(&invocation).Error; err != nil {
		slog.Error("error creating invocation", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create invocation entry")
	}

	payload := messaging.AnalysisTaskPayload{
		InvocationId: invocation.Id,
		Bucket:       req.Bucket,
		ObjectKey:    req.ObjectKey,
	}

	if err := s.publisher.PublishAnalysisTask(ctx, payload); err != nil {
		slog.Error("error publishing analysis task", "invocation_id", invocation.Id, "error", err)
		database.SaveInvocationError(ctx, s.db, invocation.Id, "failed to queue analysis task")
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to queue analysis task")
	}

	slog.Info("submitted analysis", "invocation_id", invocation.Id, "bucket", req.Bucket, "key", req.ObjectKey)
	return api.AnalysisSubmitResponse{Message: "Analysis submitted", InvocationId: invocation.Id}, nil
}

func (s *BackendService) ListInvocations(r *http.Request) (any, error) {
	req, err := ParseRequestQueryParams[api.ListInvocationsRequest](r)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 || limit > 1000 {
		limit = defaultListLimit
	}

	query := s.db.WithContext(r.Context()).Order("creation_time DESC").Limit(limit)
	if req.Bucket != "" {
		query = query.Where("bucket = ?", req.Bucket)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var invocations []database.Invocation
	if err := query.Find(&invocations).Error; err != nil {
		slog.Error("error listing invocations", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving invocations")
	}

	out := make([]api.Invocation, 0, len(invocations))
	for _, invocation := range invocations {
		out = append(out, toApiInvocation(invocation))
	}
	return out, nil
}

func (s *BackendService) GetInvocation(r *http.Request) (any, error) {
	invocationId, err := URLParamUUID(r, "invocation_id")
	if err != nil {
		return nil, err
	}

	invocation, err := s.getInvocation(r, invocationId)
	if err != nil {
		return nil, err
	}

	return toApiInvocation(invocation), nil
}

// GetInvocationResult returns the output record the checker wrote for the
// invocation's bucket. The output key is shared per bucket, so this reflects
// the most recent completed invocation against that bucket.
func (s *BackendService) GetInvocationResult(r *http.Request) (any, error) {
	invocationId, err := URLParamUUID(r, "invocation_id")
	if err != nil {
		return nil, err
	}

	invocation, err := s.getInvocation(r, invocationId)
	if err != nil {
		return nil, err
	}

	if invocation.Status != database.JobCompleted {
		return nil, CodedErrorf(http.StatusConflict, "invocation is not complete: invocation has status: %s", invocation.Status)
	}

	data, err := s.store.GetObject(r.Context(), invocation.Bucket, labelcheck.OutputKey)
	if err != nil {
		slog.Error("error reading output record", "invocation_id", invocationId, "bucket", invocation.Bucket, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to read output record")
	}

	var result labelcheck.Result
	if err := json.Unmarshal(data, &result); err != nil {
		slog.Error("error parsing output record", "invocation_id", invocationId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "output record is not valid JSON")
	}

	return result, nil
}

func (s *BackendService) getInvocation(r *http.Request, invocationId uuid.UUID) (database.Invocation, error) {
	var invocation database.Invocation
	if err := s.db.WithContext(r.Context()).First(&invocation, "id = ?", invocationId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invocation, CodedErrorf(http.StatusNotFound, "invocation not found")
		}
		slog.Error("error getting invocation", "error", err)
		return invocation, CodedErrorf(http.StatusInternalServerError, "error retrieving invocation record")
	}
	return invocation, nil
}

func toApiInvocation(invocation database.Invocation) api.Invocation {
	out := api.Invocation{
		Id:           invocation.Id,
		Bucket:       invocation.Bucket,
		ObjectKey:    invocation.ObjectKey,
		Status:       invocation.Status,
		ResultStatus: invocation.ResultStatus,
		MatchedLabel: invocation.MatchedLabel,
		LabelCount:   invocation.LabelCount,
		CreationTime: invocation.CreationTime,
	}
	if invocation.Error.Valid {
		out.Error = invocation.Error.String
	}
	if invocation.CompletionTime.Valid {
		completion := invocation.CompletionTime.Time
		out.CompletionTime = &completion
	}
	return out
}
