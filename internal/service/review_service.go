package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"uvpaint-review/internal/domain/review"
	"uvpaint-review/internal/reconcile"
	"uvpaint-review/internal/repository"
	"uvpaint-review/internal/upstream"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrNoInspections = errors.New("no inspections could be processed")
)

type ReviewService struct {
	repo          *repository.ReviewRepository
	upstream      *upstream.Client
	log           zerolog.Logger
	maxConcurrent int
	fetchTimeout  time.Duration
}

func NewReviewService(repo *repository.ReviewRepository, client *upstream.Client, log zerolog.Logger, maxConcurrent int, fetchTimeout time.Duration) *ReviewService {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &ReviewService{
		repo:          repo,
		upstream:      client,
		log:           log,
		maxConcurrent: maxConcurrent,
		fetchTimeout:  fetchTimeout,
	}
}

// ParseInspectionIDs reads a newline-delimited inspection ID list: the
// first comma-separated field of each line is the ID, a first line
// containing the word "inspection" is treated as a header, duplicates keep
// their first occurrence.
func ParseInspectionIDs(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var ids []string
	seen := make(map[string]struct{})
	for i, line := range lines {
		field := strings.TrimSpace(strings.SplitN(line, ",", 2)[0])
		if field == "" {
			continue
		}
		if i == 0 && strings.Contains(strings.ToLower(line), "inspection") {
			continue
		}
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		ids = append(ids, field)
	}
	return ids
}

type fetchResult struct {
	id  string
	rec *review.InspectionRecord
	err error
}

// fetchAll retrieves every inspection with bounded concurrency and a
// per-ID timeout, reassembling results in input order so downstream
// aggregation stays deterministic.
func (s *ReviewService) fetchAll(ctx context.Context, ids []string) []fetchResult {
	results := make([]fetchResult, len(ids))
	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
			defer cancel()

			rec, err := s.upstream.FetchInspection(fetchCtx, id)
			results[i] = fetchResult{id: id, rec: rec, err: err}
		}(i, id)
	}
	wg.Wait()
	return results
}

// ProcessUpload runs one full upload cycle: parse the ID list, fetch each
// inspection, reconcile every record into comparison groups, compute the
// metrics rollups and the alignment report, and persist the dataset. A
// failed inspection is logged and skipped; the upload fails only when no
// inspection could be processed at all.
func (s *ReviewService) ProcessUpload(ctx context.Context, name string, idList []byte, createdBy *uuid.UUID) (*review.Dataset, error) {
	ids := ParseInspectionIDs(string(idList))
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no inspection ids in upload", ErrInvalidInput)
	}
	if name == "" {
		name = "dataset " + time.Now().Format("2006-01-02 15:04")
	}

	s.log.Info().
		Str("name", name).
		Int("inspection_count", len(ids)).
		Msg("processing dataset upload")

	var (
		inspections []*reconcile.Inspection
		okIDs       []string
		failedIDs   []string
	)
	for _, result := range s.fetchAll(ctx, ids) {
		if result.err != nil {
			s.log.Warn().
				Err(result.err).
				Str("inspection_id", result.id).
				Msg("skipping inspection, fetch failed")
			failedIDs = append(failedIDs, result.id)
			continue
		}
		inspections = append(inspections, reconcile.Reconcile(result.id, result.rec))
		okIDs = append(okIDs, result.id)
	}

	if len(inspections) == 0 {
		return nil, fmt.Errorf("%w: all %d fetches failed", ErrNoInspections, len(ids))
	}

	metrics := reconcile.ComputeMetrics(inspections)
	validation := reconcile.ValidateAlignment(inspections, metrics.TableA)
	if len(validation.Mismatches) > 0 {
		s.log.Warn().
			Int("mismatch_count", len(validation.Mismatches)).
			Msg("publish counts diverge between metrics and comparison groups")
	}

	ds := &review.Dataset{
		ID:            uuid.New(),
		Name:          name,
		InspectionIDs: okIDs,
		FailedIDs:     failedIDs,
		Metrics:       metrics,
		Validation:    validation,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now(),
	}
	for _, insp := range inspections {
		ds.Groups = append(ds.Groups, insp.Groups...)
	}

	if err := s.repo.CreateDataset(ctx, ds); err != nil {
		s.log.Error().Err(err).Str("name", name).Msg("failed to persist dataset")
		return nil, fmt.Errorf("persist dataset: %w", err)
	}

	s.log.Info().
		Str("dataset_id", ds.ID.String()).
		Int("inspections", len(okIDs)).
		Int("failed", len(failedIDs)).
		Int("groups", len(ds.Groups)).
		Msg("dataset processed and saved")

	return ds, nil
}

// AttachSourceFile links the archived id-list object to the dataset.
func (s *ReviewService) AttachSourceFile(ctx context.Context, datasetID uuid.UUID, url string) error {
	return s.repo.UpdateSourceFileURL(ctx, datasetID, url)
}

func (s *ReviewService) GetDataset(ctx context.Context, id uuid.UUID) (*review.Dataset, error) {
	ds, err := s.repo.GetDataset(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return ds, nil
}

func (s *ReviewService) ListDatasets(ctx context.Context, limit, offset int) ([]review.Dataset, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListDatasets(ctx, limit, offset)
}

func (s *ReviewService) GetGroups(ctx context.Context, datasetID uuid.UUID) ([]review.ComparisonGroup, error) {
	return s.repo.GetGroups(ctx, datasetID)
}

// SubmitVote records or replaces one reviewer's verdict on a comparison
// group.
func (s *ReviewService) SubmitVote(ctx context.Context, vote *review.Vote) error {
	if vote.Verdict != review.VerdictApprove && vote.Verdict != review.VerdictReject {
		return fmt.Errorf("%w: verdict must be %s or %s", ErrInvalidInput, review.VerdictApprove, review.VerdictReject)
	}
	if vote.GroupID == "" {
		return fmt.Errorf("%w: group_id is required", ErrInvalidInput)
	}

	exists, err := s.repo.GroupExists(ctx, vote.DatasetID, vote.GroupID)
	if err != nil {
		return fmt.Errorf("check group: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: group %s", ErrNotFound, vote.GroupID)
	}

	if err := s.repo.UpsertVote(ctx, vote); err != nil {
		s.log.Error().
			Err(err).
			Str("group_id", vote.GroupID).
			Str("user_id", vote.UserID.String()).
			Msg("failed to save vote")
		return err
	}

	s.log.Info().
		Str("dataset_id", vote.DatasetID.String()).
		Str("group_id", vote.GroupID).
		Str("verdict", vote.Verdict).
		Msg("vote recorded")
	return nil
}

func (s *ReviewService) ListVotes(ctx context.Context, datasetID uuid.UUID) ([]review.Vote, error) {
	return s.repo.ListVotes(ctx, datasetID)
}

func mapRepoErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: dataset", ErrNotFound)
	}
	return err
}
