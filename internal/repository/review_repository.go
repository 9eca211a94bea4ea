package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"uvpaint-review/internal/domain/review"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (Dataset) TableName() string {
	return "review_datasets"
}

func (Group) TableName() string {
	return "review_groups"
}

func (Vote) TableName() string {
	return "review_votes"
}

type Dataset struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name          string         `gorm:"not null"`
	InspectionIDs datatypes.JSON `gorm:"type:jsonb;not null"`
	FailedIDs     datatypes.JSON `gorm:"type:jsonb"`
	SourceFileURL *string
	Metrics       datatypes.JSON `gorm:"type:jsonb;not null"`
	Validation    datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedBy     *uuid.UUID     `gorm:"type:uuid"`
	CreatedAt     time.Time
}

type Group struct {
	DatasetID    uuid.UUID      `gorm:"type:uuid;primaryKey"`
	GroupID      string         `gorm:"primaryKey"`
	InspectionID string         `gorm:"not null"`
	GroupKey     string         `gorm:"not null"`
	Position     int            `gorm:"not null"`
	Published    bool           `gorm:"not null"`
	Payload      datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt    time.Time
}

type Vote struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	DatasetID uuid.UUID `gorm:"type:uuid;not null"`
	GroupID   string    `gorm:"not null"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	Verdict   string    `gorm:"not null"`
	Note      *string
	CreatedAt time.Time
}

// CreateDataset persists the dataset row and its ordered comparison groups
// in one transaction. Group position preserves the pipeline's final
// ordering; the UI never re-sorts.
func (r *ReviewRepository) CreateDataset(ctx context.Context, ds *review.Dataset) error {
	idsJSON, err := json.Marshal(ds.InspectionIDs)
	if err != nil {
		return fmt.Errorf("marshal inspection ids: %w", err)
	}
	failedJSON, err := json.Marshal(ds.FailedIDs)
	if err != nil {
		return fmt.Errorf("marshal failed ids: %w", err)
	}
	metricsJSON, err := json.Marshal(ds.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	validationJSON, err := json.Marshal(ds.Validation)
	if err != nil {
		return fmt.Errorf("marshal validation: %w", err)
	}

	row := Dataset{
		ID:            ds.ID,
		Name:          ds.Name,
		InspectionIDs: datatypes.JSON(idsJSON),
		FailedIDs:     datatypes.JSON(failedJSON),
		Metrics:       datatypes.JSON(metricsJSON),
		Validation:    datatypes.JSON(validationJSON),
		CreatedBy:     ds.CreatedBy,
		CreatedAt:     ds.CreatedAt,
	}
	if ds.SourceFileURL != "" {
		row.SourceFileURL = &ds.SourceFileURL
	}

	groups := make([]Group, 0, len(ds.Groups))
	for i, g := range ds.Groups {
		payload, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("marshal group %s: %w", g.ID, err)
		}
		groups = append(groups, Group{
			DatasetID:    ds.ID,
			GroupID:      g.ID,
			InspectionID: g.InspectionID,
			GroupKey:     g.GroupKey,
			Position:     i,
			Published:    g.Published,
			Payload:      datatypes.JSON(payload),
			CreatedAt:    ds.CreatedAt,
		})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create dataset: %w", err)
		}
		if len(groups) > 0 {
			if err := tx.CreateInBatches(groups, 200).Error; err != nil {
				return fmt.Errorf("create groups: %w", err)
			}
		}
		return nil
	})
}

// UpdateSourceFileURL records the archived id-list location once the
// object-storage upload finishes.
func (r *ReviewRepository) UpdateSourceFileURL(ctx context.Context, id uuid.UUID, url string) error {
	return r.db.WithContext(ctx).Model(&Dataset{}).
		Where("id = ?", id).
		Update("source_file_url", url).Error
}

func (r *ReviewRepository) GetDataset(ctx context.Context, id uuid.UUID) (*review.Dataset, error) {
	var row Dataset
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	ds, err := toDomainDataset(&row)
	if err != nil {
		return nil, err
	}

	groups, err := r.GetGroups(ctx, id)
	if err != nil {
		return nil, err
	}
	ds.Groups = groups
	return ds, nil
}

// ListDatasets returns dataset summaries without their groups, newest
// first.
func (r *ReviewRepository) ListDatasets(ctx context.Context, limit, offset int) ([]review.Dataset, error) {
	query := r.db.WithContext(ctx).Model(&Dataset{}).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []Dataset
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]review.Dataset, 0, len(rows))
	for i := range rows {
		ds, err := toDomainDataset(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *ds)
	}
	return out, nil
}

func (r *ReviewRepository) GetGroups(ctx context.Context, datasetID uuid.UUID) ([]review.ComparisonGroup, error) {
	var rows []Group
	err := r.db.WithContext(ctx).
		Where("dataset_id = ?", datasetID).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	groups := make([]review.ComparisonGroup, 0, len(rows))
	for _, row := range rows {
		var g review.ComparisonGroup
		if err := json.Unmarshal(row.Payload, &g); err != nil {
			return nil, fmt.Errorf("unmarshal group %s: %w", row.GroupID, err)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// GroupExists reports whether the group is part of the dataset; vote
// submissions are rejected for unknown groups.
func (r *ReviewRepository) GroupExists(ctx context.Context, datasetID uuid.UUID, groupID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Group{}).
		Where("dataset_id = ? AND group_id = ?", datasetID, groupID).
		Count(&count).Error
	return count > 0, err
}

// UpsertVote records one user's verdict for one group, replacing any
// earlier vote by the same user.
func (r *ReviewRepository) UpsertVote(ctx context.Context, vote *review.Vote) error {
	row := Vote{
		ID:        uuid.New(),
		DatasetID: vote.DatasetID,
		GroupID:   vote.GroupID,
		UserID:    vote.UserID,
		Verdict:   vote.Verdict,
		CreatedAt: time.Now(),
	}
	if vote.Note != "" {
		row.Note = &vote.Note
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dataset_id"}, {Name: "group_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"verdict", "note", "created_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}

	vote.ID = row.ID
	vote.CreatedAt = row.CreatedAt
	return nil
}

func (r *ReviewRepository) ListVotes(ctx context.Context, datasetID uuid.UUID) ([]review.Vote, error) {
	var rows []Vote
	err := r.db.WithContext(ctx).
		Where("dataset_id = ?", datasetID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	votes := make([]review.Vote, 0, len(rows))
	for _, row := range rows {
		v := review.Vote{
			ID:        row.ID,
			DatasetID: row.DatasetID,
			GroupID:   row.GroupID,
			UserID:    row.UserID,
			Verdict:   row.Verdict,
			CreatedAt: row.CreatedAt,
		}
		if row.Note != nil {
			v.Note = *row.Note
		}
		votes = append(votes, v)
	}
	return votes, nil
}

func toDomainDataset(row *Dataset) (*review.Dataset, error) {
	ds := &review.Dataset{
		ID:        row.ID,
		Name:      row.Name,
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt,
	}
	if row.SourceFileURL != nil {
		ds.SourceFileURL = *row.SourceFileURL
	}
	if err := json.Unmarshal(row.InspectionIDs, &ds.InspectionIDs); err != nil {
		return nil, fmt.Errorf("unmarshal inspection ids: %w", err)
	}
	if len(row.FailedIDs) > 0 {
		if err := json.Unmarshal(row.FailedIDs, &ds.FailedIDs); err != nil {
			return nil, fmt.Errorf("unmarshal failed ids: %w", err)
		}
	}
	if err := json.Unmarshal(row.Metrics, &ds.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal metrics: %w", err)
	}
	if err := json.Unmarshal(row.Validation, &ds.Validation); err != nil {
		return nil, fmt.Errorf("unmarshal validation: %w", err)
	}
	return ds, nil
}
