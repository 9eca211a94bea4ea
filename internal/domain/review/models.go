package review

import (
	"time"

	"github.com/google/uuid"
)

// Slot indexes of the fixed 3-slot layout every comparison group exposes.
const (
	SlotPrevious = 0
	SlotLatest   = 1
	SlotOriginal = 2
)

type VehicleInfo struct {
	Year  int    `json:"year,omitempty"`
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
}

// POV describes the camera viewpoint an image was captured or simulated
// under. SerialNumber is kept for display but deliberately ignored when
// grouping: multiple physical serials sharing a viewpoint are merged.
type POV struct {
	SimulatedCamera     string `json:"simulatedCamera,omitempty"`
	SimulatedCameraSide string `json:"simulatedCameraSide,omitempty"`
	SerialNumber        *int   `json:"serialNumber,omitempty"`
	OriginalCameraID    string `json:"originalCameraId,omitempty"`
}

// RawImageEntry is one image record as the upstream API sends it. Every
// field may be absent; the reconcile package normalizes at the boundary so
// nothing downstream re-checks optionality.
type RawImageEntry struct {
	ImageType                      string         `json:"imageType,omitempty"`
	POV                            *POV           `json:"pov,omitempty"`
	Rendition                      *int           `json:"rendition,omitempty"`
	ActiveImage                    string         `json:"activeImage,omitempty"`
	OriginalImage                  string         `json:"originalImage,omitempty"`
	OriginalImageURL               string         `json:"originalImageUrl,omitempty"`
	OriginalImageWithBackground    string         `json:"originalImageWithBackground,omitempty"`
	OriginalImageWithoutBackground string         `json:"originalImageWithoutBackground,omitempty"`
	Status                         string         `json:"status,omitempty"`
	IsActive                       bool           `json:"isActive,omitempty"`
	ActionsCounterMap              map[string]any `json:"actionsCounterMap,omitempty"`
}

type UvpaintData struct {
	Images               []RawImageEntry `json:"images,omitempty"`
	UvpaintHistoryImages []RawImageEntry `json:"uvpaintHistoryImages,omitempty"`
}

type UvpaintInspection struct {
	VehicleInfo *VehicleInfo `json:"vehicleInfo,omitempty"`
}

// InspectionRecord is the full payload returned by the upstream
// inspection-data API for one inspection ID.
type InspectionRecord struct {
	UvpaintInspection *UvpaintInspection `json:"uvpaintInspection,omitempty"`
	UvpaintData       *UvpaintData       `json:"uvpaintData,omitempty"`
}

// ComparisonGroup is one camera viewpoint's Previous/Latest/Original triple.
// Slot arrays are always length 3 (Previous, Latest, Original); nil marks an
// empty slot. ID is inspectionID + ":" + GroupKey and stays stable across
// re-uploads so vote records and jump-to navigation can reference it.
type ComparisonGroup struct {
	ID            string      `json:"id"`
	InspectionID  string      `json:"inspection_id"`
	GroupKey      string      `json:"group_key"`
	Name          string      `json:"name"`
	Bucket        string      `json:"bucket"`
	Camera        string      `json:"camera"`
	Side          string      `json:"side"`
	POV           *POV        `json:"pov,omitempty"`
	Images        [3]*string  `json:"images"`
	Renditions    [3]*string  `json:"rendition_numbers"`
	Statuses      [3]*string  `json:"statuses"`
	Sources       [3]*string  `json:"sources"`
	ActionCounts  [3]*float64 `json:"action_counts"`
	CardInfo      [3]*string  `json:"card_info"`
	SlotPublished [3]bool     `json:"slot_published"`
	Published     bool        `json:"published"`
}

// AggregateRow is one Table A line: per-inspection health with the
// before/after action delta.
type AggregateRow struct {
	InspectionID      string  `json:"inspection_id"`
	Vehicle           string  `json:"vehicle,omitempty"`
	Groups            int     `json:"groups"`
	PublishedImages   int     `json:"published_images"`
	ImagesWithActions int     `json:"images_with_actions"`
	AvgActions        float64 `json:"avg_actions_per_image"`
	PrevMeanActions   float64 `json:"prev_mean_actions"`
	LatestMeanActions float64 `json:"latest_mean_actions"`
	Difference        float64 `json:"difference"`
	PercentChange     float64 `json:"percent_change"`
}

// HeatmapRow is one Table D line: per camera/type across every loaded
// inspection, keyed by the raw (un-normalized) POV fields.
type HeatmapRow struct {
	Bucket            string  `json:"bucket"`
	Camera            string  `json:"camera"`
	Side              string  `json:"side"`
	OriginalCameraID  string  `json:"original_camera_id,omitempty"`
	Groups            int     `json:"groups"`
	PrevMeanActions   float64 `json:"prev_mean_actions"`
	LatestMeanActions float64 `json:"latest_mean_actions"`
	Difference        float64 `json:"difference"`
	PercentChange     float64 `json:"percent_change"`
}

type MetricsReport struct {
	TableA []AggregateRow `json:"tableA"`
	TableD []HeatmapRow   `json:"tableD"`
}

// Mismatch records a divergence between the metrics engine's published
// count and the count recomputed from the comparison-group slots.
type Mismatch struct {
	InspectionID string `json:"inspection_id"`
	MetricsCount int    `json:"metrics_count"`
	CardCount    int    `json:"card_count"`
	Difference   int    `json:"difference"`
}

type InspectionBreakdown struct {
	InspectionID string `json:"inspection_id"`
	MetricsCount int    `json:"metrics_count"`
	CardCount    int    `json:"card_count"`
}

type AlignmentReport struct {
	Mismatches []Mismatch `json:"mismatches"`
	Breakdown  struct {
		ByInspection []InspectionBreakdown `json:"byInspection"`
	} `json:"breakdown"`
}

// Dataset is one processed upload: the inspection set, its ordered
// comparison groups and the reports computed from them.
type Dataset struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	InspectionIDs []string          `json:"inspection_ids"`
	FailedIDs     []string          `json:"failed_ids,omitempty"`
	SourceFileURL string            `json:"source_file_url,omitempty"`
	Groups        []ComparisonGroup `json:"groups,omitempty"`
	Metrics       MetricsReport     `json:"metrics"`
	Validation    AlignmentReport   `json:"validation"`
	CreatedBy     *uuid.UUID        `json:"created_by,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

type Vote struct {
	ID        uuid.UUID `json:"id"`
	DatasetID uuid.UUID `json:"dataset_id"`
	GroupID   string    `json:"group_id"`
	UserID    uuid.UUID `json:"user_id"`
	Verdict   string    `json:"verdict"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	VerdictApprove = "APPROVE"
	VerdictReject  = "REJECT"
)
