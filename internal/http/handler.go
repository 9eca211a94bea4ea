package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"uvpaint-review/internal/config"
	"uvpaint-review/internal/domain/review"
	"uvpaint-review/internal/http/middleware"
	"uvpaint-review/internal/service"
	"uvpaint-review/internal/storage"
	"uvpaint-review/internal/upstream"
)

// Uploaded ID lists are small text files; anything bigger is a mistake.
const maxUploadBytes = 4 << 20

type Handler struct {
	reviewService *service.ReviewService
	upstream      *upstream.Client
	config        *config.Config
	log           zerolog.Logger
	r2            *storage.R2Client
}

func NewHandler(
	reviewService *service.ReviewService,
	upstreamClient *upstream.Client,
	cfg *config.Config,
	log zerolog.Logger,
	r2 *storage.R2Client,
) *Handler {
	return &Handler{
		reviewService: reviewService,
		upstream:      upstreamClient,
		config:        cfg,
		log:           log,
		r2:            r2,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Public endpoints
	public := r.Group("/api/v1")
	{
		public.GET("/reviews", h.listDatasets)
		public.GET("/reviews/:id", h.getDataset)
		public.GET("/reviews/:id/groups", h.getGroups)
		public.GET("/reviews/:id/metrics", h.getMetrics)
		public.GET("/reviews/:id/metrics/export", h.exportMetrics)
		public.GET("/reviews/:id/validation", h.getValidation)
		public.GET("/reviews/:id/votes", h.listVotes)
		public.GET("/inspections/:id", h.proxyInspection)
		public.GET("/upstream/status", h.checkUpstreamStatus)
	}

	// Protected endpoints
	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/reviews", h.createDataset)
		protected.POST("/reviews/:id/votes", h.submitVote)
	}
}

// createDataset accepts the inspection ID list as a multipart file field
// "ids" or as the raw request body, runs the full processing batch and
// returns the persisted dataset.
func (h *Handler) createDataset(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok || !principal.CanReview() {
		c.JSON(http.StatusForbidden, errorResponse("reviewer role required"))
		return
	}

	name := strings.TrimSpace(c.Query("name"))
	idList, fileName, err := readIDList(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	if name == "" {
		name = fileName
	}

	h.log.Info().
		Str("name", name).
		Int("payload_bytes", len(idList)).
		Str("user_id", principal.UserID.String()).
		Msg("processing dataset upload request")

	createdBy := principal.UserID
	ds, err := h.reviewService.ProcessUpload(c.Request.Context(), name, idList, &createdBy)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrNoInspections):
			c.JSON(http.StatusBadGateway, errorResponse(err.Error()))
		default:
			h.log.Error().Err(err).Str("name", name).Msg("failed to process upload")
			c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		}
		return
	}

	// Archive the source list when object storage is configured; a failure
	// here never fails the upload.
	if h.r2 != nil {
		key := fmt.Sprintf("datasets/%s/%s", ds.ID, "ids.txt")
		url, err := h.r2.Upload(c.Request.Context(), key, bytes.NewReader(idList), int64(len(idList)), "text/plain")
		if err != nil {
			h.log.Warn().Err(err).Str("dataset_id", ds.ID.String()).Msg("failed to archive id list")
		} else {
			ds.SourceFileURL = url
			if err := h.reviewService.AttachSourceFile(c.Request.Context(), ds.ID, url); err != nil {
				h.log.Warn().Err(err).Str("dataset_id", ds.ID.String()).Msg("failed to record archive url")
			}
		}
	}

	h.log.Info().
		Str("dataset_id", ds.ID.String()).
		Int("groups", len(ds.Groups)).
		Int("failed_ids", len(ds.FailedIDs)).
		Msg("dataset upload processed")

	c.JSON(http.StatusCreated, gin.H{
		"status":  "ok",
		"dataset": ds,
	})
}

func readIDList(c *gin.Context) ([]byte, string, error) {
	if fh, err := c.FormFile("ids"); err == nil {
		if fh.Size > maxUploadBytes {
			return nil, "", fmt.Errorf("file too large")
		}
		file, err := fh.Open()
		if err != nil {
			return nil, "", err
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			return nil, "", err
		}
		return data, fh.Filename, nil
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes))
	if err != nil {
		return nil, "", err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, "", fmt.Errorf("empty id list")
	}
	return data, "", nil
}

func (h *Handler) listDatasets(c *gin.Context) {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := parseInt(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	offset := 0
	if o := c.Query("offset"); o != "" {
		if parsed, err := parseInt(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	datasets, err := h.reviewService.ListDatasets(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list datasets")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	c.JSON(http.StatusOK, successResponse(datasets))
}

func (h *Handler) getDataset(c *gin.Context) {
	ds, ok := h.datasetByParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, successResponse(ds))
}

func (h *Handler) getGroups(c *gin.Context) {
	id, ok := datasetID(c)
	if !ok {
		return
	}
	groups, err := h.reviewService.GetGroups(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("dataset_id", id.String()).Msg("failed to load groups")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}
	c.JSON(http.StatusOK, successResponse(groups))
}

func (h *Handler) getMetrics(c *gin.Context) {
	ds, ok := h.datasetByParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, successResponse(ds.Metrics))
}

func (h *Handler) getValidation(c *gin.Context) {
	ds, ok := h.datasetByParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, successResponse(ds.Validation))
}

func (h *Handler) exportMetrics(c *gin.Context) {
	ds, ok := h.datasetByParam(c)
	if !ok {
		return
	}

	workbook, err := service.BuildMetricsWorkbook(ds.Metrics)
	if err != nil {
		h.log.Error().Err(err).Str("dataset_id", ds.ID.String()).Msg("failed to build metrics workbook")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}
	defer workbook.Close()

	var buf bytes.Buffer
	if err := workbook.Write(&buf); err != nil {
		h.log.Error().Err(err).Msg("failed to serialize workbook")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	fileName := fmt.Sprintf("metrics-%s.xlsx", ds.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *Handler) submitVote(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok || !principal.CanReview() {
		c.JSON(http.StatusForbidden, errorResponse("reviewer role required"))
		return
	}
	id, ok := datasetID(c)
	if !ok {
		return
	}

	var req struct {
		GroupID string `json:"group_id" binding:"required"`
		Verdict string `json:"verdict" binding:"required"`
		Note    string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	vote := &review.Vote{
		DatasetID: id,
		GroupID:   req.GroupID,
		UserID:    principal.UserID,
		Verdict:   strings.ToUpper(strings.TrimSpace(req.Verdict)),
		Note:      req.Note,
	}
	if err := h.reviewService.SubmitVote(c.Request.Context(), vote); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "ok",
		"vote":   vote,
	})
}

func (h *Handler) listVotes(c *gin.Context) {
	id, ok := datasetID(c)
	if !ok {
		return
	}
	votes, err := h.reviewService.ListVotes(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("dataset_id", id.String()).Msg("failed to list votes")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}
	c.JSON(http.StatusOK, successResponse(votes))
}

// proxyInspection relays a single-inspection fetch to the inspection-data
// API without touching the payload.
func (h *Handler) proxyInspection(c *gin.Context) {
	inspectionID := strings.TrimSpace(c.Param("id"))
	if inspectionID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("inspection id is required"))
		return
	}

	body, err := h.upstream.FetchInspectionRaw(c.Request.Context(), inspectionID)
	if err != nil {
		switch {
		case errors.Is(err, upstream.ErrNotFound):
			c.JSON(http.StatusNotFound, errorResponse(err.Error()))
		default:
			h.log.Error().Err(err).Str("inspection_id", inspectionID).Msg("upstream fetch failed")
			c.JSON(http.StatusBadGateway, errorResponse("upstream unavailable"))
		}
		return
	}

	c.Data(http.StatusOK, "application/json", body)
}

func (h *Handler) checkUpstreamStatus(c *gin.Context) {
	reachable, statusCode, err := h.upstream.Status(c.Request.Context())

	status := gin.H{
		"base_url":  h.config.Upstream.BaseURL,
		"reachable": reachable,
	}
	if err != nil {
		status["error"] = err.Error()
	} else {
		status["http_status"] = statusCode
	}

	h.log.Info().
		Bool("reachable", reachable).
		Msg("upstream status checked")

	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func (h *Handler) datasetByParam(c *gin.Context) (*review.Dataset, bool) {
	id, ok := datasetID(c)
	if !ok {
		return nil, false
	}
	ds, err := h.reviewService.GetDataset(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return nil, false
	}
	return ds, true
}

func datasetID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid dataset id"))
		return uuid.Nil, false
	}
	return id, true
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}
