package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/remission-backend/internal/http/response"
	"github.com/yungbote/remission-backend/internal/platform/dbctx"
	"github.com/yungbote/remission-backend/internal/services"
)

type AnalysisHandler struct {
	analysisService services.AnalysisService
}

func NewAnalysisHandler(analysisService services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// POST /api/analysis and /api/bot-analysis
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req subjectFields
	if !bindJSON(c, &req, false) {
		return
	}
	subjectID, ok := resolveSubject(c, req.subject())
	if !ok {
		return
	}
	res, err := h.analysisService.Analyze(dbctx.Background(c.Request.Context()), subjectID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/trends/:subject_id
func (h *AnalysisHandler) Trends(c *gin.Context) {
	subjectID, ok := resolveSubject(c, c.Param("subject_id"))
	if !ok {
		return
	}
	summary, err := h.analysisService.Trends(dbctx.Background(c.Request.Context()), subjectID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, summary)
}

// POST /api/predict
func (h *AnalysisHandler) Predict(c *gin.Context) {
	var req subjectFields
	if !bindJSON(c, &req, false) {
		return
	}
	subjectID, ok := resolveSubject(c, req.subject())
	if !ok {
		return
	}
	p, err := h.analysisService.Predict(dbctx.Background(c.Request.Context()), subjectID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// GET /api/predictions/:subject_id
func (h *AnalysisHandler) Predictions(c *gin.Context) {
	subjectID, ok := resolveSubject(c, c.Param("subject_id"))
	if !ok {
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	out, err := h.analysisService.Predictions(dbctx.Background(c.Request.Context()), subjectID, limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/trend-analysis/:subject_id
func (h *AnalysisHandler) LatestTrend(c *gin.Context) {
	subjectID, ok := resolveSubject(c, c.Param("subject_id"))
	if !ok {
		return
	}
	out, err := h.analysisService.LatestTrend(dbctx.Background(c.Request.Context()), subjectID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}
