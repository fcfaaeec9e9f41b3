package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/remission-backend/internal/http/response"
	"github.com/yungbote/remission-backend/internal/platform/dbctx"
	"github.com/yungbote/remission-backend/internal/platform/logger"
	"github.com/yungbote/remission-backend/internal/risk"
	"github.com/yungbote/remission-backend/internal/services"
)

type SymptomHandler struct {
	log            *logger.Logger
	symptomService services.SymptomService
}

func NewSymptomHandler(log *logger.Logger, symptomService services.SymptomService) *SymptomHandler {
	return &SymptomHandler{log: log.With("handler", "SymptomHandler"), symptomService: symptomService}
}

type logSymptomsRequest struct {
	subjectFields
	PainLevel       *int     `json:"pain_level"`
	StressLevel     *int     `json:"stress_level"`
	SleepHours      *float64 `json:"sleep_hours"`
	ExerciseDone    *bool    `json:"exercise_done"`
	ExerciseType    *string  `json:"exercise_type"`
	TookMedication  *bool    `json:"took_medication"`
	DietTriggers    []string `json:"diet_triggers"`
	DietNotes       *string  `json:"diet_notes"`
	AdditionalNotes *string  `json:"additional_notes"`
}

func (r logSymptomsRequest) draft(subjectID string) risk.Draft {
	return risk.Draft{
		SubjectID:       subjectID,
		PainLevel:       r.PainLevel,
		StressLevel:     r.StressLevel,
		SleepHours:      r.SleepHours,
		ExerciseDone:    r.ExerciseDone,
		ExerciseType:    r.ExerciseType,
		TookMedication:  r.TookMedication,
		DietTriggers:    r.DietTriggers,
		DietNotes:       r.DietNotes,
		AdditionalNotes: r.AdditionalNotes,
	}
}

// POST /api/log-symptoms
func (h *SymptomHandler) LogSymptoms(c *gin.Context) {
	var req logSymptomsRequest
	if !bindJSON(c, &req, true) {
		return
	}
	subjectID, ok := resolveSubject(c, req.subject())
	if !ok {
		return
	}
	created, err := h.symptomService.Log(dbctx.Background(c.Request.Context()), req.draft(subjectID))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"message":   "Symptom log created successfully",
		"id":        created.ID,
		"logged_at": created.LoggedAt,
	})
}

// GET /api/history/:subject_id
func (h *SymptomHandler) History(c *gin.Context) {
	subjectID, ok := resolveSubject(c, c.Param("subject_id"))
	if !ok {
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	logs, err := h.symptomService.History(dbctx.Background(c.Request.Context()), subjectID, limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, logs)
}

// GET /api/symptom-logs?user_id=
func (h *SymptomHandler) SymptomLogs(c *gin.Context) {
	requested := c.Query("user_id")
	if requested == "" {
		requested = c.Query("subject_id")
	}
	subjectID, ok := resolveSubject(c, requested)
	if !ok {
		return
	}
	logs, err := h.symptomService.List(dbctx.Background(c.Request.Context()), subjectID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, logs)
}
