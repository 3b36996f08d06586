package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wendylandcan/liqingai/db"
	"github.com/wendylandcan/liqingai/models"
	"github.com/wendylandcan/liqingai/services"
)

var caseService *services.CaseService
var aiService *services.AIService

// Init wires the controllers to their services.
func Init(cases *services.CaseService, ai *services.AIService) {
	caseService = cases
	aiService = ai
}

func currentUserID(c *gin.Context) string {
	return c.GetString("userID")
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrCaseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
	case errors.Is(err, services.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStage),
		errors.Is(err, services.ErrRespondentBound),
		errors.Is(err, services.ErrAdjudicationInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrToxicContent):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrBackendUnavailable),
		errors.Is(err, services.ErrMalformedOutput):
		c.JSON(http.StatusBadGateway, gin.H{"error": "the judge is unavailable, please try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type CreateCaseRequest struct {
	Title        string `json:"title"`
	JudgePersona string `json:"judgePersona"`
}

func CreateCase(c *gin.Context) {
	var req CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	created, err := caseService.CreateCase(c.Request.Context(), currentUserID(c), req.Title, req.JudgePersona)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetCase is the polling read each session issues on its interval.
func GetCase(c *gin.Context) {
	found, err := caseService.GetCase(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func ListCases(c *gin.Context) {
	cases, err := caseService.ListCases(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases})
}

type JoinCaseRequest struct {
	JoinCode string `json:"joinCode" binding:"required"`
}

func JoinCase(c *gin.Context) {
	var req JoinCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	joined, err := caseService.JoinCase(c.Request.Context(), currentUserID(c), req.JoinCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, joined)
}

type FilingRequest struct {
	Statement string `json:"statement" binding:"required"`
	Demand    string `json:"demand" binding:"required"`
}

func SubmitFiling(c *gin.Context) {
	var req FilingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	updated, err := caseService.SubmitFiling(c.Request.Context(), currentUserID(c), c.Param("id"), req.Statement, req.Demand)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type EvidenceRequest struct {
	Kind        models.EvidenceKind `json:"kind" binding:"required"`
	Content     string              `json:"content" binding:"required"`
	Description string              `json:"description"`
}

func AddEvidence(c *gin.Context) {
	var req EvidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	updated, err := caseService.AddEvidence(c.Request.Context(), currentUserID(c), c.Param("id"), req.Kind, req.Content, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func RemoveEvidence(c *gin.Context) {
	updated, err := caseService.RemoveEvidence(c.Request.Context(), currentUserID(c), c.Param("id"), c.Param("evidenceId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type ContestRequest struct {
	Contested *bool `json:"contested" binding:"required"`
}

func ContestEvidence(c *gin.Context) {
	var req ContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	updated, err := caseService.ContestEvidence(c.Request.Context(), currentUserID(c), c.Param("id"), c.Param("evidenceId"), *req.Contested)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func CloseEvidence(c *gin.Context) {
	updated, err := caseService.CloseEvidence(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type DefenseRequest struct {
	Defense string `json:"defense" binding:"required"`
	Demand  string `json:"demand"`
}

func SubmitDefense(c *gin.Context) {
	var req DefenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	updated, err := caseService.SubmitDefense(c.Request.Context(), currentUserID(c), c.Param("id"), req.Defense, req.Demand)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type RebuttalRequest struct {
	Text string `json:"text" binding:"required"`
}

func SubmitRebuttal(c *gin.Context) {
	var req RebuttalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	updated, err := caseService.SubmitRebuttal(c.Request.Context(), currentUserID(c), c.Param("id"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func AdvanceToDebate(c *gin.Context) {
	updated, err := caseService.AdvanceToDebate(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type ArgumentRequest struct {
	Text string `json:"text" binding:"required"`
}

func SubmitArgument(c *gin.Context) {
	var req ArgumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	updated, err := caseService.SubmitArgument(c.Request.Context(), currentUserID(c), c.Param("id"), c.Param("pointId"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func EnterAdjudication(c *gin.Context) {
	updated, err := caseService.EnterAdjudication(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func Adjudicate(c *gin.Context) {
	updated, err := caseService.Adjudicate(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func StepBack(c *gin.Context) {
	updated, err := caseService.StepBack(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func DefaultJudgment(c *gin.Context) {
	updated, err := caseService.DefaultJudgment(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func Appeal(c *gin.Context) {
	updated, err := caseService.Appeal(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func DeleteCase(c *gin.Context) {
	if err := caseService.DeleteCase(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "case deleted"})
}
