package controllers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
)

// The assist endpoints expose the degraded-fallback operations to the
// composing UI. They never fail outright: on inference trouble the
// response carries the fallback text.

type TranscribeRequest struct {
	Audio string `json:"audio" binding:"required"` // base64
	MIME  string `json:"mime" binding:"required"`
}

func Transcribe(c *gin.Context) {
	var req TranscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio must be base64 encoded"})
		return
	}
	text := aiService.Transcribe(c.Request.Context(), audio, req.MIME)
	c.JSON(http.StatusOK, gin.H{"text": text})
}

type TextRequest struct {
	Text string `json:"text" binding:"required"`
}

func PolishText(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": aiService.Polish(c.Request.Context(), req.Text)})
}

func FixGrammar(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": aiService.FixGrammar(c.Request.Context(), req.Text)})
}

type SummarizeRequest struct {
	Text     string `json:"text" binding:"required"`
	MaxWords int    `json:"maxWords"`
}

func Summarize(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if req.MaxWords <= 0 {
		req.MaxWords = 60
	}
	c.JSON(http.StatusOK, gin.H{"text": aiService.Summarize(c.Request.Context(), req.Text, req.MaxWords)})
}

func GenerateTitle(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": aiService.GenerateTitle(c.Request.Context(), req.Text)})
}
