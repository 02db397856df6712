package handler

import (
	"net/http"

	"github.com/AnTengye/lexiguide/service"
	"github.com/gin-gonic/gin"
)

type AdvisorHandler struct {
	guide *service.LexiGuide
}

func NewAdvisorHandler(guide *service.LexiGuide) *AdvisorHandler {
	return &AdvisorHandler{guide: guide}
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask sends a question about the live contract to the advisor
func (h *AdvisorHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	messages, err := h.guide.AskAdvisor(c.Request.Context(), req.Question)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// Messages returns the advisor transcript
func (h *AdvisorHandler) Messages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": h.guide.Messages()})
}
