package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/AnTengye/lexiguide/model"
	"github.com/AnTengye/lexiguide/pkg/logger"
	"github.com/AnTengye/lexiguide/service"
	"github.com/gin-gonic/gin"
)

type ContractHandler struct {
	guide    *service.LexiGuide
	maxBytes int64
}

func NewContractHandler(guide *service.LexiGuide, maxBytes int64) *ContractHandler {
	return &ContractHandler{
		guide:    guide,
		maxBytes: maxBytes,
	}
}

type processRequest struct {
	Text string `json:"text" binding:"required"`
}

type importRequest struct {
	Object string `json:"object" binding:"required"`
}

// Process accepts contract text as JSON or as an uploaded .txt file and starts analysis
func (h *ContractHandler) Process(c *gin.Context) {
	var text string
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var ok bool
		if text, ok = h.readUpload(c); !ok {
			return
		}
	} else {
		var req processRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Contract text is required"})
			return
		}
		text = req.Text
	}

	snap, err := h.guide.ProcessContract(c.Request.Context(), text)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, snap)
}

func (h *ContractHandler) readUpload(c *gin.Context) (string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return "", false
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".txt" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only .txt files are allowed"})
		return "", false
	}

	var reader io.Reader = file
	if h.maxBytes > 0 {
		// One extra byte lets the size check downstream see the overflow
		reader = io.LimitReader(file, h.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return "", false
	}
	if !utf8.Valid(data) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is not valid UTF-8 text"})
		return "", false
	}

	logger.Info(c.Request.Context(), "contract uploaded", "filename", header.Filename, "bytes", len(data))
	return string(data), true
}

// Import processes a contract stored in object storage
func (h *ContractHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Object name is required"})
		return
	}

	snap, err := h.guide.ImportContract(c.Request.Context(), req.Object)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, snap)
}

// Get returns the live session
func (h *ContractHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.guide.Snapshot())
}

// Reset clears the session
func (h *ContractHandler) Reset(c *gin.Context) {
	h.guide.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "Session reset"})
}

// GetClause returns one clause with its analysis
func (h *ContractHandler) GetClause(c *gin.Context) {
	clause, record, ok := h.guide.Clause(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Clause not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clause":   clause,
		"label":    clause.Label(),
		"analysis": record,
	})
}

// Report returns risk highlights, negotiation points, the overall analysis and progress
func (h *ContractHandler) Report(c *gin.Context) {
	c.JSON(http.StatusOK, h.guide.Report())
}

// Events streams a snapshot on every session change until processing ends
// or the client disconnects
func (h *ContractHandler) Events(c *gin.Context) {
	ctx := c.Request.Context()

	// Subscribe before reading so no change between the two is missed
	changed := h.guide.Changed()
	snap := h.guide.Snapshot()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("snapshot", snap)
	c.Writer.Flush()
	if snap.Status != model.StatusProcessing {
		return
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-changed:
			changed = h.guide.Changed()
			snap := h.guide.Snapshot()
			c.SSEvent("snapshot", snap)
			return snap.Status == model.StatusProcessing
		}
	})
}

// writeError maps pipeline errors to HTTP status codes
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNoClauses), errors.Is(err, service.ErrObjectNotText):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrContractTooLarge), errors.Is(err, service.ErrObjectTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrNoContract):
		status = http.StatusConflict
	case errors.Is(err, service.ErrEmptyQuestion):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrObjectStorageDisabled):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
