package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"opsboard/internal/services"

	"github.com/gin-gonic/gin"
)

// multipartOverhead is the room left for form boundaries and fields on top of
// the file itself.
const multipartOverhead = 1 << 20

type AttachmentHandler struct {
	attachmentService services.AttachmentService
	maxUploadSize     int64
}

func NewAttachmentHandler(attachmentService services.AttachmentService, maxUploadSize int64) *AttachmentHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = services.DefaultMaxUploadSize
	}
	return &AttachmentHandler{attachmentService: attachmentService, maxUploadSize: maxUploadSize}
}

func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartOverhead)
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			badRequest(c, "File exceeds the "+strconv.FormatInt(h.maxUploadSize, 10)+" byte upload limit")
			return
		}
		badRequest(c, "No file uploaded or file rejected")
		return
	}
	if header.Size > h.maxUploadSize {
		badRequest(c, "File exceeds the "+strconv.FormatInt(h.maxUploadSize, 10)+" byte upload limit")
		return
	}

	file, err := header.Open()
	if err != nil {
		badRequest(c, "No file uploaded or file rejected")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		badRequest(c, "Failed to read uploaded file")
		return
	}

	var formUser *uint
	if raw := c.PostForm("user_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			uid := uint(id)
			formUser = &uid
		}
	}

	attachment, err := h.attachmentService.Upload(c.Request.Context(), services.UploadInput{
		TaskID:       taskID,
		Data:         data,
		OriginalName: header.Filename,
		UserID:       actingUser(c, formUser),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "File uploaded", "file": attachment})
}

// DeleteAttachment soft deletes an active attachment and purges one that is
// already pending deletion.
func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}
	attachmentID, ok := parseID(c, "attachmentId", "attachment")
	if !ok {
		return
	}

	var req actorRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err.Error())
		return
	}

	outcome, err := h.attachmentService.Delete(c.Request.Context(), taskID, attachmentID, actingUser(c, req.UserID))
	if err != nil {
		respondError(c, err)
		return
	}

	if outcome == services.OutcomePurged {
		success(c, "Attachment permanently deleted")
		return
	}
	success(c, "Attachment marked for deletion")
}
