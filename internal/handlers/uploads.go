package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/zenlist-realtime/internal/handlers/dto"
	"github.com/thereayou/zenlist-realtime/internal/services"
)

type UploadHandler struct {
	uploads *services.UploadService
}

func NewUploadHandler(uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Presign выдает pre-signed POST на каждый принятый файл. Отклоненные
// файлы возвращаются в blocked с причиной, запрос при этом успешен.
func (h *UploadHandler) Presign(c *gin.Context) {
	var req dto.PresignRequest
	if !bindJSON(c, &req) {
		return
	}

	batch, err := h.uploads.PrepareBatch(c.Request.Context(), req.Folder, req.Files)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, batch)
}
