package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
)

// SocketIDHeader соединение отправителя, которому не нужно эхо
const SocketIDHeader = "X-Socket-ID"

// uuidParam разбирает параметр пути. При ошибке она уже записана в c.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.Error(fmt.Errorf("%w: invalid %s", apperrors.ErrInvalidContent, name))
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.Error(fmt.Errorf("%w: %v", apperrors.ErrInvalidContent, err))
		return false
	}
	return true
}
