package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	page := 1
	perPage := 0

	if v, err := strconv.Atoi(c.Query("perPage")); err == nil && v > 0 {
		perPage = v
	}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 1 {
		page = v
	}

	users, err := h.usersService.ListUsers(c.Request.Context(), page, perPage)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, user := range users {
		items = append(items, newUserResponse(user))
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"page":  page,
	})
}
