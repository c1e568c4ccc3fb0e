package handlers

import (
	"net/http"

	"boards/internal/forum"

	"github.com/gin-gonic/gin"
)

type BoardHandler struct {
	forum *forum.Service
}

func NewBoardHandler(f *forum.Service) *BoardHandler {
	return &BoardHandler{forum: f}
}

// Home lists every board with its counters and latest post.
func (h *BoardHandler) Home(c *gin.Context) {
	boards, err := h.forum.ListBoards(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	Render(c, http.StatusOK, "home.html", gin.H{"Boards": boards})
}

// Topics lists one page of a board's topics.
func (h *BoardHandler) Topics(c *gin.Context) {
	boardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	page, err := h.forum.ListTopics(c.Request.Context(), boardID, c.Query("page"))
	if err != nil {
		handleError(c, err)
		return
	}
	Render(c, http.StatusOK, "topics.html", gin.H{
		"Board":  page.Board,
		"Topics": page.Topics,
		"Page":   page.Page,
	})
}
