package api

import (
	"chat-relay/repositories"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

const defaultSearchLimit = 20

type MessageHandler struct {
	messages repositories.IMessageRepository
	search   repositories.ISearchIndex
	log      *slog.Logger
}

func NewMessageHandler(messages repositories.IMessageRepository, search repositories.ISearchIndex, log *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, search: search, log: log}
}

type messageView struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

type historyResponse struct {
	Messages []messageView `json:"messages"`
	Cursor   *string       `json:"cursor,omitempty"`
}

// History returns persisted messages newest-first. Pass the returned cursor
// back as ?cursor= to fetch the next page.
func (h *MessageHandler) History(c *gin.Context) {
	var cursor *string
	if raw, ok := c.GetQuery("cursor"); ok && raw != "" {
		cursor = &raw
	}

	messages, next, err := h.messages.GetMessages(cursor)
	if err != nil {
		h.log.Error("history read failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read messages"})
		return
	}

	views := lo.Map(messages, func(m repositories.StoredMessage, _ int) messageView {
		return messageView{
			ID:       m.ID.String(),
			Username: m.Author,
			Message:  m.Text,
			At:       m.At,
		}
	})

	resp := historyResponse{Messages: views}
	if len(views) > 0 {
		resp.Cursor = next
	}
	c.JSON(http.StatusOK, resp)
}

// Search runs a full-text query over the message history.
func (h *MessageHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	limit := defaultSearchLimit
	if raw, ok := c.GetQuery("limit"); ok {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	hits, err := h.search.Search(c.Request.Context(), query, limit)
	if err != nil {
		h.log.Error("search failed", "query", query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"hits": hits})
}
