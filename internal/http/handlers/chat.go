package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/chat"
	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/http/middleware"
)

type ChatHandler struct {
	Svc *chat.Service
	Log *zap.Logger
}

// ListContacts returns the caller's roster: every other user with the
// preview of the most recent message between them, newest activity first.
func (h *ChatHandler) ListContacts(c *gin.Context) {
	userID := middleware.MustUserID(c)

	roster, err := h.Svc.Roster(c.Request.Context(), userID)
	if err != nil {
		h.Log.Error("roster fetch failed", zap.Uint("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to load contacts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": roster})
}

// ListMessages returns the transcript with one peer, ascending. Pages
// backwards via limit and before_id.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID := middleware.MustUserID(c)

	peerID64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid peer id"})
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	var beforeID uint
	if v := c.Query("before_id"); v != "" {
		if bid, err := strconv.ParseUint(v, 10, 64); err == nil {
			beforeID = uint(bid)
		}
	}

	msgs, err := h.Svc.Transcript(c.Request.Context(), userID, uint(peerID64), limit, beforeID)
	if err != nil {
		if errors.Is(err, chat.ErrUnknownPeer) {
			c.JSON(http.StatusNotFound, gin.H{"message": "unknown peer"})
			return
		}
		h.Log.Error("transcript fetch failed", zap.Uint("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

type sendMessageReq struct {
	Text        string `json:"text"`
	MediaRef    string `json:"media_ref"`
	Kind        string `json:"kind"`
	ClientMsgID string `json:"client_msg_id"`
}

// SendMessage persists one message to the peer in the path and pushes
// an activity event to them if they are connected.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := middleware.MustUserID(c)

	peerID64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid peer id"})
		return
	}

	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	msg, err := h.Svc.Send(c.Request.Context(), userID, uint(peerID64), chat.SendInput{
		ClientMsgID: req.ClientMsgID,
		Kind:        chat.Kind(req.Kind),
		Text:        req.Text,
		MediaRef:    req.MediaRef,
	})
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrInvalidKind):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		case errors.Is(err, chat.ErrUnknownPeer):
			c.JSON(http.StatusNotFound, gin.H{"message": "unknown peer"})
		default:
			h.Log.Error("send failed", zap.Uint("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to send message"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": msg})
}
