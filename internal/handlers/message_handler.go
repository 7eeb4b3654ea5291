package handlers

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/lifecycle"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/realtime"
)

type MessageHandler struct {
	DB         *gorm.DB
	Engine     *lifecycle.Engine
	Hub        *realtime.Hub
	RDB        *redis.Client
	UploadDir  string
	AppBaseURL string
}

func NewMessageHandler(db *gorm.DB, engine *lifecycle.Engine, hub *realtime.Hub, rdb *redis.Client, uploadDir, appBaseURL string) *MessageHandler {
	return &MessageHandler{DB: db, Engine: engine, Hub: hub, RDB: rdb, UploadDir: uploadDir, AppBaseURL: appBaseURL}
}

type MessageResponse struct {
	ID            uint      `json:"id"`
	ProjectID     string    `json:"project_id"`
	SenderID      string    `json:"sender_id"`
	Content       string    `json:"content"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toMessageResponse(m *models.Message) MessageResponse {
	return MessageResponse{
		ID:            m.ID,
		ProjectID:     m.ProjectID.String(),
		SenderID:      m.SenderID.String(),
		Content:       m.Content,
		AttachmentURL: m.AttachmentURL,
		CreatedAt:     m.CreatedAt,
	}
}

// List returns the project's messages ordered by id ascending. With
// ?since=<id> only messages with a strictly greater id come back, which is
// the polling contract: track the last seen id, ask for what follows.
func (h *MessageHandler) List(c *fiber.Ctx) error {
	caller, err := getCaller(c)
	if err != nil {
		return err
	}

	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}

	if _, err := h.Engine.MessageGate(caller, projectID); err != nil {
		return fail(c, err)
	}

	q := h.DB.Where("project_id = ?", projectID)
	if since := c.QueryInt("since", 0); since > 0 {
		q = q.Where("id > ?", since)
	}

	var messages []models.Message
	if err := q.Order("id ASC").Find(&messages).Error; err != nil {
		log.Println("error fetching messages:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch messages",
		})
	}

	out := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, toMessageResponse(&messages[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

// Send appends a message to the project log. Accepts JSON ({"content": ...})
// or multipart with an optional attachment file; one of content/attachment
// is required.
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	caller, err := getCaller(c)
	if err != nil {
		return err
	}

	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}

	project, err := h.Engine.MessageGate(caller, projectID)
	if err != nil {
		return fail(c, err)
	}

	var content string
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		content = strings.TrimSpace(c.FormValue("content"))
	} else {
		var req struct {
			Content string `json:"content"`
		}
		_ = c.BodyParser(&req)
		content = strings.TrimSpace(req.Content)
	}

	attachmentURL := ""
	if file, ferr := c.FormFile("attachment"); ferr == nil && file != nil {
		ext := filepath.Ext(file.Filename)
		filename := uuid.New().String() + ext
		uploadDir := filepath.Join(h.UploadDir, "chat")
		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to create upload folder",
			})
		}

		savePath := filepath.Join(uploadDir, filename)
		if err := c.SaveFile(file, savePath); err != nil {
			log.Println("error saving attachment:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to save attachment",
			})
		}

		attachmentURL = "/uploads/chat/" + filename
		if h.AppBaseURL != "" {
			attachmentURL = strings.TrimRight(h.AppBaseURL, "/") + attachmentURL
		}
	}

	if content == "" && attachmentURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Message cannot be empty",
		})
	}

	msg := models.Message{
		ProjectID:     projectID,
		SenderID:      caller.UserID(),
		Content:       content,
		AttachmentURL: attachmentURL,
	}

	if err := h.DB.Create(&msg).Error; err != nil {
		log.Println("error creating message:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to send message",
		})
	}

	msgResp := toMessageResponse(&msg)

	// realtime push is best-effort; the polling endpoint stays authoritative
	recipientID := project.ClientID
	if caller.UserID() == project.ClientID {
		if accepted, aerr := h.Engine.AcceptedProposal(projectID); aerr == nil {
			recipientID = accepted.FreelancerID
		}
	}
	h.Hub.SendToProject(caller.UserID(), recipientID, fiber.Map{
		"type":    "new_message",
		"message": msgResp,
	})

	if h.RDB != nil {
		notif := map[string]interface{}{
			"type":       "project_message",
			"project_id": projectID.String(),
			"sender_id":  caller.UserID().String(),
			"content":    content,
		}
		payload, _ := json.Marshal(notif)
		h.RDB.Publish(context.Background(), "notifications:"+recipientID.String(), payload)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    msgResp,
	})
}

// WebSocketHandler keeps a connection registered with the hub so new_message
// events reach the browser without waiting for the next poll. Identity comes
// from the locals set by the cookie JWT middleware on the upgrade request,
// never from anything the client sends.
func (h *MessageHandler) WebSocketHandler(c *websocket.Conn) {
	userID, _ := c.Locals("userId").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		log.Println("websocket: missing or invalid user id in locals")
		c.Close()
		return
	}

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userUUID,
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer h.Hub.UnregisterClient(client)

	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			break
		}
		if t, ok := payload["type"].(string); ok && t == "pong" {
			continue
		}
	}
}
