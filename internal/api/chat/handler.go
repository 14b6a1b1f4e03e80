package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"ai-derm-assistant/config"
	"ai-derm-assistant/internal/api/auth"
	"ai-derm-assistant/internal/core/answer"
	"ai-derm-assistant/internal/core/pipeline"
	"ai-derm-assistant/internal/core/vocab"
	"ai-derm-assistant/internal/database"
	"ai-derm-assistant/internal/database/model"
	"ai-derm-assistant/pkg/apperror"
	"ai-derm-assistant/pkg/apperror/status"
	"ai-derm-assistant/pkg/logger"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"
)

// turnTimeout bounds one full pipeline run: decode, classification,
// retrieval embeddings and the generation round trip.
const turnTimeout = 60 * time.Second

// Handler serves the chat surface with the diagnostic pipeline injected.
type Handler struct {
	pipeline *pipeline.Pipeline
}

func NewHandler(p *pipeline.Pipeline) *Handler {
	return &Handler{pipeline: p}
}

type chatResponse struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	State          string  `json:"state"`
	DiagnosedLabel *string `json:"diagnosed_label,omitempty"`
	ImagePath      *string `json:"image_path,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

type turnResponse struct {
	UserMessage      *model.Message `json:"user_message,omitempty"`
	ImageMessage     *model.Message `json:"image_message,omitempty"`
	AssistantMessage *model.Message `json:"assistant_message"`
	State            string         `json:"state"`
	DiagnosedLabel   string         `json:"diagnosed_label,omitempty"`
}

func (h *Handler) HandleCreateChat(c fiber.Ctx) error {
	trackingID := c.Get("X-Request-ID")

	now := time.Now()
	chat := model.Chat{
		UserID:    auth.UserID(c),
		State:     string(pipeline.StateNoImage),
		CreatedAt: &now,
	}
	if err := database.CreateEntity(c.Context(), &chat); err != nil {
		return apperror.InternalError(config.ModuleChat, c, err)
	}
	return apperror.Success(config.ModuleChat, c, apperror.FiberSuccessMessage{
		Code:       status.OK,
		Message:    "chat created",
		TrackingID: trackingID,
		Data:       toChatResponse(chat),
	})
}

func (h *Handler) HandleListChats(c fiber.Ctx) error {
	trackingID := c.Get("X-Request-ID")

	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleChat, c, err)
	}
	chats, err := listChatsForUser(db, auth.UserID(c))
	if err != nil {
		return apperror.InternalError(config.ModuleChat, c, err)
	}
	out := make([]chatResponse, 0, len(chats))
	for _, chat := range chats {
		out = append(out, toChatResponse(chat))
	}
	return apperror.Success(config.ModuleChat, c, apperror.FiberSuccessMessage{
		Code:       status.OK,
		Message:    "chats listed",
		TrackingID: trackingID,
		Data:       out,
	})
}

func (h *Handler) HandleGetChat(c fiber.Ctx) error {
	trackingID := c.Get("X-Request-ID")

	chatID, err := parseChatID(c)
	if err != nil {
		return apperror.BadRequest(config.ModuleChat, c, status.ChatMissingParams, "invalid chat id")
	}
	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleChat, c, err)
	}
	chat, err := getChatForUser(db, chatID, auth.UserID(c))
	if errors.Is(err, errChatNotFound) {
		return apperror.NotFound(config.ModuleChat, c, "chat not found")
	}
	if err != nil {
		return apperror.InternalError(config.ModuleChat, c, err)
	}
	return apperror.Success(config.ModuleChat, c, apperror.FiberSuccessMessage{
		Code:       status.OK,
		Message:    "chat found",
		TrackingID: trackingID,
		Data:       toChatResponse(*chat),
	})
}

func (h *Handler) HandleListMessages(c fiber.Ctx) error {
	trackingID := c.Get("X-Request-ID")

	chatID, err := parseChatID(c)
	if err != nil {
		return apperror.BadRequest(config.ModuleChat, c, status.ChatMissingParams, "invalid chat id")
	}
	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleChat, c, err)
	}
	if _, err := getChatForUser(db, chatID, auth.UserID(c)); err != nil {
		if errors.Is(err, errChatNotFound) {
			return apperror.NotFound(config.ModuleChat, c, "chat not found")
		}
		return apperror.InternalError(config.ModuleChat, c, err)
	}
	messages, err := listMessages(db, chatID)
	if err != nil {
		return apperror.InternalError(config.ModuleChat, c, err)
	}
	return apperror.Success(config.ModuleChat, c, apperror.FiberSuccessMessage{
		Code:       status.OK,
		Message:    "messages listed",
		TrackingID: trackingID,
		Data:       messages,
	})
}

// HandleSendMessage runs one conversational turn: optional image, optional
// text. The turn is serialized per conversation and the diagnosis transition
// is committed only together with a successful classification.
func (h *Handler) HandleSendMessage(c fiber.Ctx) error {
	trackingID := c.Get("X-Request-ID")

	chatID, err := parseChatID(c)
	if err != nil {
		return apperror.BadRequest(config.ModuleChat, c, status.ChatMissingParams, "invalid chat id")
	}
	text := strings.TrimSpace(c.FormValue("message"))
	fh, _ := c.FormFile("image")
	if text == "" && fh == nil {
		return apperror.BadRequest(config.ModuleChat, c, status.ChatMissingParams, "message or image is required")
	}

	var imageData []byte
	var imageName string
	if fh != nil {
		f, err := fh.Open()
		if err != nil {
			return apperror.BadRequest(config.ModuleChat, c, status.ChatInvalidRequestBody, "cannot open image")
		}
		imageData, err = io.ReadAll(f)
		f.Close()
		if err != nil || len(imageData) == 0 {
			return apperror.BadRequest(config.ModuleChat, c, status.ChatInvalidRequestBody, "empty image")
		}
		imageName = fh.Filename
	}

	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleChat, c, err)
	}

	// Turns of one conversation run strictly one at a time; two concurrent
	// images must not both claim the diagnosis.
	unlock := h.pipeline.LockConversation(chatID)
	defer unlock()

	chat, err := getChatForUser(db, chatID, auth.UserID(c))
	if errors.Is(err, errChatNotFound) {
		return apperror.NotFound(config.ModuleChat, c, "chat not found")
	}
	if err != nil {
		return apperror.InternalError(config.ModuleChat, c, err)
	}

	turn := pipeline.Turn{
		State:          pipeline.State(chat.State),
		DiagnosedLabel: derefString(chat.DiagnosedLabel),
		Text:           text,
	}
	imageAccepted := acceptImage(turn.State, imageData != nil)
	if imageAccepted {
		turn.Image = bytes.NewReader(imageData)
	}

	ctx, cancel := context.WithTimeout(c.Context(), turnTimeout)
	defer cancel()
	out := h.pipeline.Process(ctx, turn)

	resp, err := h.persistTurn(ctx, chat, text, imageData, imageName, imageAccepted, out)
	if err != nil {
		logger.Error(err, "chat: persist turn failed for chat %d", chatID)
		return apperror.InternalError(config.ModuleChat, c, err)
	}
	return apperror.Success(config.ModuleChat, c, apperror.FiberSuccessMessage{
		Code:       status.OK,
		Message:    "turn processed",
		TrackingID: trackingID,
		Data:       resp,
	})
}

func (h *Handler) persistTurn(ctx context.Context, chat *model.Chat, text string, imageData []byte, imageName string, imageAccepted bool, out pipeline.Outcome) (*turnResponse, error) {
	resp := &turnResponse{State: string(out.State), DiagnosedLabel: out.DiagnosedLabel}
	now := time.Now()

	diagnosisCommitted := commitDiagnosis(imageAccepted, out)
	var fileName string
	if diagnosisCommitted {
		_, name, err := storeImage(ctx, imageData, imageName)
		if err != nil {
			return nil, err
		}
		fileName = name
	}

	err := database.WithTx(ctx, func(tx *gorm.DB) error {
		if diagnosisCommitted {
			filePath := "/files/" + fileName
			label := out.DiagnosedLabel
			updates := map[string]interface{}{
				"state":           string(out.State),
				"diagnosed_label": label,
				"image_path":      filePath,
			}
			if err := tx.Model(&model.Chat{}).Where("id = ?", chat.ID).Updates(updates).Error; err != nil {
				return err
			}
			imgMsg := model.Message{ChatID: chat.ID, Role: model.RoleImage, Content: filePath, CreatedAt: &now}
			if err := tx.Create(&imgMsg).Error; err != nil {
				return err
			}
			resp.ImageMessage = &imgMsg
		}
		if text != "" {
			userMsg := model.Message{ChatID: chat.ID, Role: model.RoleUser, Content: text, CreatedAt: &now}
			if err := tx.Create(&userMsg).Error; err != nil {
				return err
			}
			resp.UserMessage = &userMsg
		}
		reply := out.Reply
		if reply == "" && imageAccepted {
			reply = imageAcknowledgement(out)
		}
		if reply != "" {
			asstMsg := model.Message{ChatID: chat.ID, Role: model.RoleAssistant, Content: reply, CreatedAt: &now}
			if err := tx.Create(&asstMsg).Error; err != nil {
				return err
			}
			resp.AssistantMessage = &asstMsg
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// acceptImage admits an uploaded image into the turn only while the chat has
// never been diagnosed; a decided chat ignores later images entirely.
func acceptImage(state pipeline.State, hasImage bool) bool {
	return hasImage && state == pipeline.StateNoImage
}

// commitDiagnosis reports whether the diagnosis transition became final this
// turn, meaning the image is stored and the state and label are frozen. A
// cancelled classification leaves the outcome in no_image and commits
// nothing, so the chat stays retryable.
func commitDiagnosis(imageAccepted bool, out pipeline.Outcome) bool {
	return imageAccepted && out.State != pipeline.StateNoImage
}

// imageAcknowledgement is the caller-composed reply for image-only turns;
// the pipeline itself makes no generation call without a question.
func imageAcknowledgement(out pipeline.Outcome) string {
	switch out.State {
	case pipeline.StateClassified:
		if out.DiagnosedLabel == vocab.LabelNormal {
			return answer.MsgNormalImage
		}
		return fmt.Sprintf("I've analyzed your image. The assessment suggests: %s. What would you like to know about this condition?", out.DiagnosedLabel)
	case pipeline.StateClassificationFailed:
		return answer.MsgClassificationFailed
	default:
		// Classification was cancelled; invite a retry.
		return answer.MsgNoImage
	}
}

func toChatResponse(chat model.Chat) chatResponse {
	title := "New Chat"
	if chat.DiagnosedLabel != nil && *chat.DiagnosedLabel != "" {
		title = *chat.DiagnosedLabel
	}
	created := ""
	if chat.CreatedAt != nil {
		created = chat.CreatedAt.Format(time.RFC3339)
	}
	return chatResponse{
		ID:             chat.ID,
		Title:          title,
		State:          chat.State,
		DiagnosedLabel: chat.DiagnosedLabel,
		ImagePath:      chat.ImagePath,
		CreatedAt:      created,
	}
}

func parseChatID(c fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
