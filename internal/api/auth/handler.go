package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"ai-derm-assistant/config"
	"ai-derm-assistant/internal/database"
	"ai-derm-assistant/internal/database/model"
	"ai-derm-assistant/pkg/apperror"
	"ai-derm-assistant/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func HandleRegister(c fiber.Ctx) error {
	trackingID := c.Get("X-Request-ID")

	var req registerRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.BadRequest(config.ModuleAuth, c, status.ChatInvalidRequestBody, err.Error())
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || len(req.Password) < 8 {
		return apperror.BadRequest(config.ModuleAuth, c, status.ChatMissingParams,
			"username, email and a password of at least 8 characters are required")
	}

	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleAuth, c, err)
	}
	if taken, err := usernameOrEmailTaken(db, req.Username, req.Email); err != nil {
		return apperror.InternalError(config.ModuleAuth, c, err)
	} else if taken {
		return apperror.BadRequest(config.ModuleAuth, c, status.AuthUserExists, "username or email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperror.InternalError(config.ModuleAuth, c, err)
	}
	now := time.Now()
	user := model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    &now,
	}
	if err := db.Create(&user).Error; err != nil {
		return apperror.InternalError(config.ModuleAuth, c, err)
	}

	session, err := createSession(db, user.ID)
	if err != nil {
		return apperror.InternalError(config.ModuleAuth, c, err)
	}
	return apperror.Success(config.ModuleAuth, c, apperror.FiberSuccessMessage{
		Code:       status.OK,
		Message:    "registered",
		TrackingID: trackingID,
		Data:       session,
	})
}

func HandleLogin(c fiber.Ctx) error {
	trackingID := c.Get("X-Request-ID")

	var req loginRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.BadRequest(config.ModuleAuth, c, status.ChatInvalidRequestBody, err.Error())
	}

	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleAuth, c, err)
	}
	var user model.User
	if err := db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.BadRequest(config.ModuleAuth, c, status.AuthInvalidCredentials, "invalid username or password")
		}
		return apperror.InternalError(config.ModuleAuth, c, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return apperror.BadRequest(config.ModuleAuth, c, status.AuthInvalidCredentials, "invalid username or password")
	}

	session, err := createSession(db, user.ID)
	if err != nil {
		return apperror.InternalError(config.ModuleAuth, c, err)
	}
	return apperror.Success(config.ModuleAuth, c, apperror.FiberSuccessMessage{
		Code:       status.OK,
		Message:    "logged in",
		TrackingID: trackingID,
		Data:       session,
	})
}

func HandleLogout(c fiber.Ctx) error {
	trackingID := c.Get("X-Request-ID")

	token := bearerToken(c)
	if token == "" {
		return apperror.Unauthorized(config.ModuleAuth, c, "missing bearer token")
	}
	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleAuth, c, err)
	}
	if err := db.Where("token = ?", token).Delete(&model.Session{}).Error; err != nil {
		return apperror.InternalError(config.ModuleAuth, c, err)
	}
	return apperror.Success(config.ModuleAuth, c, apperror.FiberSuccessMessage{
		Code:       status.OK,
		Message:    "logged out",
		TrackingID: trackingID,
	})
}

func createSession(db *gorm.DB, userID int64) (sessionResponse, error) {
	now := time.Now()
	expires := now.Add(time.Duration(config.Cfg.Auth.SessionTTLHours) * time.Hour)
	session := model.Session{
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: &expires,
		CreatedAt: &now,
	}
	if err := db.Create(&session).Error; err != nil {
		return sessionResponse{}, err
	}
	return sessionResponse{Token: session.Token, UserID: userID, ExpiresAt: expires}, nil
}

func usernameOrEmailTaken(db *gorm.DB, username, email string) (bool, error) {
	var count int64
	err := db.WithContext(context.Background()).Model(&model.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}
