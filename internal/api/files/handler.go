package files

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"ai-derm-assistant/config"
	"ai-derm-assistant/pkg/apperror"
	"ai-derm-assistant/pkg/apperror/status"
	s3client "ai-derm-assistant/pkg/s3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v3"
)

const localImageDir = "storage/images"

const presignExpiry = 15 * time.Minute

// HandleGetFile serves a stored image. Local files stream directly; S3
// objects redirect to a short-lived presigned URL.
func HandleGetFile(c fiber.Ctx) error {
	name := c.Params("name")
	// Stored names are content hashes plus an extension; anything with a
	// path separator is hostile.
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, "/\\") {
		return apperror.BadRequest(config.ModuleFiles, c, status.ChatMissingParams, "invalid file name")
	}

	if strings.TrimSpace(config.Cfg.S3.Bucket) != "" {
		return redirectToS3(c, name)
	}
	path := filepath.Join(localImageDir, name)
	return c.SendFile(path)
}

func redirectToS3(c fiber.Ctx, name string) error {
	presigner, err := s3client.GetPresignClient()
	if err != nil {
		return apperror.InternalError(config.ModuleFiles, c, err)
	}
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(config.Cfg.S3.Bucket),
		Key:    aws.String("images/" + name),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return apperror.InternalError(config.ModuleFiles, c, err)
	}
	return c.Redirect().Status(fiber.StatusTemporaryRedirect).To(req.URL)
}
