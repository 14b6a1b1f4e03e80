package chat

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ai-derm-assistant/config"
	s3client "ai-derm-assistant/pkg/s3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const localImageDir = "storage/images"

var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// storeImage persists an uploaded image under a content-addressed name and
// returns the stored path plus the public file name. The backend is S3 when
// a bucket is configured, the local storage directory otherwise.
func storeImage(ctx context.Context, data []byte, originalName string) (storedPath, fileName string, err error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := imageContentTypes[ext]; !ok {
		return "", "", fmt.Errorf("unsupported image extension %q", ext)
	}
	sum := sha256.Sum256(data)
	fileName = hex.EncodeToString(sum[:]) + ext

	if strings.TrimSpace(config.Cfg.S3.Bucket) != "" {
		storedPath, err = storeToS3(ctx, data, fileName, imageContentTypes[ext])
	} else {
		storedPath, err = storeToLocal(data, fileName)
	}
	return storedPath, fileName, err
}

func storeToLocal(data []byte, fileName string) (string, error) {
	if err := os.MkdirAll(localImageDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage dir: %w", err)
	}
	finalPath := filepath.Join(localImageDir, fileName)
	tmp, err := os.CreateTemp(localImageDir, "upload-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return "", fmt.Errorf("failed to finalize file: %w", err)
	}
	return finalPath, nil
}

func storeToS3(ctx context.Context, data []byte, fileName, contentType string) (string, error) {
	client, err := s3client.GetClient()
	if err != nil {
		return "", fmt.Errorf("s3 client: %w", err)
	}
	bucket := config.Cfg.S3.Bucket

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		_, crtErr := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
		if crtErr != nil {
			var owned *s3types.BucketAlreadyOwnedByYou
			if !errors.As(crtErr, &owned) {
				return "", fmt.Errorf("create bucket: %w", crtErr)
			}
		}
	}

	key := "images/" + fileName
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", bucket, key), nil
}
