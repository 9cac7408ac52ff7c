package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxThumbnailBytes = 10 << 20

// StorageConfig wires the S3-compatible object store. Endpoint is optional
// and points at non-AWS deployments (MinIO, Supabase storage).
type StorageConfig struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	UsePathStyle  bool
}

// StorageService stores recipe images and resolves their public URLs.
type StorageService struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	httpClient    *http.Client
}

func NewStorageService(cfg StorageConfig) (*StorageService, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	if cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("storage public base URL is required")
	}

	options := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		options.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &StorageService{
		client:        s3.New(options),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// ImageKey builds the object key for one stored image: the platform is both
// the folder and the filename prefix, followed by a millisecond timestamp
// and a short random suffix.
func ImageKey(platform, contentType string) string {
	return fmt.Sprintf("%s/%s-%d-%s%s",
		platform, platform, time.Now().UnixMilli(), uuid.NewString()[:8], extensionFromContentType(contentType))
}

func extensionFromContentType(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

// UploadImage writes the object publicly readable and returns its URL.
func (s *StorageService) UploadImage(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no image data to upload")
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=3600"),
		ACL:          types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload to object store: %w", err)
	}
	return s.publicBaseURL + "/" + key, nil
}

// StoreThumbnail downloads the platform thumbnail and re-hosts it. The
// recipe tolerates a missing image, so every failure logs and returns nil.
func (s *StorageService) StoreThumbnail(ctx context.Context, platform, thumbnailURL string) *string {
	if thumbnailURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbnailURL, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Invalid thumbnail URL, skipping image")
		return nil
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("Thumbnail download failed, skipping image")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("Thumbnail download refused, skipping image")
		return nil
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		log.Warn().Str("content_type", contentType).Msg("Thumbnail is not an image, skipping")
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes))
	if err != nil {
		log.Warn().Err(err).Msg("Thumbnail read failed, skipping image")
		return nil
	}

	url, err := s.UploadImage(ctx, ImageKey(platform, contentType), data, contentType)
	if err != nil {
		log.Warn().Err(err).Msg("Thumbnail upload failed, skipping image")
		return nil
	}
	return &url
}

// StoreGeneratedImage uploads the bytes the image model produced. Same
// tolerance as thumbnails: a recipe without an image is still a recipe.
func (s *StorageService) StoreGeneratedImage(ctx context.Context, data []byte, contentType string) *string {
	url, err := s.UploadImage(ctx, ImageKey("generated", contentType), data, contentType)
	if err != nil {
		log.Warn().Err(err).Msg("Generated image upload failed, skipping image")
		return nil
	}
	return &url
}
