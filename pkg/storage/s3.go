package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const (
	// MaxAvatarSize is the maximum accepted avatar image size (5MB).
	MaxAvatarSize = 5 * 1024 * 1024
	// FolderAvatars is the S3 prefix for avatar objects.
	FolderAvatars = "avatars"
)

// AllowedAvatarTypes maps accepted image MIME types to extensions.
var AllowedAvatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	AvatarsBucket        string
	PresignExpireMinutes int
}

// S3 provides avatar uploads and pre-signed download URLs.
type S3 struct {
	client   *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or the environment
// (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY), falling back to the default chain.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
		logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("bucket", cfg.AvatarsBucket))
	} else {
		logger.Warn("S3 client using default credential chain")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3{
		client:   client,
		presign:  s3.NewPresignClient(client),
		uploader: manager.NewUploader(client),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ValidAvatarType reports whether contentType is an accepted avatar image type.
// Parameters such as "; charset=" are ignored.
func ValidAvatarType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	_, ok := AllowedAvatarTypes[ct]
	return ok
}

// AvatarKey returns the S3 object key for a user's avatar: avatars/{user_id}.
func AvatarKey(userID int64) string {
	return path.Join(FolderAvatars, strconv.FormatInt(userID, 10))
}

// PresignExpire returns the configured presign duration.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}

// PresignedAvatarURL returns a pre-signed GET URL for an avatar object.
func (s *S3) PresignedAvatarURL(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.AvatarsBucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.PresignExpire()
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// UploadAvatar streams an image to the avatars bucket and returns its key.
func (s *S3) UploadAvatar(ctx context.Context, userID int64, contentType string, body io.Reader) (string, error) {
	key := AvatarKey(userID)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AvatarsBucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return key, nil
}

// Presigner issues download URLs for stored objects.
type Presigner interface {
	PresignedAvatarURL(ctx context.Context, key string) (string, error)
}

// AvatarURLs resolves avatar keys to URLs, using a default image for users
// without an avatar or when no bucket is configured.
type AvatarURLs struct {
	presigner Presigner
	fallback  string
	logger    *zap.Logger
}

// NewAvatarURLs creates a resolver. presigner may be nil.
func NewAvatarURLs(presigner Presigner, fallback string, logger *zap.Logger) *AvatarURLs {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvatarURLs{presigner: presigner, fallback: fallback, logger: logger}
}

// URL returns the URL of the avatar stored under key.
func (a *AvatarURLs) URL(ctx context.Context, key string) string {
	if key == "" || a.presigner == nil {
		return a.fallback
	}
	u, err := a.presigner.PresignedAvatarURL(ctx, key)
	if err != nil {
		a.logger.Warn("avatar presign failed", zap.String("key", key), zap.Error(err))
		return a.fallback
	}
	return u
}
