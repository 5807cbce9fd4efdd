package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/semaphore"

	"github.com/tcgwatch/pricewatch/pricewatch"
	"github.com/tcgwatch/pricewatch/pricewatch/config"
	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
)

const maxMirrorUploads = 4

type objectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageMirror copies card images into an S3 compatible bucket so the
// frontend does not depend on the catalog's image host. Uploads run in the
// background; when too many are in flight new ones are dropped.
type ImageMirror struct {
	store  objectStore
	http   *resty.Client
	bucket string
	prefix string
	slots  *semaphore.Weighted
	wg     sync.WaitGroup
}

// NewImageMirror returns nil when no bucket is configured.
func NewImageMirror(ctx context.Context, cfg pricewatch.ImagesConfig) (*ImageMirror, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, "")),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load object storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newImageMirror(client, cfg.Bucket, cfg.Prefix), nil
}

func newImageMirror(store objectStore, bucket, prefix string) *ImageMirror {
	return &ImageMirror{
		store:  store,
		http:   resty.New().SetTimeout(config.UpstreamAPITimeout).SetHeader("User-Agent", config.DefaultUserAgent),
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		slots:  semaphore.NewWeighted(maxMirrorUploads),
	}
}

// MirrorCardImage schedules an upload of card's image.
func (m *ImageMirror) MirrorCardImage(ctx context.Context, card *models.Card) {
	if card.ImageURL == "" {
		return
	}
	if !m.slots.TryAcquire(1) {
		slog.Debug("Image mirror busy, skipping",
			slog.String("type", "sys"),
			slog.Int64("card_id", card.ID))
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.slots.Release(1)

		ctx, cancel := context.WithTimeout(ctx, config.UpstreamAPITimeout)
		defer cancel()

		if err := m.upload(ctx, card); err != nil {
			slog.Warn("Failed to mirror card image",
				slog.String("type", "error"),
				slog.Int64("card_id", card.ID),
				slog.String("image", card.ImageURL),
				slog.Any("error", err))
		}
	}()
}

// Wait blocks until every scheduled upload has finished.
func (m *ImageMirror) Wait() {
	m.wg.Wait()
}

func (m *ImageMirror) upload(ctx context.Context, card *models.Card) error {
	resp, err := m.http.R().SetContext(ctx).Get(card.ImageURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("image download failed: %s", resp.Status())
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	_, err = m.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(m.bucket),
		Key:          aws.String(m.ObjectKey(card)),
		Body:         bytes.NewReader(resp.Body()),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000"),
		ACL:          types.ObjectCannedACLPublicRead,
	})
	return err
}

var unsafeKeyChars = regexp.MustCompile(`[^a-z0-9]+`)

// ObjectKey is where card's image is stored: prefix/cards/<set>/<number><ext>.
func (m *ImageMirror) ObjectKey(card *models.Card) string {
	set := strings.Trim(unsafeKeyChars.ReplaceAllString(strings.ToLower(card.SetName), "-"), "-")
	number := strings.Trim(unsafeKeyChars.ReplaceAllString(strings.ToLower(card.SetNumber), "-"), "-")
	if set == "" {
		set = "unknown"
	}

	ext := path.Ext(card.ImageURL)
	if i := strings.IndexAny(ext, "?#"); i >= 0 {
		ext = ext[:i]
	}
	if ext == "" {
		ext = ".png"
	}

	return path.Join(m.prefix, "cards", set, number+ext)
}
