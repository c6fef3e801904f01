package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"sort"
	"strings"
	"time"

	"badge-studio/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const (
	badgePrefix = "badges/"
	itemPrefix  = "items/"
)

// s3API is the subset of the S3 client the store uses.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	s3.ListObjectsV2APIClient
}

type s3Store struct {
	s3Client s3API
	bucket   string
}

// NewStore creates a new S3-based store.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return &s3Store{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucketName,
	}
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && path.Base(name) == name && !strings.Contains(name, `\`)
}

func metaKey(id string) string      { return badgePrefix + id + ".json" }
func imageKey(id string) string     { return badgePrefix + id + "/image" }
func thumbnailKey(id string) string { return badgePrefix + id + "/thumbnail" }

func (s *s3Store) get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

func (s *s3Store) put(ctx context.Context, key, contentType string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.s3Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

func (s *s3Store) remove(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (s *s3Store) List(ctx context.Context) ([]*core.StoredBadge, error) {
	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(badgePrefix),
	})

	badges := []*core.StoredBadge{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list badges: %w", err)
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			data, err := s.get(ctx, key)
			if err != nil {
				logrus.WithField("key", key).WithError(err).Warn("Failed to get badge metadata, skipping")
				continue
			}
			var badge core.StoredBadge
			if err := json.Unmarshal(data, &badge); err != nil {
				logrus.WithField("key", key).WithError(err).Warn("Failed to unmarshal badge metadata, skipping")
				continue
			}
			badges = append(badges, &badge)
		}
	}

	sort.Slice(badges, func(i, j int) bool {
		if badges[i].CreatedAt.Equal(badges[j].CreatedAt) {
			return badges[i].ID > badges[j].ID
		}
		return badges[i].CreatedAt.After(badges[j].CreatedAt)
	})
	return badges, nil
}

func (s *s3Store) FindID(ctx context.Context, id string) (*core.StoredBadge, error) {
	if !validName(id) {
		return nil, fmt.Errorf("badge with id %s: %w", id, core.ErrNotFound)
	}
	data, err := s.get(ctx, metaKey(id))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("badge with id %s: %w", id, core.ErrNotFound)
		}
		return nil, err
	}

	var badge core.StoredBadge
	if err := json.Unmarshal(data, &badge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal badge %s: %w", id, err)
	}
	if badge.Image, err = s.get(ctx, imageKey(id)); err != nil {
		return nil, err
	}
	if badge.HasThumbnail() {
		if badge.Thumbnail, err = s.get(ctx, thumbnailKey(id)); err != nil {
			return nil, err
		}
	}
	return &badge, nil
}

func (s *s3Store) Create(ctx context.Context, badge *core.StoredBadge) (string, error) {
	if badge.ID == "" {
		badge.ID = ulid.Make().String()
	}
	if !validName(badge.ID) {
		return "", fmt.Errorf("invalid badge id %q", badge.ID)
	}
	if badge.CreatedAt.IsZero() {
		badge.CreatedAt = time.Now().UTC()
	}

	if err := s.put(ctx, imageKey(badge.ID), badge.ImageType, badge.Image); err != nil {
		return "", err
	}
	if badge.HasThumbnail() {
		if err := s.put(ctx, thumbnailKey(badge.ID), badge.ThumbnailType, badge.Thumbnail); err != nil {
			return "", err
		}
	}
	data, err := json.Marshal(badge)
	if err != nil {
		return "", err
	}
	if err := s.put(ctx, metaKey(badge.ID), "application/json", data); err != nil {
		return "", err
	}

	logrus.WithFields(logrus.Fields{
		"badge_id":    badge.ID,
		"data_length": len(badge.Image),
	}).Info("Badge created successfully")
	return badge.ID, nil
}

func (s *s3Store) Delete(ctx context.Context, id string) error {
	if !validName(id) {
		return fmt.Errorf("badge with id %s: %w", id, core.ErrNotFound)
	}
	for _, key := range []string{metaKey(id), imageKey(id), thumbnailKey(id)} {
		if err := s.remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *s3Store) GetItem(ctx context.Context, key string) ([]byte, error) {
	if !validName(key) {
		return nil, fmt.Errorf("invalid item key %q", key)
	}
	return s.get(ctx, itemPrefix+key)
}

func (s *s3Store) SetItem(ctx context.Context, key string, value []byte) error {
	if !validName(key) {
		return fmt.Errorf("invalid item key %q", key)
	}
	return s.put(ctx, itemPrefix+key, "application/json", value)
}

func (s *s3Store) RemoveItem(ctx context.Context, key string) error {
	if !validName(key) {
		return fmt.Errorf("invalid item key %q", key)
	}
	return s.remove(ctx, itemPrefix+key)
}
