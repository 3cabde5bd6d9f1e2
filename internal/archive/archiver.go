// Package archive snapshots the data set to S3-compatible object storage.
// The bucket is the disaster-recovery source for bulk restore: when local
// photo files are lost, they come back from here.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"platewatch/internal/config"
	"platewatch/internal/export"
	"platewatch/internal/repository"
	"platewatch/internal/storage"
)

const (
	snapshotPrefix = "snapshots"
	imagePrefix    = "images"
)

type Archiver struct {
	client *minio.Client
	cfg    config.ArchiveConfig
	store  repository.SightingStore
	images *storage.ImageStore
	log    zerolog.Logger
}

func New(cfg config.ArchiveConfig, store repository.SightingStore, images *storage.ImageStore, log zerolog.Logger) (*Archiver, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &Archiver{
		client: client,
		cfg:    cfg,
		store:  store,
		images: images,
		log:    log,
	}, nil
}

func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", a.cfg.Bucket, err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.cfg.Bucket, minio.MakeBucketOptions{Region: a.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", a.cfg.Bucket, err)
		}
	}
	return nil
}

// Sync uploads a timestamped CSV snapshot and any photo files the bucket does
// not hold yet.
func (a *Archiver) Sync(ctx context.Context) error {
	sightings, err := a.store.List(ctx, repository.ListFilter{Sort: repository.SortDateDesc})
	if err != nil {
		return fmt.Errorf("list sightings: %w", err)
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, sightings, true); err != nil {
		return fmt.Errorf("render snapshot csv: %w", err)
	}

	snapshotKey := path.Join(snapshotPrefix, fmt.Sprintf("%s-%s.csv",
		time.Now().UTC().Format("20060102T150405"), ksuid.New().String()))

	if _, err := a.client.PutObject(ctx, a.cfg.Bucket, snapshotKey,
		bytes.NewReader(buf.Bytes()), int64(buf.Len()),
		minio.PutObjectOptions{ContentType: "text/csv"}); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}

	uploaded := 0
	for _, s := range sightings {
		if !s.HasImage() || !a.images.Exists(s.Image()) {
			continue
		}
		key := path.Join(imagePrefix, s.Image())
		if _, err := a.client.StatObject(ctx, a.cfg.Bucket, key, minio.StatObjectOptions{}); err == nil {
			continue
		}

		localPath, err := a.images.Path(s.Image())
		if err != nil {
			a.log.Warn().Err(err).Str("filename", s.Image()).Msg("skip unsafe filename")
			continue
		}
		if _, err := a.client.FPutObject(ctx, a.cfg.Bucket, key, localPath, minio.PutObjectOptions{}); err != nil {
			return fmt.Errorf("put image %s: %w", s.Image(), err)
		}
		uploaded++
	}

	a.log.Info().
		Str("snapshot", snapshotKey).
		Int("records", len(sightings)).
		Int("images_uploaded", uploaded).
		Msg("archive sync complete")
	return nil
}
