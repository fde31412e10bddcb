// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage uploads generated slide images to S3-compatible object
// storage. It wraps the AWS SDK v2 and uses path-style addressing, which
// CEPH and Hetzner require.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"postforge/internal/imaging"
)

// Client wraps an S3 client bound to the public media bucket.
type Client struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string // optional CDN/direct URL for public files
}

// New creates an S3 storage client. Returns (nil, nil) if endpoint or
// credentials are empty, allowing the app to run without storage: images
// then stay inline as data URLs.
func New(endpoint, region, accessKey, secretKey, bucket, publicURL string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	if bucket == "" {
		return nil, fmt.Errorf("storage: bucket name is required")
	}

	endpoint = strings.TrimRight(endpoint, "/")

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        s3Client,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload stores a public-read object in the media bucket.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// Delete removes an object from the media bucket.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// PutImage uploads a generated image under key together with a JPEG
// thumbnail stored next to it ("<key>_thumb.jpg"). It returns the public
// URLs of both. A thumbnail that cannot be produced is logged and skipped;
// a failed thumbnail upload removes the original again.
func (c *Client) PutImage(ctx context.Context, key string, data []byte, contentType string) (url, thumbURL string, err error) {
	if err := c.Upload(ctx, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return "", "", err
	}
	url = c.FileURL(key)

	thumb, err := imaging.Resize(data, imaging.Thumb)
	if err != nil {
		slog.Warn("thumbnail generation failed", "key", key, "error", err)
		return url, "", nil
	}

	thumbKey := strings.TrimSuffix(key, path.Ext(key)) + "_" + thumb.Name + ".jpg"
	if err := c.Upload(ctx, thumbKey, thumb.ContentType, bytes.NewReader(thumb.Data), int64(len(thumb.Data))); err != nil {
		if delErr := c.Delete(ctx, key); delErr != nil {
			slog.Error("failed to remove orphaned image", "key", key, "error", delErr)
		}
		return "", "", err
	}
	return url, c.FileURL(thumbKey), nil
}

// FileURL returns the public URL for a key in the media bucket.
// Uses the configured public URL if set, otherwise builds a path-style URL.
func (c *Client) FileURL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.bucket + "/" + key
}
