// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package media fetches creative assets from S3 for upload to the Graph API.
package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Object describes one media file found in an S3 folder.
type Object struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	URL      string `json:"s3_url"`
}

// Source reads media objects from S3.
type Source struct {
	client *s3.Client
	region string
}

// NewSource builds an S3-backed media source using the default AWS credential
// chain. An empty region defers to the SDK's own resolution.
func NewSource(ctx context.Context, region string) (*Source, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Source{
		client: s3.NewFromConfig(cfg),
		region: cfg.Region,
	}, nil
}

// ParseURL extracts bucket and key from an s3:// URL or a virtual-hosted
// https S3 URL.
func ParseURL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parsing S3 URL %q: %w", raw, err)
	}

	switch {
	case u.Scheme == "s3":
		bucket = u.Host
		key = strings.TrimPrefix(u.Path, "/")
	case u.Scheme == "https" && strings.Contains(u.Host, ".s3"):
		bucket = strings.SplitN(u.Host, ".", 2)[0]
		key = strings.TrimPrefix(u.Path, "/")
	default:
		return "", "", fmt.Errorf("not an S3 URL: %q", raw)
	}

	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("S3 URL %q is missing bucket or key", raw)
	}

	return bucket, key, nil
}

// Fetch downloads one object and returns its contents.
func (s *Source) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	bucket, key, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("downloading s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3://%s/%s: %w", bucket, key, err)
	}

	return data, nil
}

// ListFolder lists the media files directly under an S3 folder URL. Objects
// with unrecognized extensions are skipped.
func (s *Source) ListFolder(ctx context.Context, rawURL string) ([]Object, error) {
	bucket, prefix, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	if err != nil {
		return nil, fmt.Errorf("listing s3://%s/%s: %w", bucket, prefix, err)
	}

	var objects []Object
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		if key == prefix {
			continue
		}

		mimeType := DetectMediaType(key)
		if mimeType == "" {
			continue
		}

		objects = append(objects, Object{
			Key:      key,
			Name:     path.Base(key),
			MimeType: mimeType,
			Size:     aws.ToInt64(obj.Size),
			URL:      fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, key),
		})
	}

	return objects, nil
}

// DetectMediaType maps a filename extension to its media MIME type. Returns
// "" for extensions that are neither image nor video.
func DetectMediaType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/avi"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/mkv"
	default:
		return ""
	}
}
