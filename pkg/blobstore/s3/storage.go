// Copyright 2024 The Solaris Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package s3 is a blobstore.Storage backed by AWS S3, for reference/target
// buffers that live in real object storage.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/solarisdb/blockdelta/golibs/errors"
	"github.com/solarisdb/blockdelta/pkg/blobstore"
)

// Storage is a blobstore.Storage backed by an S3 bucket. AwsConfig and
// Bucket are injected fields, wired through github.com/logrange/linker the
// same way the rest of this codebase's linker components take dependencies.
type Storage struct {
	AwsConfig *aws.Config `inject:""`
	Bucket    string      `inject:"AwsS3Bucket"`

	client *s3.S3
}

var _ blobstore.Storage = (*Storage)(nil)

// Init implements linker.Initializer: it opens an S3 session.
func (st *Storage) Init(_ context.Context) error {
	sess, err := session.NewSession(st.AwsConfig)
	if err != nil {
		return fmt.Errorf("could not initialize blobstore/s3.Storage, bucket=%s: %w", st.Bucket, err)
	}
	st.client = s3.New(sess)
	return nil
}

// Get implements blobstore.Storage.
func (st *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if !blobstore.IsKeyValid(key) {
		return nil, fmt.Errorf("s3.Storage.Get(): invalid key=%s: %w", key, errors.ErrInvalid)
	}
	res, err := st.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(st.Bucket),
		Key:    aws.String(toS3Path(key)),
	})
	if err != nil {
		return nil, toError(err)
	}
	defer res.Body.Close()
	return io.ReadAll(res.Body)
}

// Put implements blobstore.Storage.
func (st *Storage) Put(ctx context.Context, key string, data []byte) error {
	if !blobstore.IsKeyValid(key) {
		return fmt.Errorf("s3.Storage.Put(): invalid key=%s: %w", key, errors.ErrInvalid)
	}
	_, err := st.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Body:   aws.ReadSeekCloser(bytes.NewReader(data)),
		Bucket: aws.String(st.Bucket),
		Key:    aws.String(toS3Path(key)),
	})
	if err != nil {
		return toError(err)
	}
	return nil
}

// List implements blobstore.Storage.
func (st *Storage) List(ctx context.Context, path string) ([]string, error) {
	if !blobstore.IsPathValid(path) {
		return nil, fmt.Errorf("s3.Storage.List(): invalid path=%s: %w", path, errors.ErrInvalid)
	}
	prefix := toS3Path(path)

	input := &s3.ListObjectsInput{
		Bucket:    aws.String(st.Bucket),
		Delimiter: aws.String("/"),
		Prefix:    aws.String(prefix),
		MaxKeys:   aws.Int64(100),
	}

	res := make([]string, 0, 10)
	for {
		result, err := st.client.ListObjectsWithContext(ctx, input)
		if err != nil {
			return nil, toError(err)
		}
		for _, p := range result.CommonPrefixes {
			res = append(res, toKeyPath(aws.StringValue(p.Prefix)))
		}
		for _, c := range result.Contents {
			res = append(res, toKeyPath(aws.StringValue(c.Key)))
		}
		if !aws.BoolValue(result.IsTruncated) {
			break
		}
		input.Marker = result.NextMarker
	}
	return res, nil
}

// Delete implements blobstore.Storage.
func (st *Storage) Delete(ctx context.Context, key string) error {
	if !blobstore.IsKeyValid(key) {
		return fmt.Errorf("s3.Storage.Delete(): invalid key=%s: %w", key, errors.ErrInvalid)
	}
	_, err := st.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(st.Bucket),
		Key:    aws.String(toS3Path(key)),
	})
	if err != nil {
		return toError(err)
	}
	return nil
}

func toS3Path(path string) string {
	return path[1:]
}

func toKeyPath(s3path string) string {
	return "/" + s3path
}

func toError(aerr error) error {
	if err, ok := aerr.(awserr.RequestFailure); ok {
		if err.StatusCode() == 404 {
			return errors.ErrNotExist
		}
	}
	return aerr
}
