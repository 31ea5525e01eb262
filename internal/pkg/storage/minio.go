package storage

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
)

//MinioStorage saves audio blobs to a s3 compatible store
type MinioStorage struct {
	client *minio.Client
	bucket string
}

//NewMinioStorage creates the storage client.
//Settings are taken from storage.{url,key,secret,bucket,ssl}
func NewMinioStorage() (*MinioStorage, error) {
	url := cmdapp.Config.GetString("storage.url")
	if url == "" {
		return nil, errors.New("No storage url from storage.url")
	}
	bucket := cmdapp.Config.GetString("storage.bucket")
	if bucket == "" {
		bucket = "audio-recordings"
	}
	client, err := minio.New(url, &minio.Options{
		Creds: credentials.NewStaticV4(cmdapp.Config.GetString("storage.key"),
			cmdapp.Config.GetString("storage.secret"), ""),
		Secure: cmdapp.Config.GetBool("storage.ssl"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "Can't init storage client")
	}
	cmdapp.Log.Infof("Storage: %s, bucket: %s", url, bucket)
	return &MinioStorage{client: client, bucket: bucket}, nil
}

//Save uploads data under name. An existing object is overwritten,
//so a retried upload never leaves two blobs for one logical file
func (fs *MinioStorage) Save(ctx context.Context, name string, data []byte, contentType string) error {
	_, err := fs.client.PutObject(ctx, fs.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Wrapf(err, "Can't save %s", name)
	}
	cmdapp.Log.Infof("Saved %s (%d b)", name, len(data))
	return nil
}

//Load reads object data
func (fs *MinioStorage) Load(ctx context.Context, name string) ([]byte, error) {
	obj, err := fs.client.GetObject(ctx, fs.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load %s", name)
	}
	defer obj.Close()
	res, err := io.ReadAll(obj)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read %s", name)
	}
	return res, nil
}

//SignedURL returns a presigned GET link valid for ttl
func (fs *MinioStorage) SignedURL(ctx context.Context, name string, ttl time.Duration) (string, error) {
	u, err := fs.client.PresignedGetObject(ctx, fs.bucket, name, ttl, nil)
	if err != nil {
		return "", errors.Wrapf(err, "Can't sign url for %s", name)
	}
	return u.String(), nil
}

//Delete removes the object
func (fs *MinioStorage) Delete(ctx context.Context, name string) error {
	err := fs.client.RemoveObject(ctx, fs.bucket, name, minio.RemoveObjectOptions{})
	if err != nil {
		return errors.Wrapf(err, "Can't delete %s", name)
	}
	return nil
}

//Healthy checks if the store answers
func (fs *MinioStorage) Healthy() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := fs.client.BucketExists(ctx, fs.bucket)
	return err
}
