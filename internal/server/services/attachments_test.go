package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sc "github.com/totymark/totymark/internal/server/config"
)

func minioConfig() *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3AccessKey:    "minioadmin",
		S3SecretKey:    "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "attachments",
	}
}

func TestS3Storage_PresignAgainstPathStyleEndpoint(t *testing.T) {
	st, err := NewS3Storage(context.Background(), minioConfig())
	require.NoError(t, err)

	key := AttachmentKey("general", "0b8c", time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "chats/general/2025/07/0b8c", key)

	put, err := st.PresignPut(context.Background(), key, "image/png")
	require.NoError(t, err)
	u, err := url.Parse(put)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", u.Host)
	assert.Equal(t, "/attachments/"+key, u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.True(t, strings.HasPrefix(u.Query().Get("X-Amz-Credential"), "minioadmin/"))

	get, err := st.PresignGet(context.Background(), key)
	require.NoError(t, err)
	assert.Contains(t, get, "/attachments/"+key+"?")
}

func TestNewS3Storage_Options(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	var region string
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		region = lo.Region
		assert.NotNil(t, lo.Credentials, "static credentials when an access key is configured")
		return aws.Config{}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return s3.New(opts)
	}

	_, err := NewS3Storage(context.Background(), minioConfig())
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", region)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err = NewS3Storage(context.Background(), minioConfig())
	assert.ErrorContains(t, err, "s3 config")
}

func TestS3Storage_PresignErrors(t *testing.T) {
	st, err := NewS3Storage(context.Background(), minioConfig())
	require.NoError(t, err)

	origPut, origGet := presignPutObject, presignGetObject
	t.Cleanup(func() { presignPutObject, presignGetObject = origPut, origGet })

	presignPutObject = func(*s3.PresignClient, context.Context, *s3.PutObjectInput, ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("put boom")
	}
	presignGetObject = func(*s3.PresignClient, context.Context, *s3.GetObjectInput, ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("get boom")
	}

	_, err = st.PresignPut(context.Background(), "k", "text/plain")
	assert.EqualError(t, err, "put boom")
	_, err = st.PresignGet(context.Background(), "k")
	assert.EqualError(t, err, "get boom")
}
