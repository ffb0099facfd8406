package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"

	"sipeta/internal/config"
)

func TestPublicBase(t *testing.T) {
	assert.Equal(t, "http://minio:9000", PublicBase(config.MinIOConfig{Endpoint: "minio:9000"}))
	assert.Equal(t, "https://s3.local", PublicBase(config.MinIOConfig{Endpoint: "s3.local", UseSSL: true}))
	assert.Equal(t, "https://files.example.com", PublicBase(config.MinIOConfig{
		Endpoint:      "minio:9000",
		PublicBaseURL: "https://files.example.com/",
	}))
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t,
		"http://minio:9000/sipeta/personalia-umum/memorandum/abc_1700000000000.pdf",
		ObjectURL("http://minio:9000/", "sipeta", "personalia-umum/memorandum/abc_1700000000000.pdf"))
	assert.Equal(t,
		"http://minio:9000/sipeta/surat-masuk/a%20b.pdf",
		ObjectURL("http://minio:9000", "sipeta", "/surat-masuk/a b.pdf"))
}

func TestTranslate(t *testing.T) {
	notFound := minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
	assert.True(t, errors.Is(translate(notFound), ErrObjectNotFound))

	denied := minio.ErrorResponse{Code: "AccessDenied"}
	assert.False(t, errors.Is(translate(denied), ErrObjectNotFound))
}

func TestNewMinIOValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinIOConfig
		want string
	}{
		{"missing endpoint", config.MinIOConfig{}, "minio endpoint is required"},
		{"missing credentials", config.MinIOConfig{Endpoint: "minio:9000"}, "minio credentials are required"},
		{"missing bucket", config.MinIOConfig{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b"}, "minio bucket is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinIO(context.Background(), tt.cfg)
			assert.EqualError(t, err, tt.want)
			assert.Nil(t, s)
		})
	}
}
