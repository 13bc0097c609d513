package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinioClient_MapError(t *testing.T) {
	c := &MinioClient{bucketName: "covers", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	tests := []struct {
		name       string
		err        error
		isNotFound bool
	}{
		{
			name:       "Ключ не найден",
			err:        minio.ErrorResponse{Code: noSuchKeyCode, StatusCode: 404},
			isNotFound: true,
		},
		{
			name: "Доступ запрещен",
			err:  minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403},
		},
		{
			name: "Сетевая ошибка",
			err:  errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := c.mapError(context.Background(), tt.err, "covers/key")
			require.Error(t, mapped)
			assert.Equal(t, tt.isNotFound, errors.Is(mapped, ErrObjectNotFound))
			if !tt.isNotFound {
				assert.Contains(t, mapped.Error(), "ошибка получения файла из MinIO")
			}
		})
	}
}
