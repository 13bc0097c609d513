package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const noSuchKeyCode = "NoSuchKey"

// FileStorage определяет интерфейс для взаимодействия с объектным хранилищем.
type FileStorage interface {
	UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, objectKey string) error
}

// MinioClient реализует FileStorage для MinIO.
type MinioClient struct {
	client     *minio.Client
	bucketName string
	logger     *slog.Logger
}

// MinioConfig содержит параметры для подключения к MinIO.
type MinioConfig struct {
	Endpoint        string // Адрес MinIO (например, "localhost:9000")
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string // Имя бакета для обложек
	Region          string
}

// NewMinioClient создает клиент MinIO и при необходимости создает бакет.
func NewMinioClient(ctx context.Context, cfg MinioConfig, logger *slog.Logger) (*MinioClient, error) {
	logger = logger.With(slog.String("component", "Minio"))
	logger.Info("Инициализация клиента MinIO", slog.String("endpoint", cfg.Endpoint))

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	exists, err := minioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существования бакета '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		logger.Info("Бакет не найден, создаем", slog.String("bucket", cfg.BucketName))
		err = minioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания бакета '%s': %w", cfg.BucketName, err)
		}
	}

	logger.Info("Клиент MinIO инициализирован", slog.String("bucket", cfg.BucketName))
	return &MinioClient{
		client:     minioClient,
		bucketName: cfg.BucketName,
		logger:     logger,
	}, nil
}

// UploadFile загружает объект в бакет.
func (c *MinioClient) UploadFile(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
) error {
	info, err := c.client.PutObject(ctx, c.bucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "Ошибка загрузки файла", slog.String("key", objectKey), slog.Any("error", err))
		return fmt.Errorf("ошибка загрузки файла в MinIO: %w", err)
	}

	c.logger.InfoContext(ctx, "Файл загружен",
		slog.String("key", objectKey), slog.Int64("size", info.Size), slog.String("etag", info.ETag))
	return nil
}

// DownloadFile возвращает содержимое объекта. Вызывающий обязан закрыть ReadCloser.
func (c *MinioClient) DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	object, err := c.client.GetObject(ctx, c.bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, c.mapError(ctx, err, objectKey)
	}

	// GetObject ленивый: отсутствие ключа обнаруживается только при Stat/Read.
	if _, err = object.Stat(); err != nil {
		_ = object.Close()
		return nil, c.mapError(ctx, err, objectKey)
	}
	return object, nil
}

// DeleteFile удаляет объект. Удаление отсутствующего объекта не считается ошибкой.
func (c *MinioClient) DeleteFile(ctx context.Context, objectKey string) error {
	if err := c.client.RemoveObject(ctx, c.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		c.logger.ErrorContext(ctx, "Ошибка удаления файла", slog.String("key", objectKey), slog.Any("error", err))
		return fmt.Errorf("ошибка удаления файла из MinIO: %w", err)
	}
	return nil
}

func (c *MinioClient) mapError(ctx context.Context, err error, objectKey string) error {
	if minio.ToErrorResponse(err).Code == noSuchKeyCode {
		return ErrObjectNotFound
	}
	c.logger.ErrorContext(ctx, "Ошибка получения файла", slog.String("key", objectKey), slog.Any("error", err))
	return fmt.Errorf("ошибка получения файла из MinIO: %w", err)
}

// ErrObjectNotFound - объект отсутствует в хранилище.
var ErrObjectNotFound = errors.New("объект не найден в хранилище")
