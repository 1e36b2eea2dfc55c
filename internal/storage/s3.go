// Пакет storage — хранение файлов данных в S3-совместимом хранилище.
// Файл попадает в хранилище только после чистого результата
// антивирусной проверки.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/George-Hudson/TANF-app/internal/config"
)

// ObjectStore — операции хранилища файлов данных.
// Выделен интерфейсом для подстановки заглушки в тестах.
type ObjectStore interface {
	// Put сохраняет объект по ключу.
	Put(ctx context.Context, key string, body io.Reader) error
	// Get возвращает содержимое объекта. Закрыть Reader обязан вызывающий.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete удаляет объект.
	Delete(ctx context.Context, key string) error
}

// S3Store — реализация ObjectStore поверх AWS S3 API.
type S3Store struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

// NewS3Store создаёт хранилище файлов данных.
// При пустых учётных данных используется стандартная цепочка
// провайдеров AWS (IAM-роль, переменные окружения).
func NewS3Store(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ошибка конфигурации AWS SDK: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			// MinIO и локальные S3 требуют path-style адресацию
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client: client,
		bucket: cfg.S3Bucket,
		logger: logger.With(slog.String("component", "s3_store")),
	}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения объекта %s: %w", key, err)
	}

	s.logger.Debug("Объект сохранён",
		slog.String("bucket", s.bucket),
		slog.String("key", key),
	)
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения объекта %s: %w", key, err)
	}
	return out.Body, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления объекта %s: %w", key, err)
	}
	return nil
}
