package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/thereayou/zenlist-realtime/internal/storage"
	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

// Причины отклонения файла
const (
	BlockedTooManyFiles = "too_many_files"
	BlockedFileTooLarge = "file_too_large"
	BlockedInvalidName  = "invalid_name"
)

var folderPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(/[A-Za-z0-9_-]+)*$`)

// Presigner выдает pre-signed POST для одного объекта (storage.S3Presigner)
type Presigner interface {
	PresignPost(ctx context.Context, key, contentType string, maxSize int64, expiry time.Duration) (*storage.PresignedPost, error)
}

type UploadLimits struct {
	MaxFiles      int
	MaxFileSize   int64
	Expiry        time.Duration
	DefaultFolder string
}

type UploadRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type PreparedUpload struct {
	Name   string            `json:"name"`
	Key    string            `json:"key"`
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

type BlockedUpload struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type UploadBatch struct {
	Accepted []PreparedUpload `json:"accepted"`
	Blocked  []BlockedUpload  `json:"blocked"`
}

// UploadService проверяет пакет файлов по серверным лимитам и подписывает
// загрузку для принятых
type UploadService struct {
	presigner Presigner
	limits    UploadLimits
	now       func() time.Time
	log       logger.Logger
}

func NewUploadService(presigner Presigner, limits UploadLimits, log logger.Logger) *UploadService {
	if limits.DefaultFolder == "" {
		limits.DefaultFolder = "chat"
	}
	return &UploadService{presigner: presigner, limits: limits, now: time.Now, log: log}
}

// PrepareBatch обрабатывает файлы в порядке поступления: первые MaxFiles
// допустимых принимаются, остальные отклоняются с причиной
func (s *UploadService) PrepareBatch(ctx context.Context, folder string, files []UploadRequest) (*UploadBatch, error) {
	if s.presigner == nil {
		return nil, fmt.Errorf("%w: uploads are not configured", apperrors.ErrStorage)
	}

	folder = s.folder(folder)
	batch := &UploadBatch{
		Accepted: make([]PreparedUpload, 0, len(files)),
		Blocked:  make([]BlockedUpload, 0),
	}

	for _, f := range files {
		name := strings.TrimSpace(f.Name)
		switch {
		case len(batch.Accepted) >= s.limits.MaxFiles:
			batch.Blocked = append(batch.Blocked, BlockedUpload{Name: f.Name, Reason: BlockedTooManyFiles})
			continue
		case name == "":
			batch.Blocked = append(batch.Blocked, BlockedUpload{Name: f.Name, Reason: BlockedInvalidName})
			continue
		case f.Size < 0 || f.Size > s.limits.MaxFileSize:
			batch.Blocked = append(batch.Blocked, BlockedUpload{Name: f.Name, Reason: BlockedFileTooLarge})
			continue
		}

		// индекс в пакете различает одинаковые имена в одном запросе
		key := fmt.Sprintf("%s/%d-%d-%s", folder, s.now().UnixMilli(), len(batch.Accepted), url.PathEscape(name))
		post, err := s.presigner.PresignPost(ctx, key, f.Type, s.limits.MaxFileSize, s.limits.Expiry)
		if err != nil {
			s.log.Error("Failed to presign upload", "key", key, "error", err)
			return nil, fmt.Errorf("%w: %w", apperrors.ErrStorage, err)
		}

		batch.Accepted = append(batch.Accepted, PreparedUpload{
			Name:   name,
			Key:    key,
			URL:    post.URL,
			Fields: post.Fields,
		})
	}

	return batch, nil
}

func (s *UploadService) folder(folder string) string {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" || !folderPattern.MatchString(folder) {
		return s.limits.DefaultFolder
	}
	return folder
}
