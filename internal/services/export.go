package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"DF-FORMS/internal/cache"
	"DF-FORMS/internal/export"
	"DF-FORMS/internal/models"
	"DF-FORMS/internal/storage"
)

// DefaultDownloadExpiry is the lifetime of signed download URLs.
const DefaultDownloadExpiry = 15 * time.Minute

// ExportService renders documents and compliance forms, reusing cached
// artifacts for unchanged document versions and optionally uploading the
// result to artifact storage.
type ExportService struct {
	documents      *DocumentService
	pipeline       *export.Pipeline
	cache          cache.Cache
	storage        storage.StorageClient
	downloadExpiry time.Duration
}

// NewExportService wires the export pipeline. cache and storage may be nil.
func NewExportService(documents *DocumentService, pipeline *export.Pipeline, artifactCache cache.Cache, storageClient storage.StorageClient, downloadExpiry time.Duration) *ExportService {
	if artifactCache == nil {
		artifactCache = cache.Noop{}
	}
	if downloadExpiry <= 0 {
		downloadExpiry = DefaultDownloadExpiry
	}
	return &ExportService{
		documents:      documents,
		pipeline:       pipeline,
		cache:          artifactCache,
		storage:        storageClient,
		downloadExpiry: downloadExpiry,
	}
}

// cachedArtifact is what the cache keeps per rendered document version.
type cachedArtifact struct {
	Content []byte `json:"content"`
	Note    string `json:"note,omitempty"`
}

// ExportDocument renders the document. Rendering is a read-only operation:
// it never validates and never changes the document.
func (s *ExportService) ExportDocument(ctx context.Context, id string, format models.ExportFormat, opts models.ExportOptions) (*models.ExportResult, error) {
	doc, tmpl, err := s.documents.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if opts.Store && s.storage == nil {
		return nil, invalidInput("artifact storage is not configured")
	}

	normalized := s.pipeline.NormalizeOptions(opts)
	key := artifactKey(tmpl, doc, format, normalized)

	result, hit := s.cached(ctx, key, doc, format)
	if !hit {
		result, err = s.pipeline.Render(ctx, tmpl, doc, format, normalized)
		if err != nil {
			return nil, exportError(err)
		}
		if raw, err := json.Marshal(cachedArtifact{Content: result.Content, Note: result.Note}); err == nil {
			s.cache.Set(ctx, key, raw)
		}
	}

	logrus.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"version":     doc.Version,
		"format":      format,
		"cached":      hit,
		"partial":     result.Note != "",
	}).Info("document exported")

	if opts.Store {
		if err := s.upload(ctx, storage.ExportObjectName(doc.ID, doc.Version, result.Filename), result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ExportCompliance renders a compliance form. Finalized forms can be stored.
func (s *ExportService) ExportCompliance(ctx context.Context, form *models.ComplianceForm, format models.ExportFormat, opts models.ExportOptions) (*models.ExportResult, error) {
	if opts.Store {
		if s.storage == nil {
			return nil, invalidInput("artifact storage is not configured")
		}
		if !form.Finalized() {
			return nil, invalidInput("only finalized forms can be stored")
		}
	}

	result, err := s.pipeline.RenderCompliance(ctx, form, format, opts)
	if err != nil {
		return nil, exportError(err)
	}

	if opts.Store {
		if err := s.upload(ctx, storage.ComplianceObjectName(form.Folio, result.Filename), result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *ExportService) cached(ctx context.Context, key string, doc *models.Document, format models.ExportFormat) (*models.ExportResult, bool) {
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var art cachedArtifact
	if err := json.Unmarshal(raw, &art); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err}).Warn("discarding unreadable cached export")
		return nil, false
	}
	return &models.ExportResult{
		Content:  art.Content,
		Filename: export.Filename(doc.Title, doc.Version, format),
		MimeType: format.MimeType(),
		Note:     art.Note,
	}, true
}

func (s *ExportService) upload(ctx context.Context, objectName string, result *models.ExportResult) error {
	uploaded, err := s.storage.UploadFile(ctx, bytes.NewReader(result.Content), objectName, result.MimeType)
	if err != nil {
		return fmt.Errorf("failed to store export: %w", err)
	}
	url, err := s.storage.GetSignedURL(ctx, uploaded.ObjectName, s.downloadExpiry)
	if err != nil {
		return fmt.Errorf("failed to sign download url: %w", err)
	}
	result.StoragePath = uploaded.ObjectName
	result.DownloadURL = url

	logrus.WithFields(logrus.Fields{"object": uploaded.ObjectName, "size": uploaded.Size}).Info("export stored")
	return nil
}

// artifactKey identifies a rendering. Status is part of the key because the
// footer prints it and reviews change it without bumping the version. The
// template revision covers a template replaced under the same id.
func artifactKey(tmpl *models.Template, doc *models.Document, format models.ExportFormat, opts models.ExportOptions) string {
	return fmt.Sprintf("%s:v%d:%s:t%d:%s:%s:%s:%t%t%t%t:%s",
		doc.ID, doc.Version, doc.Status, tmpl.UpdatedAt.UnixNano(), format,
		opts.PageSize, opts.Orientation,
		opts.IncludeHeader, opts.IncludeFooter, opts.IncludeLogo, opts.Markdown,
		opts.LogoURL)
}

func exportError(err error) error {
	if errors.Is(err, export.ErrUnsupportedFormat) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
