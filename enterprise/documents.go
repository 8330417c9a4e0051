package enterprise

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/entadmin/adminkit/apiclient"
	"github.com/entadmin/adminkit/errors"
	"github.com/entadmin/adminkit/logger"
	"github.com/entadmin/adminkit/storage"
	"github.com/entadmin/adminkit/validation"
)

// DocumentUpload describes a file to attach to an enterprise.
type DocumentUpload struct {
	// DocumentType is a free-form label such as "business_licence".
	DocumentType string
	FileName     string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// UploadDocument stores the file under enterprises/<id>/ and records it in
// the documents table. The stored object is removed if the record cannot be
// written.
func (s *Service) UploadDocument(ctx context.Context, enterpriseID string, up DocumentUpload) (*Document, error) {
	if s.store == nil {
		return nil, errors.New(errors.ErrCodeInternal, "document storage is not configured", http.StatusInternalServerError)
	}
	if up.DocumentType == "" {
		return nil, errors.MissingField("document_type")
	}
	if msg := validation.CheckFile(up.ContentType, up.Size, DocumentTypes, s.maxDocSize); msg != "" {
		return nil, errors.Validation(msg).WithDetail("file", up.FileName)
	}
	if _, err := s.Get(ctx, enterpriseID); err != nil {
		return nil, err
	}

	key := storage.UniqueFilename(path.Base(up.FileName), "enterprises/"+enterpriseID+"/")
	if err := s.store.Upload(ctx, key, up.Body, up.ContentType); err != nil {
		return nil, errors.ExternalServiceError("storage", err)
	}
	fileURL, err := s.store.URL(ctx, key)
	if err != nil {
		return nil, errors.ExternalServiceError("storage", err)
	}

	doc := Document{
		EnterpriseID: enterpriseID,
		DocumentType: up.DocumentType,
		DocumentName: up.FileName,
		FileURL:      fileURL,
		FilePath:     key,
		FileSize:     up.Size,
		MimeType:     up.ContentType,
	}
	env := apiclient.Post[[]Document](ctx, s.api, tableDocuments, []Document{doc})
	if !env.Success || len(env.Value()) == 0 {
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.log.Warn("orphaned document object", logger.ErrorFields("upload_document", derr), logger.Fields(logger.FieldPath, key))
		}
		if !env.Success {
			return nil, env.Err()
		}
		return nil, errors.Internal(nil)
	}

	stored := env.Value()[0]
	s.log.Info("document uploaded", logger.Fields(
		logger.FieldEnterprise, enterpriseID, logger.FieldPath, key, "size", storage.FormatSize(up.Size)))
	return &stored, nil
}

// Documents lists the documents attached to an enterprise, newest first.
func (s *Service) Documents(ctx context.Context, enterpriseID string) ([]Document, error) {
	env := idempotent(ctx, s, func(ctx context.Context) apiclient.Envelope[[]Document] {
		return apiclient.Get[[]Document](ctx, s.api,
			tableDocuments+"?select=*&order=created_at.desc&enterprise_id=eq."+url.QueryEscape(enterpriseID))
	})
	if !env.Success {
		return nil, env.Err()
	}
	return env.Value(), nil
}
