package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tamweel-auto/waitlist/internal/analysis"
	"github.com/tamweel-auto/waitlist/internal/i18n"
	"github.com/tamweel-auto/waitlist/internal/logging"
	"github.com/tamweel-auto/waitlist/internal/notification"
	"github.com/tamweel-auto/waitlist/internal/rasterizer"
	"github.com/tamweel-auto/waitlist/internal/storage"
)

// Progress milestones. The fallback resumes above the primary path's last
// milestone so progress never moves backwards.
const (
	progressStored     = 30
	progressProcessing = 50
	progressSigned     = 70
	progressFallback   = 80
)

// Rasterizer renders PDF pages to images.
type Rasterizer interface {
	Convert(ctx context.Context, data []byte, maxPages int, progress func(int)) (rasterizer.Result, error)
}

// Settings bounds the pipeline.
type Settings struct {
	MaxFileBytes int64
	MaxPages     int
	SignedURLTTL time.Duration
}

// Dependencies are the collaborators an Orchestrator drives.
type Dependencies struct {
	Tracker    *Tracker
	Store      storage.BlobStore
	Repo       Repository
	Analyzer   analysis.Analyzer
	Rasterizer Rasterizer
	Notifier   notification.Notifier
	Catalog    *i18n.Catalog
	Logger     *slog.Logger
}

// Orchestrator moves each upload from storage through analysis to a
// terminal state, falling back to page images for PDFs without a readable
// text layer.
type Orchestrator struct {
	Dependencies
	settings Settings
	wg       sync.WaitGroup
}

// NewOrchestrator wires an orchestrator. Zero settings take the defaults of
// 10MB, 3 pages and one hour.
func NewOrchestrator(deps Dependencies, settings Settings) *Orchestrator {
	if settings.MaxFileBytes <= 0 {
		settings.MaxFileBytes = 10 << 20
	}
	if settings.MaxPages <= 0 {
		settings.MaxPages = 3
	}
	if settings.SignedURLTTL <= 0 {
		settings.SignedURLTTL = time.Hour
	}
	if deps.Tracker == nil {
		deps.Tracker = NewTracker(0)
	}
	if deps.Catalog == nil {
		deps.Catalog = i18n.NewCatalog(deps.Logger)
	}
	return &Orchestrator{Dependencies: deps, settings: settings}
}

// Begin validates the input and registers a fresh upload in the uploading
// state. Run must be called to drive it.
func (o *Orchestrator) Begin(file File, docType analysis.DocumentType) (Upload, error) {
	if len(file.Data) == 0 {
		return Upload{}, ErrEmptyFile
	}
	if !docType.Valid() {
		return Upload{}, ErrInvalidDocumentType
	}
	if file.Locale == "" {
		file.Locale = i18n.DefaultLocale
	}
	u := Upload{
		ID:        uuid.NewString(),
		FileName:  file.Name,
		FileSize:  int64(len(file.Data)),
		Extension: extensionOf(file),
		Type:      docType,
		Status:    StatusUploading,
		Locale:    file.Locale,
	}
	if err := o.Tracker.Add(u); err != nil {
		return Upload{}, err
	}
	snapshot, _ := o.Tracker.Get(u.ID)
	return snapshot, nil
}

// Upload runs the whole pipeline synchronously.
func (o *Orchestrator) Upload(ctx context.Context, file File, docType analysis.DocumentType) (Upload, error) {
	u, err := o.Begin(file, docType)
	if err != nil {
		return Upload{}, err
	}
	return o.Run(ctx, u.ID, file), nil
}

// Start runs the pipeline for a begun upload in the background.
func (o *Orchestrator) Start(ctx context.Context, id string, file File) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.Run(ctx, id, file)
	}()
}

// Wait blocks until background runs finish or ctx expires.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get returns the tracked state of an upload.
func (o *Orchestrator) Get(id string) (Upload, bool) {
	return o.Tracker.Get(id)
}

// List returns every tracked upload, oldest first.
func (o *Orchestrator) List() []Upload {
	return o.Tracker.List()
}

// Remove discards local tracking for id. The stored blob and the tracking
// row are left in place.
func (o *Orchestrator) Remove(id string) bool {
	return o.Tracker.Remove(id)
}

type run struct {
	id      string
	file    File
	docType analysis.DocumentType
	pdf     bool
	path    string
	row     bool
	log     *slog.Logger
}

// Run drives a begun upload to completed or failed and returns the final
// snapshot. Steps keep going after the upload is removed; their tracker
// updates are dropped.
func (o *Orchestrator) Run(ctx context.Context, id string, file File) Upload {
	u, ok := o.Tracker.Get(id)
	if !ok {
		return Upload{ID: id}
	}
	r := &run{
		id:      id,
		file:    file,
		docType: u.Type,
		pdf:     isPDF(file, u.Extension),
		log: logging.FromContext(ctx, o.Logger).With(
			slog.String("upload_id", id),
			slog.String("document_type", string(u.Type)),
		),
	}
	if file.Locale == "" {
		r.file.Locale = u.Locale
	}

	if int64(len(file.Data)) > o.settings.MaxFileBytes {
		r.log.Warn("upload rejected: file too large", slog.Int64("size", int64(len(file.Data))))
		return o.fail(ctx, r, analysis.ErrorServer, i18n.UploadErrorTooLarge, nil)
	}

	r.path = objectPath(id, u.Type, u.Extension)
	if _, err := o.Store.Put(ctx, r.path, file.Data, contentTypeOf(file, u.Extension)); err != nil {
		return o.fail(ctx, r, analysis.ErrorUpload, i18n.UploadErrorUpload, err)
	}
	o.update(r, func(u *Upload) { u.Progress = progressStored })

	now := time.Now().UTC()
	if err := o.Repo.Create(ctx, Record{
		ID:               id,
		FilePath:         r.path,
		FileName:         file.Name,
		DocumentType:     u.Type,
		ProcessingStatus: StatusUploading,
		CreatedAt:        now,
		UpdatedAt:        now,
	}); err != nil {
		return o.fail(ctx, r, analysis.ErrorUpload, i18n.UploadErrorUpload, err)
	}
	r.row = true

	o.update(r, func(u *Upload) {
		u.Status = StatusProcessing
		u.Progress = progressProcessing
	})
	o.persist(ctx, r, Record{ProcessingStatus: StatusProcessing})

	fileURL, err := o.Store.SignedURL(ctx, r.path, o.settings.SignedURLTTL)
	if err != nil {
		return o.fail(ctx, r, analysis.ErrorServer, i18n.UploadErrorServer, err)
	}
	o.update(r, func(u *Upload) { u.Progress = progressSigned })

	resp, err := o.Analyzer.Analyze(ctx, analysis.Request{
		DocumentID:   id,
		FileURL:      fileURL,
		DocumentType: u.Type,
	})
	if err == nil && resp.Success {
		method := analysis.MethodVisionAPI
		if r.pdf {
			method = analysis.MethodTextExtraction
		}
		if resp.ProcessingMethod != "" {
			method = resp.ProcessingMethod
		}
		return o.complete(ctx, r, resp, method)
	}

	kind, msg := classifyFailure(resp, err)
	r.log.Warn("primary analysis failed",
		slog.String("error_type", string(kind)),
		slog.String("message", msg),
		slog.Bool("pdf", r.pdf),
	)
	if kind == analysis.ErrorUnreadablePDF && r.pdf {
		return o.fallback(ctx, r)
	}
	return o.fail(ctx, r, kind, keyFor(kind), errors.New(msg))
}

func (o *Orchestrator) fallback(ctx context.Context, r *run) Upload {
	o.update(r, func(u *Upload) {
		u.Status = StatusConverting
		u.ConversionProgress = 0
	})
	o.persist(ctx, r, Record{ProcessingStatus: StatusConverting})

	result, err := o.Rasterizer.Convert(ctx, r.file.Data, o.settings.MaxPages, func(pct int) {
		o.update(r, func(u *Upload) { u.ConversionProgress = pct })
	})
	if err != nil {
		return o.fail(ctx, r, analysis.ErrorConversion, i18n.UploadErrorConversion, err)
	}
	r.log.Info("pdf rasterized",
		slog.Int("page_count", result.PageCount),
		slog.Int("pages_rendered", len(result.Images)),
	)

	o.update(r, func(u *Upload) {
		u.Status = StatusProcessing
		u.Progress = progressFallback
	})
	o.persist(ctx, r, Record{ProcessingStatus: StatusProcessing, ProcessingMethod: analysis.MethodPDFToImage})

	resp, err := o.Analyzer.Analyze(ctx, analysis.Request{
		DocumentID:       r.id,
		Images:           result.Images,
		DocumentType:     r.docType,
		ProcessingMethod: analysis.MethodPDFToImage,
	})
	if err != nil || !resp.Success {
		_, msg := classifyFailure(resp, err)
		return o.fail(ctx, r, analysis.ErrorConversion, i18n.UploadErrorConversion, errors.New(msg))
	}
	return o.complete(ctx, r, resp, analysis.MethodPDFToImage)
}

func (o *Orchestrator) complete(ctx context.Context, r *run, resp analysis.Response, method analysis.ProcessingMethod) Upload {
	final := o.update(r, func(u *Upload) {
		u.Status = StatusCompleted
		u.Progress = 100
		u.ExtractedData = resp.ExtractedData
		u.ConfidenceScore = resp.ConfidenceScore
		u.ProcessingMethod = method
	})
	confidence := resp.ConfidenceScore
	o.persist(ctx, r, Record{
		ProcessingStatus: StatusCompleted,
		ProcessingMethod: method,
		ConfidenceScore:  &confidence,
		ExtractedData:    resp.ExtractedData,
	})
	r.log.Info("document analysed",
		slog.String("processing_method", string(method)),
		slog.Float64("confidence", confidence),
	)

	key := i18n.UploadDoneText
	switch method {
	case analysis.MethodVisionAPI:
		key = i18n.UploadDoneVision
	case analysis.MethodPDFToImage:
		key = i18n.UploadDoneFallback
	}
	o.notify(ctx, r, notification.KindDocumentCompleted, key, key, map[string]string{
		"processing_method": string(method),
	})
	return final
}

func (o *Orchestrator) fail(ctx context.Context, r *run, kind analysis.ErrorType, key i18n.Key, cause error) Upload {
	message := o.Catalog.T(r.file.Locale, key)
	attrs := []any{slog.String("error_type", string(kind))}
	if cause != nil {
		attrs = append(attrs, slog.Any("error", cause))
	}
	r.log.Error("document upload failed", attrs...)

	final := o.update(r, func(u *Upload) {
		u.Status = StatusFailed
		u.Error = message
		u.ErrorType = kind
	})
	if r.row {
		errMsg := string(kind)
		if cause != nil {
			errMsg = fmt.Sprintf("%s: %v", kind, cause)
		}
		o.persist(ctx, r, Record{ProcessingStatus: StatusFailed, ErrorMessage: errMsg})
	}
	o.notify(ctx, r, notification.KindDocumentFailed, i18n.UploadFailed, key, map[string]string{
		"error_type": string(kind),
	})
	return final
}

// update applies fn to the tracked upload. Stale updates for removed uploads
// are dropped; the returned snapshot then reflects the change locally.
func (o *Orchestrator) update(r *run, fn func(*Upload)) Upload {
	snapshot, err := o.Tracker.Update(r.id, fn)
	switch {
	case err == nil:
		return snapshot
	case errors.Is(err, ErrUnknownUpload):
		r.log.Debug("dropping update for removed upload")
		local := Upload{ID: r.id, Type: r.docType}
		fn(&local)
		return local
	default:
		r.log.Error("rejected upload state change", slog.Any("error", err))
		return snapshot
	}
}

// persist mirrors state into the tracking row. Failures are logged only.
func (o *Orchestrator) persist(ctx context.Context, r *run, rec Record) {
	if !r.row {
		return
	}
	rec.ID = r.id
	rec.UpdatedAt = time.Now().UTC()
	if err := o.Repo.Update(ctx, rec); err != nil {
		r.log.Warn("update document row failed",
			slog.String("processing_status", string(rec.ProcessingStatus)),
			slog.Any("error", err),
		)
	}
}

func (o *Orchestrator) notify(ctx context.Context, r *run, kind string, subject, body i18n.Key, attrs map[string]string) {
	if o.Notifier == nil {
		return
	}
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrs["upload_id"] = r.id
	attrs["document_type"] = string(r.docType)
	msg := notification.Message{
		Kind:       kind,
		Locale:     string(r.file.Locale),
		Subject:    o.Catalog.T(r.file.Locale, subject),
		Body:       o.Catalog.T(r.file.Locale, body),
		Attributes: attrs,
	}
	if err := o.Notifier.Send(ctx, msg); err != nil {
		r.log.Warn("document notification failed", slog.Any("error", err))
	}
}

func classifyFailure(resp analysis.Response, err error) (analysis.ErrorType, string) {
	if err != nil {
		return analysis.Classify("", err.Error()), err.Error()
	}
	return analysis.Classify(string(resp.Error), resp.Message), resp.Message
}

func keyFor(kind analysis.ErrorType) i18n.Key {
	switch kind {
	case analysis.ErrorUpload:
		return i18n.UploadErrorUpload
	case analysis.ErrorUnreadablePDF:
		return i18n.UploadErrorUnreadablePDF
	case analysis.ErrorConversion:
		return i18n.UploadErrorConversion
	default:
		return i18n.UploadErrorServer
	}
}

func extensionOf(file File) string {
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Name)), "."); ext != "" {
		return ext
	}
	switch strings.ToLower(file.ContentType) {
	case "application/pdf":
		return "pdf"
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	}
	if bytes.HasPrefix(file.Data, []byte("%PDF-")) {
		return "pdf"
	}
	return "bin"
}

func isPDF(file File, ext string) bool {
	return ext == "pdf" ||
		strings.EqualFold(file.ContentType, "application/pdf") ||
		bytes.HasPrefix(file.Data, []byte("%PDF-"))
}

func contentTypeOf(file File, ext string) string {
	if file.ContentType != "" {
		return file.ContentType
	}
	switch ext {
	case "pdf":
		return "application/pdf"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	}
	return "application/octet-stream"
}

func objectPath(id string, docType analysis.DocumentType, ext string) string {
	return fmt.Sprintf("%s/%s/%s.%s", docType, time.Now().UTC().Format("2006/01/02"), id, ext)
}
