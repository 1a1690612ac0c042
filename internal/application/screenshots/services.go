package screenshots

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/spamshot/internal/application"
	ocrapp "github.com/bryanwahyu/spamshot/internal/application/ocr"
	"github.com/bryanwahyu/spamshot/internal/domain/analysis"
	domain "github.com/bryanwahyu/spamshot/internal/domain/screenshots"
	"github.com/bryanwahyu/spamshot/internal/infra/imageproc"
)

// TextExtractor runs OCR over the original and compressed buffers.
type TextExtractor interface {
	Extract(ctx context.Context, original, compressed []byte) ocrapp.Result
}

// Service implements use-cases untuk AnalyzedScreenshot
// Service is safe for concurrent use.
type Service struct {
	Repo        domain.Repository
	Blobs       domain.BlobStore
	OCR         TextExtractor
	Events      domain.Broadcaster
	Clock       application.Clock
	Compression imageproc.Options
	Log         zerolog.Logger
}

//
// ==== USE CASES ====
//

// UploadCommand is one screenshot submission.
type UploadCommand struct {
	Owner       domain.Owner
	Image       []byte
	ToNumber    string
	Carrier     string
	SubmittedAt time.Time // zero means now
}

// UploadResult carries the stored record plus OCR diagnostics.
type UploadResult struct {
	Screenshot *domain.Screenshot
	RawText    string
	Normalized string
	OCR        ocrapp.Result
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

// Upload compresses the image, stores it, runs OCR and classification,
// persists the record and announces it. OCR problems only degrade the
// verdict; blob and store failures abort the request.
func (s *Service) Upload(ctx context.Context, cmd UploadCommand) (UploadResult, error) {
	if strings.TrimSpace(cmd.Owner.UserID) == "" {
		return UploadResult{}, domain.ErrMissingOwner
	}
	if strings.TrimSpace(cmd.Owner.Email) == "" || strings.TrimSpace(cmd.Owner.Name) == "" {
		return UploadResult{}, domain.ErrMissingProfile
	}
	if len(cmd.Image) == 0 {
		return UploadResult{}, domain.ErrNoFile
	}

	now := s.now()
	compressed, err := imageproc.Compress(cmd.Image, s.Compression)
	if err != nil {
		if errors.Is(err, imageproc.ErrUndecodable) {
			return UploadResult{}, domain.ErrInvalidImage
		}
		return UploadResult{}, fmt.Errorf("%w: compress: %v", domain.ErrUpstream, err)
	}

	id := uuid.NewString()
	key := fmt.Sprintf("screenshots/%s/%s/%s%s", cmd.Owner.UserID, now.Format("2006-01-02"), id, extension(compressed))

	// the upload does not depend on OCR, run them side by side
	var g errgroup.Group
	var imageURL string
	g.Go(func() error {
		url, err := s.Blobs.Put(ctx, key, compressed, http.DetectContentType(compressed))
		if err != nil {
			return fmt.Errorf("%w: blob upload: %v", domain.ErrUpstream, err)
		}
		imageURL = url
		return nil
	})

	var res ocrapp.Result
	if s.OCR != nil {
		res = s.OCR.Extract(ctx, cmd.Image, compressed)
	}
	if err := g.Wait(); err != nil {
		return UploadResult{}, err
	}

	submitted := cmd.SubmittedAt
	if submitted.IsZero() {
		submitted = now
	}
	rec := &domain.Screenshot{
		ID:              domain.ID(id),
		Owner:           cmd.Owner,
		ImageURL:        imageURL,
		ExtractedNumber: analysis.ExtractPhone(res.Text),
		SubmittedAt:     submitted.UTC(),
		ToNumber:        orUnknown(cmd.ToNumber),
		Carrier:         orUnknown(cmd.Carrier),
		IsSpam:          analysis.IsSpam(res.Text),
		AnalyzedAt:      now,
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		return UploadResult{}, persistence(err)
	}

	s.Log.Info().
		Str("id", id).
		Str("user_id", cmd.Owner.UserID).
		Bool("is_spam", rec.IsSpam).
		Int("ocr_length", len(res.Text)).
		Int("ocr_attempts", len(res.Attempts)).
		Int("bytes_in", len(cmd.Image)).
		Int("bytes_stored", len(compressed)).
		Msg("screenshot analyzed")

	s.publish(ctx, domain.EventNew, rec)
	return UploadResult{
		Screenshot: rec,
		RawText:    res.Text,
		Normalized: analysis.Normalize(res.Text),
		OCR:        res,
	}, nil
}

func (s *Service) Get(ctx context.Context, id domain.ID) (*domain.Screenshot, error) {
	rec, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, persistence(err)
	}
	return rec, nil
}

// ListActive returns every non-deleted record, newest first.
func (s *Service) ListActive(ctx context.Context) ([]*domain.Screenshot, error) {
	list, err := s.Repo.List(ctx, domain.Query{})
	return list, persistence(err)
}

// ListByOwner pages through one owner's active records. The page and the
// total are read concurrently.
func (s *Service) ListByOwner(ctx context.Context, ownerID string, page, limit int) (domain.Page, error) {
	if strings.TrimSpace(ownerID) == "" {
		return domain.Page{}, domain.ErrMissingOwner
	}
	page = max(page, 1)
	limit = max(limit, 1)

	q := domain.Query{OwnerUserID: ownerID, Limit: limit, Offset: (page - 1) * limit}
	out := domain.Page{Page: page, Limit: limit}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.Repo.List(gctx, q)
		out.Data = list
		return err
	})
	g.Go(func() error {
		n, err := s.Repo.Count(gctx, q)
		out.Total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Page{}, persistence(err)
	}
	return out, nil
}

func (s *Service) ListByEmail(ctx context.Context, email string) ([]*domain.Screenshot, error) {
	if strings.TrimSpace(email) == "" {
		return nil, domain.ErrMissingEmail
	}
	list, err := s.Repo.List(ctx, domain.Query{OwnerEmail: email})
	return list, persistence(err)
}

func (s *Service) ListByName(ctx context.Context, name string) ([]*domain.Screenshot, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrMissingName
	}
	list, err := s.Repo.List(ctx, domain.Query{OwnerName: name})
	return list, persistence(err)
}

// RecentlyDeleted lists soft-deleted records, most recently deleted first.
func (s *Service) RecentlyDeleted(ctx context.Context) ([]*domain.Screenshot, error) {
	list, err := s.Repo.List(ctx, domain.Query{Deleted: true, Sort: domain.SortDeleted})
	return list, persistence(err)
}

// SoftDelete hides a record from default listings. Repeating it refreshes deletedAt.
func (s *Service) SoftDelete(ctx context.Context, id domain.ID) (*domain.Screenshot, error) {
	patch := &domain.Screenshot{ID: id}
	patch.MarkDeleted(s.now())
	rec, err := s.Repo.SetDeleted(ctx, patch)
	if err != nil {
		return nil, persistence(err)
	}
	s.publish(ctx, domain.EventSoftDeleted, rec)
	return rec, nil
}

// Restore brings a record back. Restoring an active record is a no-op.
func (s *Service) Restore(ctx context.Context, id domain.ID) (*domain.Screenshot, error) {
	patch := &domain.Screenshot{ID: id}
	patch.Restore()
	rec, err := s.Repo.SetDeleted(ctx, patch)
	if err != nil {
		return nil, persistence(err)
	}
	s.publish(ctx, domain.EventRestored, rec)
	return rec, nil
}

// PermanentDelete destroys a record, active or soft-deleted. Irreversible.
func (s *Service) PermanentDelete(ctx context.Context, id domain.ID) (*domain.Screenshot, error) {
	rec, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return nil, persistence(err)
	}
	s.publish(ctx, domain.EventPermanentDelete, rec)
	return rec, nil
}

// publish never fails the caller: errors and panics from the broadcaster
// are logged and dropped.
func (s *Service) publish(ctx context.Context, kind domain.EventKind, rec *domain.Screenshot) {
	if s.Events == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.Log.Error().Interface("panic", r).Str("event", string(kind)).Msg("broadcast panicked")
		}
	}()
	if err := s.Events.Publish(context.WithoutCancel(ctx), kind, domain.Shape(rec)); err != nil {
		s.Log.Warn().Err(err).Str("event", string(kind)).Str("id", string(rec.ID)).Msg("broadcast failed")
	}
}

// persistence tags store errors that are not already classified.
func persistence(err error) error {
	if err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrPersistence) ||
		errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrUnauthorized) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return domain.Unknown
	}
	return s
}

func extension(b []byte) string {
	switch http.DetectContentType(b) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	}
	return ""
}
