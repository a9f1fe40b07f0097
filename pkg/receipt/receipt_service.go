package receipt

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"nomorewaste/domain"
	"nomorewaste/entities"
	"nomorewaste/internal/utils/storage"
	"nomorewaste/pkg/ids"
)

type (
	// FridgeResolver finds the household a member belongs to.
	FridgeResolver interface {
		FridgeIDFor(ctx context.Context, userID string) (string, error)
	}

	ReceiptService interface {
		ExtractReceipt(ctx context.Context, userID string, image []byte) (domain.ExtractReceiptResponse, error)
	}

	receiptService struct {
		receiptRepository ReceiptRepository
		members           FridgeResolver
		extractor         Extractor
		s3                storage.AwsS3
		maxWidth          int
		quality           int
		now               func() time.Time
	}
)

// NewReceiptService wires server-side extraction. s3 may be nil to skip archiving.
func NewReceiptService(receiptRepository ReceiptRepository, members FridgeResolver, extractor Extractor, s3 storage.AwsS3, maxWidth, quality int) ReceiptService {
	return &receiptService{
		receiptRepository: receiptRepository,
		members:           members,
		extractor:         extractor,
		s3:                s3,
		maxWidth:          maxWidth,
		quality:           quality,
		now:               time.Now,
	}
}

func (s *receiptService) ExtractReceipt(ctx context.Context, userID string, image []byte) (domain.ExtractReceiptResponse, error) {
	fridgeID, err := s.members.FridgeIDFor(ctx, userID)
	if err != nil {
		return domain.ExtractReceiptResponse{}, err
	}
	if s.extractor == nil {
		return domain.ExtractReceiptResponse{}, fmt.Errorf("%w: no extraction provider configured", domain.ErrExtractionFailed)
	}

	start := time.Now()
	scaled, err := Downscale(image, s.maxWidth, s.quality)
	if err != nil {
		extractionDuration.WithLabelValues("invalid_image").Observe(time.Since(start).Seconds())
		return domain.ExtractReceiptResponse{}, err
	}

	scan := &entities.ReceiptScan{
		FridgeID: fridgeID,
		UserID:   userID,
		Status:   entities.ScanPending,
	}
	if err := s.receiptRepository.CreateReceiptScan(ctx, scan); err != nil {
		return domain.ExtractReceiptResponse{}, err
	}

	if s.s3 != nil {
		key := fmt.Sprintf("receipts/%s/%s.jpg", fridgeID, ids.NewULID(start))
		if _, err := s.s3.UploadBytes(ctx, key, scaled, "image/jpeg"); err != nil {
			log.Warnf("receipt: archive scan %s: %v", scan.ID, err)
		} else {
			scan.ImageKey = key
		}
	}

	drafts, err := s.extractDrafts(ctx, scaled)
	if err != nil {
		extractionDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
		scan.Status = entities.ScanFailed
		scan.Error = err.Error()
		if uerr := s.receiptRepository.UpdateReceiptScan(context.WithoutCancel(ctx), scan); uerr != nil {
			log.Errorf("receipt: update scan %s: %v", scan.ID, uerr)
		}
		return domain.ExtractReceiptResponse{}, err
	}
	extractionDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	draftsExtracted.Add(float64(len(drafts)))

	scan.Status = entities.ScanProcessed
	scan.ItemCount = len(drafts)
	if err := s.receiptRepository.UpdateReceiptScan(ctx, scan); err != nil {
		log.Errorf("receipt: update scan %s: %v", scan.ID, err)
	}

	return domain.ExtractReceiptResponse{ScanID: scan.ID, Items: drafts}, nil
}

func (s *receiptService) extractDrafts(ctx context.Context, scaled []byte) ([]domain.DraftItem, error) {
	payload, err := s.extractor.Extract(ctx, scaled, s.now())
	if err != nil {
		return nil, err
	}
	return ParseDrafts(payload, ids.NewTemp)
}
