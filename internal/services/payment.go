package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/openconf/apiserver/internal/storage"
	"github.com/openconf/apiserver/types"
)

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	Get(ctx context.Context, id int) (types.Payment, error)
	ListByUser(ctx context.Context, userID int) ([]types.Payment, error)
	List(ctx context.Context, status string, offset, limit int) ([]types.Payment, int, error)
	Create(ctx context.Context, payment types.Payment) (types.Payment, error)
	Verify(ctx context.Context, id int, status, note string, verifiedBy int) (types.Payment, error)
}

// PaymentService encapsulates payment-verification use-cases.
type PaymentService struct {
	repo    PaymentRepository
	storage *storage.Storage
}

func NewPaymentService(repo PaymentRepository, store *storage.Storage) *PaymentService {
	return &PaymentService{repo: repo, storage: store}
}

func (s *PaymentService) Get(ctx context.Context, id int) (types.Payment, error) {
	return s.repo.Get(ctx, id)
}

func (s *PaymentService) ListByUser(ctx context.Context, userID int) ([]types.Payment, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *PaymentService) List(ctx context.Context, status string, offset, limit int) ([]types.Payment, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, status, offset, limit)
}

// Submit uploads the receipt to object storage, then records the
// payment proof with status pending.
func (s *PaymentService) Submit(ctx context.Context, userID int, reference string, amountCents int64, receiptName string, data []byte) (types.Payment, error) {
	key := fmt.Sprintf("receipts/%s%s", uuid.NewString(), path.Ext(receiptName))
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/octet-stream"); err != nil {
		return types.Payment{}, fmt.Errorf("upload receipt: %w", err)
	}

	payment := types.Payment{
		UserID:      userID,
		Reference:   reference,
		AmountCents: amountCents,
		ReceiptKey:  key,
		ReceiptName: receiptName,
	}
	created, err := s.repo.Create(ctx, payment)
	if err != nil {
		_ = s.storage.Delete(ctx, key)
		return types.Payment{}, err
	}
	return created, nil
}

// Verify records an admin decision on a pending payment.
func (s *PaymentService) Verify(ctx context.Context, id int, status, note string, verifiedBy int) (types.Payment, error) {
	return s.repo.Verify(ctx, id, status, note, verifiedBy)
}

// OpenReceipt streams the stored receipt.
func (s *PaymentService) OpenReceipt(ctx context.Context, payment types.Payment) (io.ReadCloser, error) {
	return s.storage.Get(ctx, payment.ReceiptKey)
}
