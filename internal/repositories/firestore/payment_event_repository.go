package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/fotoescola/api/internal/domain"
	pfirestore "github.com/fotoescola/api/internal/platform/firestore"
	"github.com/fotoescola/api/internal/repositories"
)

const paymentEventCollection = "paymentEvents"

// PaymentEventRepository stores processed webhook deliveries so redeliveries
// can be detected and their side effects suppressed.
type PaymentEventRepository struct {
	base     *pfirestore.BaseRepository[paymentEventDocument]
	provider *pfirestore.Provider
}

// NewPaymentEventRepository constructs a Firestore-backed payment event repository.
func NewPaymentEventRepository(provider *pfirestore.Provider) (*PaymentEventRepository, error) {
	if provider == nil {
		return nil, errors.New("payment event repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[paymentEventDocument](provider, paymentEventCollection, nil, nil)
	return &PaymentEventRepository{base: base, provider: provider}, nil
}

// Record stores the event keyed by provider and transaction id unless one
// already exists. It reports whether this delivery was the first.
func (r *PaymentEventRepository) Record(ctx context.Context, event domain.PaymentEvent) (bool, error) {
	if r == nil || r.base == nil || r.provider == nil {
		return false, errors.New("payment event repository not initialised")
	}
	id, err := paymentEventID(event.Provider, event.TransactionID)
	if err != nil {
		return false, err
	}

	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return false, err
	}

	first := false
	txErr := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		switch {
		case err == nil && snap.Exists():
			first = false
			return nil
		case err != nil && status.Code(err) != codes.NotFound:
			return err
		}
		first = true
		return tx.Create(ref, newPaymentEventDocument(event))
	})
	if txErr != nil {
		return false, pfirestore.WrapError("paymentEvents.record", txErr)
	}
	return first, nil
}

// FindByTransaction loads the event recorded for one provider transaction.
func (r *PaymentEventRepository) FindByTransaction(ctx context.Context, provider, transactionID string) (domain.PaymentEvent, error) {
	if r == nil || r.base == nil {
		return domain.PaymentEvent{}, errors.New("payment event repository not initialised")
	}
	id, err := paymentEventID(provider, transactionID)
	if err != nil {
		return domain.PaymentEvent{}, err
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.PaymentEvent{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// paymentEventID derives the document id from the provider name and the
// provider-issued transaction id, so redeliveries collide on the same key.
func paymentEventID(provider, transactionID string) (string, error) {
	p := strings.TrimSpace(provider)
	tx := strings.TrimSpace(transactionID)
	if p == "" || tx == "" {
		return "", errors.New("payment event repository: provider and transaction id are required")
	}
	return fmt.Sprintf("%s_%s", p, tx), nil
}

type paymentEventDocument struct {
	Provider      string    `firestore:"provider"`
	TransactionID string    `firestore:"transactionId"`
	OrderID       string    `firestore:"orderId"`
	Outcome       string    `firestore:"outcome"`
	ReceivedAt    time.Time `firestore:"receivedAt"`
}

func newPaymentEventDocument(event domain.PaymentEvent) paymentEventDocument {
	return paymentEventDocument{
		Provider:      strings.TrimSpace(event.Provider),
		TransactionID: strings.TrimSpace(event.TransactionID),
		OrderID:       strings.TrimSpace(event.OrderID),
		Outcome:       string(event.Outcome),
		ReceivedAt:    event.ReceivedAt.UTC(),
	}
}

func (d paymentEventDocument) toDomain(id string) domain.PaymentEvent {
	return domain.PaymentEvent{
		ID:            id,
		Provider:      d.Provider,
		TransactionID: d.TransactionID,
		OrderID:       d.OrderID,
		Outcome:       domain.PaymentStatus(d.Outcome),
		ReceivedAt:    d.ReceivedAt,
	}
}

var _ repositories.PaymentEventRepository = (*PaymentEventRepository)(nil)
