package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/fotoescola/api/internal/domain"
	pfirestore "github.com/fotoescola/api/internal/platform/firestore"
	"github.com/fotoescola/api/internal/repositories"
)

const (
	orderCollection      = "orders"
	orderItemCollection  = "items"
	defaultOrderPageSize = 50
	maxOrderPageSize     = 200
)

// OrderRepository persists order aggregates and their line items within Firestore.
type OrderRepository struct {
	base     *pfirestore.BaseRepository[orderDocument]
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil, nil)
	return &OrderRepository{base: base, provider: provider}, nil
}

// Insert stores a new order document.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, newOrderDocument(order)); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

// FindByID loads one order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID)
}

// FindByIdempotencyKey resolves the order created by a previous submission
// carrying the same idempotency key.
func (r *OrderRepository) FindByIdempotencyKey(ctx context.Context, key string) (domain.Order, error) {
	return r.findOneByField(ctx, "idempotencyKey", strings.TrimSpace(key), "orders.findByIdempotencyKey")
}

// FindByPaymentID resolves the order referenced by a provider payment id.
func (r *OrderRepository) FindByPaymentID(ctx context.Context, paymentID string) (domain.Order, error) {
	return r.findOneByField(ctx, "paymentId", strings.TrimSpace(paymentID), "orders.findByPaymentId")
}

func (r *OrderRepository) findOneByField(ctx context.Context, field, value, op string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	if value == "" {
		return domain.Order{}, pfirestore.WrapError(op, status.Error(codes.NotFound, "order not found"))
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where(field, "==", value).Limit(1)
	})
	if err != nil {
		return domain.Order{}, err
	}
	if len(docs) == 0 {
		return domain.Order{}, pfirestore.WrapError(op, status.Error(codes.NotFound, "order not found"))
	}
	return docs[0].Data.toDomain(docs[0].ID)
}

// InsertItems writes all line items for one order inside a single transaction.
func (r *OrderRepository) InsertItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if r == nil || r.base == nil || r.provider == nil {
		return errors.New("order repository not initialised")
	}
	oid := strings.TrimSpace(orderID)
	if oid == "" {
		return errors.New("order repository: order id is required")
	}
	if len(items) == 0 {
		return errors.New("order repository: at least one item is required")
	}

	orderRef, err := r.base.DocumentRef(ctx, oid)
	if err != nil {
		return err
	}

	txErr := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, item := range items {
			itemID := strings.TrimSpace(item.ID)
			if itemID == "" {
				return errors.New("order repository: item id is required")
			}
			itemRef := orderRef.Collection(orderItemCollection).Doc(itemID)
			if err := tx.Create(itemRef, newOrderItemDocument(item)); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return pfirestore.WrapError("orders.insertItems", txErr)
	}
	return nil
}

// ListItems returns the line items of one order.
func (r *OrderRepository) ListItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	oid := strings.TrimSpace(orderID)
	if oid == "" {
		return nil, errors.New("order repository: order id is required")
	}
	orderRef, err := r.base.DocumentRef(ctx, oid)
	if err != nil {
		return nil, err
	}

	snaps, err := orderRef.Collection(orderItemCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, pfirestore.WrapError("orders.listItems", err)
	}

	out := make([]domain.OrderItem, 0, len(snaps))
	for _, snap := range snaps {
		var doc orderItemDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, pfirestore.WrapError("orders.listItems", err)
		}
		item, err := doc.toDomain(snap.Ref.ID, oid)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// UpdateStatus mutates status fields inside a transaction and returns the updated order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, update repositories.OrderStatusUpdate) (domain.Order, error) {
	if r == nil || r.base == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	oid := strings.TrimSpace(orderID)
	if oid == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	ref, err := r.base.DocumentRef(ctx, oid)
	if err != nil {
		return domain.Order{}, err
	}

	var result domain.Order
	txErr := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return err
		}

		updatedAt := update.UpdatedAt.UTC()
		if updatedAt.IsZero() {
			updatedAt = time.Now().UTC()
		}
		updates := []firestore.Update{{Path: "updatedAt", Value: updatedAt}}
		doc.UpdatedAt = updatedAt

		if update.PaymentStatus != nil {
			doc.PaymentStatus = string(*update.PaymentStatus)
			updates = append(updates, firestore.Update{Path: "paymentStatus", Value: doc.PaymentStatus})
		}
		if update.Status != nil {
			doc.Status = string(*update.Status)
			updates = append(updates, firestore.Update{Path: "status", Value: doc.Status})
		}
		if update.PaymentID != nil {
			doc.PaymentID = strings.TrimSpace(*update.PaymentID)
			updates = append(updates, firestore.Update{Path: "paymentId", Value: doc.PaymentID})
		}

		if err := tx.Update(ref, updates); err != nil {
			return err
		}

		order, err := doc.toDomain(oid)
		if err != nil {
			return err
		}
		result = order
		return nil
	})
	if txErr != nil {
		return domain.Order{}, pfirestore.WrapError("orders.updateStatus", txErr)
	}
	return result, nil
}

// List returns a page of orders, newest first, honouring the optional filter.
func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter, pager domain.Pagination) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}

	pageSize := pager.PageSize
	if pageSize <= 0 {
		pageSize = defaultOrderPageSize
	}
	if pageSize > maxOrderPageSize {
		pageSize = maxOrderPageSize
	}

	var startAfter *firestore.DocumentSnapshot
	if token := strings.TrimSpace(pager.PageToken); token != "" {
		ref, err := r.base.DocumentRef(ctx, token)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, err
		}
		snap, err := ref.Get(ctx)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, pfirestore.WrapError("orders.list", err)
		}
		startAfter = snap
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.Status != "" {
			q = q.Where("status", "==", string(filter.Status))
		}
		if filter.PaymentStatus != "" {
			q = q.Where("paymentStatus", "==", string(filter.PaymentStatus))
		}
		if sid := strings.TrimSpace(filter.StudentID); sid != "" {
			q = q.Where("studentId", "==", sid)
		}
		q = q.OrderBy("createdAt", firestore.Desc)
		if startAfter != nil {
			q = q.StartAfter(startAfter)
		}
		return q.Limit(pageSize)
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	page := domain.CursorPage[domain.Order]{Items: make([]domain.Order, 0, len(docs))}
	for _, doc := range docs {
		order, err := doc.Data.toDomain(doc.ID)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, err
		}
		page.Items = append(page.Items, order)
	}
	if len(docs) == pageSize {
		page.NextPageToken = docs[len(docs)-1].ID
	}
	return page, nil
}

type orderDocument struct {
	StudentID        string    `firestore:"studentId"`
	ShippingMethodID string    `firestore:"shippingMethodId"`
	Name             string    `firestore:"name"`
	Phone            string    `firestore:"phone,omitempty"`
	Address          string    `firestore:"address,omitempty"`
	PostalCode       string    `firestore:"postalCode,omitempty"`
	City             string    `firestore:"city,omitempty"`
	Email            string    `firestore:"email"`
	PaymentMethod    string    `firestore:"paymentMethod"`
	PaymentStatus    string    `firestore:"paymentStatus"`
	Status           string    `firestore:"status"`
	TotalAmount      string    `firestore:"totalAmount"`
	ShippingPrice    string    `firestore:"shippingPrice"`
	PaymentID        string    `firestore:"paymentId,omitempty"`
	IdempotencyKey   string    `firestore:"idempotencyKey,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt"`
	UpdatedAt        time.Time `firestore:"updatedAt"`
}

func newOrderDocument(order domain.Order) orderDocument {
	return orderDocument{
		StudentID:        strings.TrimSpace(order.StudentID),
		ShippingMethodID: strings.TrimSpace(order.ShippingMethodID),
		Name:             strings.TrimSpace(order.Shipping.Name),
		Phone:            strings.TrimSpace(order.Shipping.Phone),
		Address:          strings.TrimSpace(order.Shipping.Address),
		PostalCode:       strings.TrimSpace(order.Shipping.PostalCode),
		City:             strings.TrimSpace(order.Shipping.City),
		Email:            strings.TrimSpace(order.Email),
		PaymentMethod:    string(order.PaymentMethod),
		PaymentStatus:    string(order.PaymentStatus),
		Status:           string(order.Status),
		TotalAmount:      encodeAmount(order.TotalAmount),
		ShippingPrice:    encodeAmount(order.ShippingPrice),
		PaymentID:        strings.TrimSpace(order.PaymentID),
		IdempotencyKey:   strings.TrimSpace(order.IdempotencyKey),
		CreatedAt:        order.CreatedAt.UTC(),
		UpdatedAt:        order.UpdatedAt.UTC(),
	}
}

func (d orderDocument) toDomain(id string) (domain.Order, error) {
	total, err := decodeAmount("order total", d.TotalAmount)
	if err != nil {
		return domain.Order{}, err
	}
	shipping, err := decodeAmount("order shipping", d.ShippingPrice)
	if err != nil {
		return domain.Order{}, err
	}
	return domain.Order{
		ID:               id,
		StudentID:        d.StudentID,
		ShippingMethodID: d.ShippingMethodID,
		Shipping: domain.ShippingDetails{
			Name:       d.Name,
			Phone:      d.Phone,
			Address:    d.Address,
			PostalCode: d.PostalCode,
			City:       d.City,
		},
		Email:          d.Email,
		PaymentMethod:  domain.PaymentMethod(d.PaymentMethod),
		PaymentStatus:  domain.PaymentStatus(d.PaymentStatus),
		Status:         domain.OrderStatus(d.Status),
		TotalAmount:    total,
		ShippingPrice:  shipping,
		PaymentID:      d.PaymentID,
		IdempotencyKey: d.IdempotencyKey,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}, nil
}

type orderItemDocument struct {
	PhotoID     string `firestore:"photoId"`
	ProductID   string `firestore:"productId"`
	PriceAtTime string `firestore:"priceAtTime"`
	Quantity    int    `firestore:"quantity"`
}

func newOrderItemDocument(item domain.OrderItem) orderItemDocument {
	quantity := item.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	return orderItemDocument{
		PhotoID:     strings.TrimSpace(item.PhotoID),
		ProductID:   strings.TrimSpace(item.ProductID),
		PriceAtTime: encodeAmount(item.PriceAtTime),
		Quantity:    quantity,
	}
}

func (d orderItemDocument) toDomain(id, orderID string) (domain.OrderItem, error) {
	price, err := decodeAmount("order item", d.PriceAtTime)
	if err != nil {
		return domain.OrderItem{}, err
	}
	return domain.OrderItem{
		ID:          id,
		OrderID:     orderID,
		PhotoID:     d.PhotoID,
		ProductID:   d.ProductID,
		PriceAtTime: price,
		Quantity:    d.Quantity,
	}, nil
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
