package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/services"
)

// Amounts cross the wire as fixed two-decimal strings so clients never see
// binary floating point artefacts.
func amountString(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func timestampString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

type studentPayload struct {
	ID      string `json:"id"`
	ClassID string `json:"classId,omitempty"`
	Name    string `json:"name"`
}

func studentToPayload(s domain.Student) studentPayload {
	return studentPayload{ID: s.ID, ClassID: s.ClassID, Name: s.Name}
}

type adminStudentPayload struct {
	ID         string `json:"id"`
	ClassID    string `json:"classId"`
	Name       string `json:"name"`
	AccessCode string `json:"accessCode"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

func studentToAdminPayload(s domain.Student) adminStudentPayload {
	return adminStudentPayload{
		ID:         s.ID,
		ClassID:    s.ClassID,
		Name:       s.Name,
		AccessCode: s.AccessCode,
		CreatedAt:  timestampString(s.CreatedAt),
		UpdatedAt:  timestampString(s.UpdatedAt),
	}
}

type photoPayload struct {
	ID        string `json:"id"`
	StudentID string `json:"studentId"`
	URL       string `json:"url"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func photoToPayload(p domain.Photo) photoPayload {
	return photoPayload{ID: p.ID, StudentID: p.StudentID, URL: p.URL, CreatedAt: timestampString(p.CreatedAt)}
}

type productPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Price       string `json:"price"`
	Active      bool   `json:"active"`
}

func productToPayload(p domain.Product) productPayload {
	return productPayload{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Price:       amountString(p.Price),
		Active:      p.Active,
	}
}

type shippingMethodPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Type  string `json:"type"`
}

func shippingMethodToPayload(m domain.ShippingMethod) shippingMethodPayload {
	return shippingMethodPayload{
		ID:    m.ID,
		Name:  m.Name,
		Price: amountString(m.Price),
		Type:  string(m.Type),
	}
}

type shippingDetailsPayload struct {
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	City       string `json:"city,omitempty"`
}

type orderPayload struct {
	ID               string                 `json:"id"`
	StudentID        string                 `json:"studentId"`
	ShippingMethodID string                 `json:"shippingMethodId"`
	Shipping         shippingDetailsPayload `json:"shipping"`
	Email            string                 `json:"email"`
	PaymentMethod    string                 `json:"paymentMethod"`
	PaymentStatus    string                 `json:"paymentStatus"`
	Status           string                 `json:"status"`
	TotalAmount      string                 `json:"totalAmount"`
	ShippingPrice    string                 `json:"shippingPrice"`
	PaymentID        string                 `json:"paymentId,omitempty"`
	CreatedAt        string                 `json:"createdAt,omitempty"`
	UpdatedAt        string                 `json:"updatedAt,omitempty"`
}

func orderToPayload(o domain.Order) orderPayload {
	return orderPayload{
		ID:               o.ID,
		StudentID:        o.StudentID,
		ShippingMethodID: o.ShippingMethodID,
		Shipping: shippingDetailsPayload{
			Name:       o.Shipping.Name,
			Phone:      o.Shipping.Phone,
			Address:    o.Shipping.Address,
			PostalCode: o.Shipping.PostalCode,
			City:       o.Shipping.City,
		},
		Email:         o.Email,
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		Status:        string(o.Status),
		TotalAmount:   amountString(o.TotalAmount),
		ShippingPrice: amountString(o.ShippingPrice),
		PaymentID:     o.PaymentID,
		CreatedAt:     timestampString(o.CreatedAt),
		UpdatedAt:     timestampString(o.UpdatedAt),
	}
}

type orderItemPayload struct {
	ID          string `json:"id"`
	PhotoID     string `json:"photoId"`
	ProductID   string `json:"productId"`
	PriceAtTime string `json:"priceAtTime"`
	Quantity    int    `json:"quantity"`
}

func orderItemToPayload(item domain.OrderItem) orderItemPayload {
	return orderItemPayload{
		ID:          item.ID,
		PhotoID:     item.PhotoID,
		ProductID:   item.ProductID,
		PriceAtTime: amountString(item.PriceAtTime),
		Quantity:    item.Quantity,
	}
}

type multibancoPayload struct {
	Entity    string `json:"entity"`
	Reference string `json:"reference"`
	Amount    string `json:"amount"`
}

type paymentPayload struct {
	Provider    string             `json:"provider,omitempty"`
	PaymentID   string             `json:"paymentId,omitempty"`
	RedirectURL string             `json:"redirectUrl,omitempty"`
	Reference   string             `json:"reference,omitempty"`
	Status      string             `json:"status,omitempty"`
	Multibanco  *multibancoPayload `json:"multibanco,omitempty"`
	Error       string             `json:"error,omitempty"`
}

func paymentToPayload(outcome services.PaymentOutcome) paymentPayload {
	payload := paymentPayload{
		Provider:    outcome.Provider,
		PaymentID:   outcome.PaymentID,
		RedirectURL: outcome.RedirectURL,
		Reference:   outcome.Reference,
		Status:      outcome.Status,
		Error:       outcome.Error,
	}
	if outcome.Multibanco != nil {
		payload.Multibanco = &multibancoPayload{
			Entity:    outcome.Multibanco.Entity,
			Reference: outcome.Multibanco.Reference,
			Amount:    amountString(outcome.Multibanco.Amount),
		}
	}
	return payload
}
