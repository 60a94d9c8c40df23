package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	domain "github.com/fotoescola/api/internal/domain"
)

// EmailJob is the message a downstream delivery worker consumes. The worker
// owns SMTP concerns; this process only renders and enqueues.
type EmailJob struct {
	Type      string `json:"type"`
	OrderID   string `json:"orderId"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	HTMLBody  string `json:"htmlBody"`
}

// EmailJobTypeOrderConfirmation marks customer and admin confirmation mails.
const EmailJobTypeOrderConfirmation = "order_confirmation"

// ConfirmationLine is one rendered row of the order summary table.
type ConfirmationLine struct {
	ProductName string
	Quantity    int
	LineTotal   string
}

// OrderConfirmation carries everything needed to render a confirmation mail.
// ProductNames maps product ids to display names for the summary table.
type OrderConfirmation struct {
	Order              domain.Order
	Items              []domain.OrderItem
	ProductNames       map[string]string
	ShippingMethodName string
	StudentName        string
}

var confirmationTemplate = template.Must(template.New("orderConfirmation").Parse(`<!DOCTYPE html>
<html lang="pt">
<body>
<h2>Encomenda {{.OrderID}} confirmada</h2>
<p>Olá {{.CustomerName}},</p>
<p>Recebemos o pagamento da sua encomenda de fotografias{{if .StudentName}} de {{.StudentName}}{{end}}.</p>
<table>
<tr><th align="left">Produto</th><th align="right">Qtd.</th><th align="right">Total</th></tr>
{{range .Lines}}<tr><td>{{.ProductName}}</td><td align="right">{{.Quantity}}</td><td align="right">{{.LineTotal}}</td></tr>
{{end}}</table>
{{if .ShippingMethod}}<p>Envio: {{.ShippingMethod}} ({{.ShippingPrice}})</p>{{end}}
<p><strong>Total: {{.Total}}</strong></p>
<p>Obrigado pela sua compra.</p>
</body>
</html>
`))

type confirmationView struct {
	OrderID        string
	CustomerName   string
	StudentName    string
	Lines          []ConfirmationLine
	ShippingMethod string
	ShippingPrice  string
	Total          string
}

// sanitizer strips all markup from customer-entered strings before they reach
// the HTML template.
var sanitizer = bluemonday.StrictPolicy()

var amountPrinter = message.NewPrinter(language.EuropeanPortuguese)

// FormatAmount renders a euro amount with the pt-PT decimal convention. The
// digits come straight from the decimal value; only the integer part passes
// through the locale printer for grouping.
func FormatAmount(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	sep := strings.LastIndexByte(fixed, '.')
	units, cents := fixed[:sep], fixed[sep+1:]
	if n, err := strconv.ParseInt(units, 10, 64); err == nil {
		return amountPrinter.Sprintf("%d,%s €", n, cents)
	}
	return fmt.Sprintf("%s,%s €", units, cents)
}

// BuildOrderConfirmation renders the confirmation mail for one paid order.
func BuildOrderConfirmation(data OrderConfirmation) (EmailJob, error) {
	order := data.Order
	if strings.TrimSpace(order.ID) == "" {
		return EmailJob{}, fmt.Errorf("notifications: order id is required")
	}

	lines := make([]ConfirmationLine, 0, len(data.Items))
	for _, item := range data.Items {
		name := data.ProductNames[item.ProductID]
		if name == "" {
			name = item.ProductID
		}
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		lines = append(lines, ConfirmationLine{
			ProductName: sanitizer.Sanitize(name),
			Quantity:    quantity,
			LineTotal:   FormatAmount(item.PriceAtTime.Mul(decimal.NewFromInt(int64(quantity)))),
		})
	}

	view := confirmationView{
		OrderID:      order.ID,
		CustomerName: sanitizer.Sanitize(strings.TrimSpace(order.Shipping.Name)),
		StudentName:  sanitizer.Sanitize(strings.TrimSpace(data.StudentName)),
		Lines:        lines,
		Total:        FormatAmount(order.TotalAmount.Add(order.ShippingPrice)),
	}
	if name := strings.TrimSpace(data.ShippingMethodName); name != "" {
		view.ShippingMethod = sanitizer.Sanitize(name)
		view.ShippingPrice = FormatAmount(order.ShippingPrice)
	}

	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, view); err != nil {
		return EmailJob{}, fmt.Errorf("notifications: render confirmation: %w", err)
	}

	return EmailJob{
		Type:     EmailJobTypeOrderConfirmation,
		OrderID:  order.ID,
		Subject:  fmt.Sprintf("Encomenda %s confirmada", order.ID),
		HTMLBody: buf.String(),
	}, nil
}
