package notifications

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	domain "github.com/fotoescola/api/internal/domain"
)

func testConfirmation() OrderConfirmation {
	return OrderConfirmation{
		Order: domain.Order{
			ID:            "order-1",
			Email:         "maria@example.com",
			TotalAmount:   decimal.RequireFromString("20.00"),
			ShippingPrice: decimal.RequireFromString("3.50"),
			Shipping:      domain.ShippingDetails{Name: "Maria Silva"},
			CreatedAt:     time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		Items: []domain.OrderItem{
			{ProductID: "P1", PriceAtTime: decimal.RequireFromString("10.00"), Quantity: 2},
		},
		ProductNames:       map[string]string{"P1": "Print 10x15"},
		ShippingMethodName: "Home delivery",
		StudentName:        "João",
	}
}

func TestPublishOrderConfirmationWithAdminCopy(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "email-jobs")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPublisher(topic, WithAdminCopy("orders@fotoescola.pt"))
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	ids, err := publisher.PublishOrderConfirmation(ctx, testConfirmation())
	if err != nil {
		t.Fatalf("PublishOrderConfirmation: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected customer and admin messages, got %d", len(ids))
	}

	messages := srv.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 published messages, got %d", len(messages))
	}

	recipients := make(map[string]bool)
	for _, msg := range messages {
		var job EmailJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			t.Fatalf("unmarshal job: %v", err)
		}
		recipients[job.Recipient] = true
		if job.Type != EmailJobTypeOrderConfirmation {
			t.Fatalf("unexpected job type %q", job.Type)
		}
		if msg.Attributes["orderId"] != "order-1" {
			t.Fatalf("expected orderId attribute, got %q", msg.Attributes["orderId"])
		}
		if !strings.Contains(job.HTMLBody, "Print 10x15") {
			t.Fatalf("expected product name in body")
		}
	}
	if !recipients["maria@example.com"] || !recipients["orders@fotoescola.pt"] {
		t.Fatalf("unexpected recipients %v", recipients)
	}
}

func TestBuildOrderConfirmationSanitisesCustomerFields(t *testing.T) {
	data := testConfirmation()
	data.Order.Shipping.Name = "<script>alert(1)</script>Maria"

	job, err := BuildOrderConfirmation(data)
	if err != nil {
		t.Fatalf("BuildOrderConfirmation: %v", err)
	}
	if strings.Contains(job.HTMLBody, "<script>") {
		t.Fatalf("expected markup to be stripped from customer name")
	}
	if !strings.Contains(job.HTMLBody, "Maria") {
		t.Fatalf("expected customer name to survive sanitisation")
	}
}

func TestFormatAmountUsesPortugueseDecimal(t *testing.T) {
	got := FormatAmount(decimal.RequireFromString("12.50"))
	if !strings.Contains(got, "12,50") {
		t.Fatalf("expected comma decimal separator, got %q", got)
	}
}

func TestFormatAmountKeepsExactDigits(t *testing.T) {
	got := FormatAmount(decimal.RequireFromString("92233720368547758.07"))
	if !strings.HasSuffix(got, ",07 €") {
		t.Fatalf("expected exact cents, got %q", got)
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, got)
	if digits != "9223372036854775807" {
		t.Fatalf("expected all digits preserved, got %q", got)
	}
}
