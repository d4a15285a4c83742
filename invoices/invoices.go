// Package invoices consumes the booking-completed event and owns the
// invoice documents. One invoice per completed booking.
package invoices

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trimly/apperrors"
	"trimly/models"
	"trimly/registry"
	"trimly/tenants"
)

type Generator struct {
	reg *registry.Registry
	log zerolog.Logger
}

func NewGenerator(reg *registry.Registry, log zerolog.Logger) *Generator {
	return &Generator{reg: reg, log: log.With().Str("component", "invoices").Logger()}
}

// BookingCompleted creates the invoice for a completed booking. The
// upsert on bookingId makes redelivery harmless.
func (g *Generator) BookingCompleted(ctx context.Context, conn *tenants.Conn, booking *models.Booking) {
	col, err := g.reg.Collection(ctx, conn, registry.Invoices)
	if err != nil {
		g.log.Error().Err(err).Str("booking", booking.ID).Msg("cannot open invoices")
		return
	}

	taxRate := 0.0
	currency := "USD"
	settingsCol, err := g.reg.Collection(ctx, conn, registry.ShopSettings)
	if err == nil {
		var s models.ShopSettings
		if settingsCol.FindOne(ctx, bson.M{"shopId": booking.ShopID}).Decode(&s) == nil {
			taxRate = s.TaxRate
			if s.Currency != "" {
				currency = s.Currency
			}
		}
	}

	now := time.Now().UTC()
	subtotal := booking.FinalPrice
	tax := subtotal * taxRate / 100

	_, err = col.UpdateOne(ctx,
		bson.M{"bookingId": booking.ID},
		bson.M{"$setOnInsert": models.Invoice{
			ID:         uuid.NewString(),
			TenantID:   booking.TenantID,
			ShopID:     booking.ShopID,
			BookingID:  booking.ID,
			CustomerID: booking.CustomerID,
			Subtotal:   subtotal,
			TaxRate:    taxRate,
			Tax:        tax,
			Total:      subtotal + tax,
			Currency:   currency,
			Status:     models.InvoicePending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		g.log.Error().Err(err).Str("booking", booking.ID).Msg("invoice generation failed")
		return
	}
	g.log.Info().Str("booking", booking.ID).Msg("invoice generated")
}

// ListForShop returns a shop's invoices, newest first.
func (g *Generator) ListForShop(ctx context.Context, conn *tenants.Conn, tenantID, shopID, status string, skip, limit int64) ([]models.Invoice, int64, error) {
	col, err := g.reg.Collection(ctx, conn, registry.Invoices)
	if err != nil {
		return nil, 0, err
	}

	filter := bson.M{"tenantId": tenantID, "shopId": shopID}
	if status != "" {
		filter["status"] = status
	}

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cur, err := col.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).SetLimit(limit))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []models.Invoice
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Get loads one invoice.
func (g *Generator) Get(ctx context.Context, conn *tenants.Conn, invoiceID string) (*models.Invoice, error) {
	col, err := g.reg.Collection(ctx, conn, registry.Invoices)
	if err != nil {
		return nil, err
	}
	var inv models.Invoice
	err = col.FindOne(ctx, bson.M{"_id": invoiceID}).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &apperrors.NotFoundError{Entity: "invoice"}
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// MarkPaid settles a pending invoice.
func (g *Generator) MarkPaid(ctx context.Context, conn *tenants.Conn, invoiceID string) (*models.Invoice, error) {
	col, err := g.reg.Collection(ctx, conn, registry.Invoices)
	if err != nil {
		return nil, err
	}

	var inv models.Invoice
	err = col.FindOneAndUpdate(ctx,
		bson.M{"_id": invoiceID, "status": models.InvoicePending},
		bson.M{"$set": bson.M{
			"status":    models.InvoicePaid,
			"paidAt":    time.Now().UTC(),
			"updatedAt": time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &apperrors.NotFoundError{Entity: "invoice"}
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
