package registry

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates the index set for an entity kind. CreateMany is
// idempotent for identical definitions, so re-running on restart is
// safe.
func ensureIndexes(ctx context.Context, col *mongo.Collection, kind Kind) error {
	indexes := indexModels(kind)
	if len(indexes) == 0 {
		return nil
	}
	_, err := col.Indexes().CreateMany(ctx, indexes)
	return err
}

func indexModels(kind Kind) []mongo.IndexModel {
	unique := options.Index().SetUnique(true)

	switch kind {
	case Tenants:
		return []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "isActive", Value: 1}}},
		}
	case ClientDatabaseMap:
		return []mongo.IndexModel{
			{Keys: bson.D{{Key: "tenantId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "databaseName", Value: 1}}, Options: options.Index().SetUnique(true)},
		}
	case SubscriptionPayments:
		return []mongo.IndexModel{
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "paidAt", Value: -1}}},
		}
	case Users:
		return []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "role", Value: 1}}},
		}
	case Shops:
		return []mongo.IndexModel{
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "isActive", Value: 1}}},
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "name", Value: 1}}},
		}
	case ShopSettings:
		return []mongo.IndexModel{
			{Keys: bson.D{{Key: "shopId", Value: 1}}, Options: unique},
		}
	case StaffProfiles:
		return []mongo.IndexModel{
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "shopId", Value: 1}, {Key: "isActive", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "shopId", Value: 1}}, Options: options.Index().SetUnique(true)},
		}
	case Services:
		return []mongo.IndexModel{
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "shopId", Value: 1}, {Key: "isActive", Value: 1}}},
		}
	case Slots:
		return []mongo.IndexModel{
			// The upsert key for idempotent generation.
			{Keys: bson.D{{Key: "shopId", Value: 1}, {Key: "date", Value: 1}, {Key: "startTime", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "shopId", Value: 1}, {Key: "date", Value: 1}, {Key: "status", Value: 1}}},
		}
	case Bookings:
		return []mongo.IndexModel{
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "shopId", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "shopId", Value: 1}, {Key: "scheduledAt", Value: 1}}},
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "customerId", Value: 1}}},
			{Keys: bson.D{{Key: "slotId", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "shopId", Value: 1}, {Key: "slotDate", Value: 1}}},
		}
	case Invoices:
		return []mongo.IndexModel{
			{Keys: bson.D{{Key: "bookingId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "shopId", Value: 1}, {Key: "status", Value: 1}}},
		}
	}
	return nil
}
