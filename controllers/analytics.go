package controllers

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AnalyticsController serves the admin analytics summary
type AnalyticsController struct {
	Users    *mongo.Collection
	Products *mongo.Collection
	Orders   *mongo.Collection
}

// NewAnalyticsController creates a new AnalyticsController
func NewAnalyticsController(client *mongo.Client, database string) *AnalyticsController {
	db := client.Database(database)
	return &AnalyticsController{
		Users:    db.Collection("users"),
		Products: db.Collection("products"),
		Orders:   db.Collection("orders"),
	}
}

type dailySales struct {
	Date    string  `bson:"_id" json:"date"`
	Sales   int64   `bson:"sales" json:"sales"`
	Revenue float64 `bson:"revenue" json:"revenue"`
}

// GetAnalytics returns overall counts plus daily sales for the trailing
// seven days
func (ac *AnalyticsController) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	userCount, err := ac.Users.CountDocuments(ctx, bson.M{})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching analytics")
		return
	}
	productCount, err := ac.Products.CountDocuments(ctx, bson.M{})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching analytics")
		return
	}

	var totals struct {
		TotalSales   int64   `bson:"total_sales"`
		TotalRevenue float64 `bson:"total_revenue"`
	}
	cursor, err := ac.Orders.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_sales", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "total_revenue", Value: bson.D{{Key: "$sum", Value: "$total_amount"}}},
		}}},
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching analytics")
		return
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&totals); err != nil {
			cursor.Close(ctx)
			respondError(w, http.StatusInternalServerError, "Error fetching analytics")
			return
		}
	}
	cursor.Close(ctx)

	end := time.Now()
	start := end.Add(-7 * 24 * time.Hour)
	daily := []dailySales{}
	dailyCursor, err := ac.Orders.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "created_at", Value: bson.D{
				{Key: "$gte", Value: start},
				{Key: "$lte", Value: end},
			}},
		}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m-%d"},
				{Key: "date", Value: "$created_at"},
			}}}},
			{Key: "sales", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$total_amount"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching analytics")
		return
	}
	defer dailyCursor.Close(ctx)
	if err := dailyCursor.All(ctx, &daily); err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching analytics")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"analytics": map[string]interface{}{
			"users":         userCount,
			"products":      productCount,
			"total_sales":   totals.TotalSales,
			"total_revenue": totals.TotalRevenue,
		},
		"daily_sales": daily,
	})
}
