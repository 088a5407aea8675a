package controllers

import (
	"context"
	"encoding/json"
	"go-storefront/models"
	"go-storefront/utils"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// featuredCacheKey is the single cache key for the featured-products list.
// It has no TTL; product mutations invalidate it explicitly.
const featuredCacheKey = "featured_products"

// ProductController handles catalog requests
type ProductController struct {
	Products *mongo.Collection
	Redis    *goredis.Client
	Images   *utils.ImageService
}

// NewProductController creates a new ProductController
func NewProductController(client *mongo.Client, database string, rdb *goredis.Client, images *utils.ImageService) *ProductController {
	return &ProductController{
		Products: client.Database(database).Collection("products"),
		Redis:    rdb,
		Images:   images,
	}
}

func (pc *ProductController) invalidateFeaturedCache(ctx context.Context) {
	if err := pc.Redis.Del(ctx, featuredCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate featured products cache")
	}
}

// GetProducts retrieves all products (admin)
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	cursor, err := pc.Products.Find(ctx, bson.M{})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching products")
		return
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			respondError(w, http.StatusInternalServerError, "Error reading products")
			return
		}
		products = append(products, product)
	}
	if err := cursor.Err(); err != nil {
		respondError(w, http.StatusInternalServerError, "Error reading products")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// GetFeaturedProducts serves the featured list from the cache, falling
// back to the database and repopulating the cache on a miss
func (pc *ProductController) GetFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cached, err := pc.Redis.Get(ctx, featuredCacheKey).Result()
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cached))
		return
	}
	if err != goredis.Nil {
		log.Warn().Err(err).Msg("featured products cache read failed")
	}

	cursor, err := pc.Products.Find(ctx, bson.M{"is_featured": true})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching products")
		return
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		respondError(w, http.StatusInternalServerError, "Error reading products")
		return
	}
	if len(products) == 0 {
		respondError(w, http.StatusNotFound, "No featured products found")
		return
	}

	payload, err := json.Marshal(products)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error encoding products")
		return
	}
	if err := pc.Redis.Set(ctx, featuredCacheKey, payload, 0).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to populate featured products cache")
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// GetProductsByCategory retrieves products in a category
func (pc *ProductController) GetProductsByCategory(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := pc.Products.Find(ctx, bson.M{"category": category})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching products")
		return
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		respondError(w, http.StatusInternalServerError, "Error reading products")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// GetRecommendedProducts returns a random sample of four products
func (pc *ProductController) GetRecommendedProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$sample", Value: bson.D{{Key: "size", Value: 4}}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 1},
			{Key: "name", Value: 1},
			{Key: "description", Value: 1},
			{Key: "category", Value: 1},
			{Key: "image", Value: 1},
			{Key: "price", Value: 1},
		}}},
	}

	cursor, err := pc.Products.Aggregate(ctx, pipeline)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching products")
		return
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		respondError(w, http.StatusInternalServerError, "Error reading products")
		return
	}

	respondJSON(w, http.StatusOK, products)
}

// CreateProduct handles adding a new product (admin). An optional image is
// uploaded to the image host and stored by URL.
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Category    string  `json:"category"`
		Image       string  `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Name == "" || input.Price <= 0 {
		respondError(w, http.StatusBadRequest, "Name and a positive price are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	imageURL := ""
	if input.Image != "" && pc.Images != nil {
		url, err := pc.Images.UploadImage(ctx, input.Image)
		if err != nil {
			log.Error().Err(err).Msg("image upload failed")
			respondError(w, http.StatusBadGateway, "Error uploading image")
			return
		}
		imageURL = url
	}

	product := models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Image:       imageURL,
	}

	result, err := pc.Products.InsertOne(ctx, product)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error creating product")
		return
	}
	product.ID = result.InsertedID.(primitive.ObjectID)
	pc.invalidateFeaturedCache(ctx)

	respondJSON(w, http.StatusCreated, product)
}

// DeleteProduct handles deleting a product (admin). The hosted image is
// removed best-effort.
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var product models.Product
	if err := pc.Products.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	if product.Image != "" && pc.Images != nil {
		if err := pc.Images.DeleteImage(ctx, product.Image); err != nil {
			log.Warn().Err(err).Str("image", product.Image).Msg("failed to delete hosted image")
		}
	}

	pc.invalidateFeaturedCache(ctx)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

// ToggleFeatured flips a product's featured flag (admin) and invalidates
// the featured cache; the next featured read repopulates it
func (pc *ProductController) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var product models.Product
	if err := pc.Products.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	product.IsFeatured = !product.IsFeatured
	_, err = pc.Products.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"is_featured": product.IsFeatured},
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error updating product")
		return
	}

	pc.invalidateFeaturedCache(ctx)
	respondJSON(w, http.StatusOK, product)
}
