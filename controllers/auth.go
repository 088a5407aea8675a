package controllers

import (
	"context"
	"encoding/json"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/utils"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// AuthController handles signup, login, logout, token refresh and profile
type AuthController struct {
	Users *mongo.Collection
	Redis *redis.Client
	Cfg   *utils.Config
}

// NewAuthController creates a new AuthController
func NewAuthController(client *mongo.Client, rdb *redis.Client, cfg *utils.Config) *AuthController {
	return &AuthController{
		Users: client.Database(cfg.MongoDatabase).Collection("users"),
		Redis: rdb,
		Cfg:   cfg,
	}
}

func refreshTokenKey(userID string) string {
	return "refresh_token:" + userID
}

func (ac *AuthController) secureCookies() bool {
	return ac.Cfg.Environment == "production"
}

func (ac *AuthController) setAccessCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    token,
		Path:     "/",
		MaxAge:   int(utils.AccessTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   ac.secureCookies(),
		SameSite: http.SameSiteStrictMode,
	})
}

func (ac *AuthController) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    token,
		Path:     "/",
		MaxAge:   int(utils.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   ac.secureCookies(),
		SameSite: http.SameSiteStrictMode,
	})
}

func (ac *AuthController) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   ac.secureCookies(),
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// issueTokens generates the token pair, stores the refresh token in Redis
// with a TTL matching its validity window and sets both cookies.
func (ac *AuthController) issueTokens(ctx context.Context, w http.ResponseWriter, user *models.User) error {
	accessToken, err := utils.GenerateAccessToken(user.ID.Hex(), user.Role)
	if err != nil {
		return err
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID.Hex(), user.Role)
	if err != nil {
		return err
	}
	if err := ac.Redis.Set(ctx, refreshTokenKey(user.ID.Hex()), refreshToken, utils.RefreshTokenTTL).Err(); err != nil {
		return err
	}
	ac.setAccessCookie(w, accessToken)
	ac.setRefreshCookie(w, refreshToken)
	return nil
}

// Signup handles user registration
func (ac *AuthController) Signup(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Name == "" || input.Email == "" || input.Password == "" {
		respondError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := ac.Users.CountDocuments(ctx, bson.M{"email": input.Email})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if count > 0 {
		respondError(w, http.StatusConflict, "User already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error hashing password")
		return
	}

	user := models.User{
		Name:      input.Name,
		Email:     input.Email,
		Password:  string(hashedPassword),
		Role:      "customer",
		CartItems: []models.CartItem{},
		CreatedAt: time.Now(),
	}

	result, err := ac.Users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			respondError(w, http.StatusConflict, "User already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "Error creating user")
		return
	}
	user.ID = result.InsertedID.(primitive.ObjectID)

	if err := ac.issueTokens(ctx, w, &user); err != nil {
		log.Error().Err(err).Msg("failed to issue tokens on signup")
		respondError(w, http.StatusInternalServerError, "Error creating session")
		return
	}

	user.Password = ""
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"user":    user,
		"message": "User created successfully",
	})
}

// Login handles user authentication
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := ac.Users.FindOne(ctx, bson.M{"email": creds.Email}).Decode(&user)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := ac.issueTokens(ctx, w, &user); err != nil {
		log.Error().Err(err).Msg("failed to issue tokens on login")
		respondError(w, http.StatusInternalServerError, "Error creating session")
		return
	}

	user.Password = ""
	respondJSON(w, http.StatusOK, user)
}

// Refresh issues a new access token when the presented refresh token
// matches the stored value for the user. The refresh token is not rotated.
func (ac *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refreshToken")
	if err != nil || cookie.Value == "" {
		respondError(w, http.StatusUnauthorized, "Unauthorized, no refresh token found")
		return
	}

	claims, err := utils.ParseRefreshToken(cookie.Value)
	if err != nil {
		if utils.IsTokenExpired(err) {
			respondError(w, http.StatusUnauthorized, "Refresh token expired")
			return
		}
		respondError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stored, err := ac.Redis.Get(ctx, refreshTokenKey(claims.UserID)).Result()
	if err != nil || stored != cookie.Value {
		respondError(w, http.StatusUnauthorized, "Unauthorized, invalid refresh token")
		return
	}

	accessToken, err := utils.GenerateAccessToken(claims.UserID, claims.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error generating token")
		return
	}
	ac.setAccessCookie(w, accessToken)

	respondJSON(w, http.StatusOK, map[string]string{"message": "Access token refreshed successfully"})
}

// Logout deletes the stored refresh token and clears both cookies.
// Missing or invalid cookies never block logout.
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("refreshToken"); err == nil && cookie.Value != "" {
		if claims, err := utils.ParseRefreshToken(cookie.Value); err == nil {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			if err := ac.Redis.Del(ctx, refreshTokenKey(claims.UserID)).Err(); err != nil {
				log.Warn().Err(err).Msg("failed to delete refresh token on logout")
			}
		}
	}

	ac.clearAuthCookies(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// GetProfile retrieves the authenticated user's profile
func (ac *AuthController) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(middleware.UserContextKey).(*utils.Claims)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	if err := ac.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	user.Password = ""
	respondJSON(w, http.StatusOK, user)
}
