package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/launchdeck-platform/config"
	"github.com/launchdeck-platform/database"
	"github.com/launchdeck-platform/dto"
	"github.com/launchdeck-platform/models"
)

const tokenLifetime = 24 * time.Hour

// Register creates a new user account with a bcrypt-hashed password
func Register(req dto.RegisterRequest) (*models.User, error) {
	var existing models.User
	if result := database.DB.Where("email = ?", req.Email).First(&existing); result.RowsAffected > 0 {
		return nil, errors.New("email already registered")
	}
	if req.Username != nil && *req.Username != "" {
		if result := database.DB.Where("username = ?", req.Username).First(&existing); result.RowsAffected > 0 {
			return nil, errors.New("username already taken")
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:    req.Email,
		Password: string(hashed),
		Username: req.Username,
		Name:     req.Name,
		Role:     models.RoleUser,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser retrieves a user by ID
func GetUser(id string) (*models.User, error) {
	var user models.User
	if result := database.DB.Where("id = ?", id).First(&user); result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// Login authenticates a user and returns a signed token. Unknown email
// and wrong password produce the same error.
func Login(req dto.LoginRequest) (*dto.AuthResponse, error) {
	var user models.User
	if result := database.DB.Where("email = ?", req.Email).First(&user); result.Error != nil {
		return nil, errors.New("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	token, expiresAt, err := GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	responseUser := user
	responseUser.Password = ""
	return &dto.AuthResponse{
		Token:     token,
		User:      responseUser,
		ExpiresAt: expiresAt,
	}, nil
}

// GenerateToken issues an HS256 JWT for the user
func GenerateToken(userID, email, role string) (string, time.Time, error) {
	secret := config.GetEnv("JWT_SECRET", "")
	if secret == "" {
		return "", time.Time{}, errors.New("JWT_SECRET not set in environment")
	}

	expiresAt := time.Now().Add(tokenLifetime)
	claims := dto.TokenClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies a JWT, returning its claims
func ValidateToken(tokenString string) (*dto.TokenClaims, error) {
	secret := config.GetEnv("JWT_SECRET", "")
	if secret == "" {
		return nil, errors.New("JWT_SECRET not set in environment")
	}

	token, err := jwt.ParseWithClaims(tokenString, &dto.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*dto.TokenClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
