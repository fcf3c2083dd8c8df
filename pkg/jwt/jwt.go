package jwt

import (
	"errors"
	"time"

	"grievchat/internal/entity"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

type Claims struct {
	UserId         string `json:"userId"`
	Name           string `json:"name"`
	UserType       string `json:"userType"`
	DepartmentName string `json:"departmentName,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager validates session tokens minted by the portal's auth service,
// which signs them with the same shared secret. Both citizen and department
// tokens are handled; the userType claim tells them apart.
type JWTManager struct {
	secretKey     string
	tokenDuration time.Duration
}

func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     secretKey,
		tokenDuration: tokenDuration,
	}
}

// GenerateToken mints a token with the given claims. The auth service owns
// issuance in production; this exists for tooling and tests.
func (m *JWTManager) GenerateToken(claims entity.TokenClaims) (string, error) {
	tokenClaims := Claims{
		UserId:         claims.UserId,
		Name:           claims.Name,
		UserType:       string(claims.UserType),
		DepartmentName: claims.DepartmentName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims)
	return token.SignedString([]byte(m.secretKey))
}

// ValidateToken validates and parses a session token.
func (m *JWTManager) ValidateToken(tokenString string) (entity.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.secretKey), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return entity.TokenClaims{}, ErrExpiredToken
		}
		return entity.TokenClaims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return entity.TokenClaims{}, ErrInvalidToken
	}

	userType := entity.SenderType(claims.UserType)
	if userType != entity.SenderUser && userType != entity.SenderDepartment {
		return entity.TokenClaims{}, ErrInvalidToken
	}

	return entity.TokenClaims{
		UserId:         claims.UserId,
		Name:           claims.Name,
		UserType:       userType,
		DepartmentName: claims.DepartmentName,
	}, nil
}
