package auth

import (
	"errors"
	"strconv"
	"time"

	"cardroom-service/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongScope   = errors.New("token scope mismatch")
)

const (
	ScopeUser  = "user"
	ScopeAdmin = "admin"
)

type Claims struct {
	SubjectID string `json:"subjectId"`
	Name      string `json:"name,omitempty"`
	Scope     string `json:"scope"`
	jwt.RegisteredClaims
}

// TTL is the configured token lifetime.
func TTL() time.Duration {
	return time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour
}

func GenerateToken(userID, nickname string) (string, error) {
	return generateToken(userID, nickname, ScopeUser)
}

func GenerateAdminToken(adminID int64) (string, error) {
	return generateToken(strconv.FormatInt(adminID, 10), "", ScopeAdmin)
}

func generateToken(subjectID, name, scope string) (string, error) {
	now := time.Now()
	claims := Claims{
		SubjectID: subjectID,
		Name:      name,
		Scope:     scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL())),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   scope,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.GlobalConfig.JWT.Secret))
}

func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.GlobalConfig.JWT.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func ParseUserToken(tokenString string) (*Claims, error) {
	return parseScoped(tokenString, ScopeUser)
}

func ParseAdminToken(tokenString string) (*Claims, error) {
	return parseScoped(tokenString, ScopeAdmin)
}

func parseScoped(tokenString, scope string) (*Claims, error) {
	claims, err := ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Scope != scope {
		return nil, ErrWrongScope
	}
	return claims, nil
}
