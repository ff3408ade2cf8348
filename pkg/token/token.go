package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrWrongType    = errors.New("wrong token type")
)

// Claims JWT 负载
type Claims struct {
	UserID    uint   `json:"uid"`
	IsAdmin   bool   `json:"adm"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Maker 签发与校验 JWT
type Maker struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewMaker(secret string, accessTTL, refreshTTL time.Duration) (*Maker, error) {
	if len(secret) < 8 {
		return nil, fmt.Errorf("jwt secret too short: %d chars", len(secret))
	}
	return &Maker{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

func (m *Maker) GenerateAccess(userID uint, isAdmin bool) (string, error) {
	return m.generate(userID, isAdmin, TypeAccess, m.accessTTL)
}

func (m *Maker) GenerateRefresh(userID uint, isAdmin bool) (string, error) {
	return m.generate(userID, isAdmin, TypeRefresh, m.refreshTTL)
}

func (m *Maker) generate(userID uint, isAdmin bool, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		IsAdmin:   isAdmin,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse 校验签名与有效期，不区分 token 类型
func (m *Maker) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseType 校验并要求指定 token 类型
func (m *Maker) ParseType(tokenString, typ string) (*Claims, error) {
	claims, err := m.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != typ {
		return nil, ErrWrongType
	}
	return claims, nil
}
