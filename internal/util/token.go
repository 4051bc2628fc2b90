package util

import (
	"errors"
	"fmt"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/raids-lab/buildtracker/pkg/config"
	"github.com/raids-lab/buildtracker/pkg/logutils"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var (
	ErrWrongTokenType = errors.New("token has wrong type")
	ErrTokenExpired   = errors.New("token is expired")
)

type (
	JWTClaims struct {
		UserID      uint      `json:"ui"`
		Username    string    `json:"un"`
		IsStaff     bool      `json:"st"`
		IsSuperuser bool      `json:"su"`
		TokenType   TokenType `json:"tt"`
		jwt.RegisteredClaims
	}
	JWTMessage struct {
		UserID      uint   `json:"userID"`      // User ID
		Username    string `json:"username"`    // Username
		IsStaff     bool   `json:"isStaff"`     // Staff flag at issue time
		IsSuperuser bool   `json:"isSuperuser"` // Superuser flag at issue time
	}
	// RefreshClaims is what a checked refresh token carries besides the user.
	RefreshClaims struct {
		JWTMessage
		JTI       string
		ExpiresAt time.Time
	}
)

type TokenManager struct {
	accessSecret    string
	refreshSecret   string
	accessTokenTTL  int
	refreshTokenTTL int
}

var (
	once     sync.Once
	tokenMgr *TokenManager
)

func GetTokenMgr() *TokenManager {
	once.Do(func() {
		tokenMgr = NewTokenManager(config.NewTokenConf(config.GetConfig()))
	})
	return tokenMgr
}

func NewTokenManager(conf *config.TokenConf) *TokenManager {
	refreshSecret := conf.RefreshTokenSecret
	if refreshSecret == "" {
		refreshSecret = conf.AccessTokenSecret
	}
	return &TokenManager{
		accessSecret:    conf.AccessTokenSecret,
		refreshSecret:   refreshSecret,
		accessTokenTTL:  conf.AccessTokenExpiryHour,
		refreshTokenTTL: conf.RefreshTokenExpiryHour,
	}
}

func (tm *TokenManager) secret(tokenType TokenType) []byte {
	if tokenType == RefreshToken {
		return []byte(tm.refreshSecret)
	}
	return []byte(tm.accessSecret)
}

func (tm *TokenManager) createToken(msg *JWTMessage, tokenType TokenType, ttl int) (string, error) {
	now := time.Now()
	expiresAt := now.Add(time.Hour * time.Duration(ttl))

	claims := &JWTClaims{
		UserID:      msg.UserID,
		Username:    msg.Username,
		IsStaff:     msg.IsStaff,
		IsSuperuser: msg.IsSuperuser,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret(tokenType))
}

// CreateTokens creates a new access token and a new refresh token
func (tm *TokenManager) CreateTokens(msg *JWTMessage) (
	accessToken string, refreshToken string, err error) {
	accessToken, err = tm.createToken(msg, AccessToken, tm.accessTokenTTL)
	if err != nil {
		logutils.Log.Error(err)
		return "", "", err
	}
	refreshToken, err = tm.createToken(msg, RefreshToken, tm.refreshTokenTTL)
	if err != nil {
		logutils.Log.Error(err)
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (tm *TokenManager) parse(requestToken string, tokenType TokenType) (*JWTClaims, error) {
	claims := &JWTClaims{}
	_, err := jwt.ParseWithClaims(requestToken, claims, func(_ *jwt.Token) (any, error) {
		return tm.secret(tokenType), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("%w: expected %s", ErrWrongTokenType, tokenType)
	}
	return claims, nil
}

func (c *JWTClaims) message() JWTMessage {
	return JWTMessage{
		UserID:      c.UserID,
		Username:    c.Username,
		IsStaff:     c.IsStaff,
		IsSuperuser: c.IsSuperuser,
	}
}

func (tm *TokenManager) CheckToken(requestToken string) (JWTMessage, error) {
	claims, err := tm.parse(requestToken, AccessToken)
	if err != nil {
		return JWTMessage{}, err
	}
	return claims.message(), nil
}

// CheckRefreshToken validates signature, expiry and type. Blacklisting is checked by the caller.
func (tm *TokenManager) CheckRefreshToken(requestToken string) (*RefreshClaims, error) {
	claims, err := tm.parse(requestToken, RefreshToken)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil, errors.New("refresh token misses jti or exp")
	}
	return &RefreshClaims{
		JWTMessage: claims.message(),
		JTI:        claims.ID,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}
