package session

import (
	"errors"
	"fleetcare/bizerror"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
)

const TokenExpiration = 24 * time.Hour

var TokenCache = cache.New(TokenExpiration, 1*time.Minute)

// JwtSecret signs the bearer access tokens handed out at login.
var JwtSecret = []byte("fleetcare-dev-secret")

type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

const KeySecCtx = "SecCtx"
const KeySecToken = "sec_token"

func ExtractSessionFromGinContext(ctx *gin.Context) *Session {
	value, found := ctx.Get(KeySecCtx)
	if !found {
		return &Session{Context: ctx.Request.Context()}
	}
	s0, ok := value.(*Session)
	if !ok || s0.Token == "" {
		return &Session{Context: ctx.Request.Context()}
	}
	s := s0.Clone()
	s.Context = ctx.Request.Context() // trace context
	return &s
}

func SimpleAuthFilter() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := resolveToken(ctx)
		if err != nil {
			panic(bizerror.ErrUnauthenticated)
		}
		securityContextValue, found := TokenCache.Get(token)
		if !found {
			panic(bizerror.ErrUnauthenticated)
		}
		secCtx, ok := securityContextValue.(*Session)
		if !ok {
			panic(bizerror.ErrUnauthenticated)
		}
		InjectSessionIntoGinContext(ctx, secCtx)
		ctx.Next()
	}
}

func InjectSessionIntoGinContext(ctx *gin.Context, secCtx *Session) {
	if secCtx != nil && secCtx.Token != "" {
		ctx.Set(KeySecCtx, secCtx)
	}
}

// resolveToken prefers the bearer access token and falls back to the session cookie.
func resolveToken(ctx *gin.Context) (string, error) {
	if header := ctx.GetHeader("Authorization"); header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return "", errors.New("unsupported authorization scheme")
		}
		return ParseAccessToken(strings.TrimPrefix(header, "Bearer "))
	}
	return ctx.Cookie(KeySecToken)
}

// IssueAccessToken wraps the session token into a signed jwt, the token is carried as jwt id.
func IssueAccessToken(s *Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        s.Token,
		Subject:   s.Identity.ID.String(),
		IssuedAt:  jwt.NewNumericDate(s.SigningTime),
		ExpiresAt: jwt.NewNumericDate(s.SigningTime.Add(TokenExpiration)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JwtSecret)
}

func ParseAccessToken(accessToken string) (string, error) {
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(accessToken, &claims, func(token *jwt.Token) (interface{}, error) {
		return JwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", errors.New("access token without session id")
	}
	return claims.ID, nil
}
