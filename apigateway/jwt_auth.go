package gateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

const defaultIssuer = "warung"

var (
	errEmptyKey    = errors.New("empty jwt key")
	errBadSubject  = errors.New("token subject is not a user id")
	errTokenClaims = errors.New("token claims are invalid")
)

// JWTAuth provides an encapsulation for jwt auth
type JWTAuth struct {
	Key    []byte
	TTL    time.Duration
	Issuer string
	now    func() time.Time
}

// NewJWTAuth builds a JWTAuth from a configured secret. An empty secret gets a
// random per-process key, which invalidates tokens on restart.
func NewJWTAuth(secret string, ttl time.Duration) *JWTAuth {
	j := &JWTAuth{Key: []byte(secret), TTL: ttl}
	j.Init()
	return j
}

// Init fills in defaults and generates a signing key when none is set.
func (j *JWTAuth) Init() {
	if len(j.Key) == 0 {
		key, _ := GenerateSecretKey(32)
		j.Key = key
	}
	if j.TTL <= 0 {
		j.TTL = 24 * time.Hour
	}
	if j.Issuer == "" {
		j.Issuer = defaultIssuer
	}
	if j.now == nil {
		j.now = time.Now
	}
}

// TokenClaims carries the authenticated user.
type TokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.StandardClaims
}

func generateClaims(iat, eat int64, issuer, subject string) jwt.StandardClaims {
	return jwt.StandardClaims{
		IssuedAt:  iat,
		ExpiresAt: eat,
		Issuer:    issuer,
		Subject:   subject,
	}
}

// GenerateJWT signs an HS256 token for the user, valid for TTL.
func (j *JWTAuth) GenerateJWT(userID uuid.UUID, email string) (string, error) {
	if len(j.Key) == 0 {
		return "", errEmptyKey
	}
	if j.now == nil {
		j.now = time.Now
	}
	now := j.now()
	ttl := j.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	claims := TokenClaims{
		UserID:         userID,
		Email:          email,
		StandardClaims: generateClaims(now.Unix(), now.Add(ttl).Unix(), j.Issuer, userID.String()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Key)
}

// VerifyJWT parses the token, accepting HMAC signatures only. Errors are
// *jwt.ValidationError so callers can tell expired from malformed tokens.
func (j *JWTAuth) VerifyJWT(tokenString string) (*TokenClaims, error) {
	if len(j.Key) == 0 {
		return nil, errEmptyKey
	}
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Key, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, jwt.NewValidationError(errTokenClaims.Error(), jwt.ValidationErrorClaimsInvalid)
	}
	if claims.UserID == uuid.Nil {
		return nil, jwt.NewValidationError(errBadSubject.Error(), jwt.ValidationErrorClaimsInvalid)
	}
	return claims, nil
}

// isExpired reports whether err is a validation error for an expired token.
func isExpired(err error) bool {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		return ve.Errors&jwt.ValidationErrorExpired != 0
	}
	return false
}
