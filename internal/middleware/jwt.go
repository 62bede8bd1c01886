package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gator-forum/internal/api"
	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "

	identityKey   = "forum_identity"
	userKey       = "forum_user"
	resolveErrKey = "forum_resolve_error"
)

// IdentityClaims is what the identity provider signs. The subject is the
// external identity id; the remaining fields are profile hints used when the
// user is created.
type IdentityClaims struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	jwt.RegisteredClaims
}

// IdentityVerifier checks HS256 identity tokens.
type IdentityVerifier struct {
	secret []byte
	issuer string
}

// NewIdentityVerifier returns a verifier for tokens signed with secret. An
// empty issuer accepts tokens from any issuer.
func NewIdentityVerifier(secret, issuer string) *IdentityVerifier {
	return &IdentityVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses a token and returns the identity it asserts.
func (v *IdentityVerifier) Verify(tokenString string) (*models.ExternalIdentity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return &models.ExternalIdentity{
		ID:       claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		ImageURL: claims.ImageURL,
	}, nil
}

// IssueToken signs an identity token. The server only verifies tokens; this
// is used by the simulator and tests to stand in for the identity provider.
func IssueToken(secret, issuer string, identity models.ExternalIdentity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &IdentityClaims{
		Username: identity.Username,
		Email:    identity.Email,
		ImageURL: identity.ImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign identity token: %w", err)
	}
	return signed, nil
}

// UserResolver maps a verified identity to the internal user, creating it on
// first sight.
type UserResolver func(ctx context.Context, identity models.ExternalIdentity) (*models.User, error)

// Authenticate verifies a bearer token when one is present and stores the
// identity and resolved user on the context. Requests without a token pass
// through anonymously; a bad token is rejected. When the user cannot be
// resolved the request continues anonymously and RequireUser refuses it.
func Authenticate(verifier *IdentityVerifier, resolve UserResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			api.Fail(c, utils.NewAppError(utils.ErrInvalidToken, "Invalid authorization header format", nil))
			return
		}

		identity, err := verifier.Verify(strings.TrimPrefix(header, BearerPrefix))
		if err != nil {
			logger.Warn("identity token rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			api.Fail(c, utils.NewAppError(utils.ErrInvalidToken, "Invalid or expired token", err))
			return
		}

		user, err := resolve(c.Request.Context(), *identity)
		if err != nil {
			logger.Warn("identity resolution failed, continuing anonymously",
				zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.Set(resolveErrKey, err)
			c.Next()
			return
		}

		c.Set(identityKey, identity)
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireUser rejects requests that Authenticate left anonymous. A caller
// whose token was valid but whose user could not be resolved gets the
// resolution error instead of a plain 401.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			if err, ok := c.Get(resolveErrKey); ok {
				api.Fail(c, err.(error))
				return
			}
			api.Fail(c, utils.NewUnauthorizedError("Authentication required"))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentIdentity returns the verified external identity, or nil.
func CurrentIdentity(c *gin.Context) *models.ExternalIdentity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(*models.ExternalIdentity); ok {
			return identity
		}
	}
	return nil
}
