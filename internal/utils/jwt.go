package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"  // secure random number generation
    "encoding/hex" // hex encoding of random tokens
    "errors"
    "fmt"
    "time" // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// RoleCustomer is the role claim carried by customer access tokens.
const RoleCustomer = "CUSTOMER"

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// Claims is the decoded form of an access token.
type Claims struct {
    Subject uint64
    Account string
    Role    string
}

// NewAccessToken builds and signs an HS256 JWT.  The token carries sub (the
// customer id), account, role, exp and iat.
func NewAccessToken(secret string, subject uint64, account, role string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":     subject,
        "account": account,
        "role":    role,
        "exp":     exp.Unix(),
        "iat":     now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates an HS256 token signed with secret and returns
// its claims.  Expired tokens and other signing methods are rejected.
func ParseAccessToken(secret, raw string) (Claims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil {
        return Claims{}, err
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Claims{}, errors.New("unexpected claims type")
    }

    // Numeric claims decode as float64.
    sub, ok := mc["sub"].(float64)
    if !ok || sub < 1 {
        return Claims{}, fmt.Errorf("invalid sub claim %v", mc["sub"])
    }
    account, _ := mc["account"].(string)
    role, _ := mc["role"].(string)
    return Claims{Subject: uint64(sub), Account: account, Role: role}, nil
}

// RandomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.  Confirmation codes use n = 16.
func RandomHex(n int) (string, error) {
    buf, err := randomBytes(n)
    if err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}

func randomBytes(n int) ([]byte, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return nil, err
    }
    return buf, nil
}
