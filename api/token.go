package api

import (
	"context"
	"crypto/rsa"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/kostiamol/offsetms/log"
	"github.com/pkg/errors"
)

const authHeader = "Authorization"

type ctxKey string

const subjectKey ctxKey = "sub"

type token struct {
	publicKey *rsa.PublicKey
	log       log.Logger
}

func newToken(pubKey string, l log.Logger) (*token, error) {
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pubKey))
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse RSA public key")
	}
	return &token{publicKey: publicKey, log: l}, nil
}

func (t *token) validator(next http.HandlerFunc, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(authHeader) == "" {
			respError(w, t.log, newAuthorizationError())
			return
		}

		claims, err := t.getTokenClaims(r)
		if err != nil {
			t.log.Debugf("%s: %s", name, err)
			respError(w, t.log, newBadJWTError())
			return
		}

		if sub, ok := claims["sub"].(string); ok {
			r = r.WithContext(context.WithValue(r.Context(), subjectKey, sub))
		}
		next(w, r)
	}
}

func (t *token) getTokenClaims(r *http.Request) (jwt.MapClaims, error) {
	h := strings.Split(r.Header.Get(authHeader), " ")
	if len(h) < 2 || !strings.EqualFold(h[0], "Bearer") {
		return nil, errors.Errorf("bad %s header", authHeader)
	}

	token, err := jwt.Parse(h[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.publicKey, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "can not parse token")
	}

	if token == nil {
		return nil, errors.New("token is empty")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("token is invalid")
	}

	return claims, nil
}

func subject(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey).(string)
	return s
}
