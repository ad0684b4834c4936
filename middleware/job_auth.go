package middleware

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JobSubject is the subject scheduler tokens must carry.
const JobSubject = "fitlog-jobs"

// JobAuthMiddleware accepts HS256 tokens signed with the job secret. Used by
// external schedulers that trigger the notifier.
func JobAuthMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(key) == 0 {
				respondWithError(w, http.StatusServiceUnavailable, "Job trigger is not configured")
				return
			}

			tokenString, ok := bearerToken(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return key, nil
			},
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
				jwt.WithSubject(JobSubject),
				jwt.WithExpirationRequired(),
			)
			if err != nil || !token.Valid {
				log.Printf("Job token rejected: %v", err)
				respondWithError(w, http.StatusUnauthorized, "Invalid job token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

var ErrNoJobSecret = errors.New("job secret is not configured")

// NewJobToken signs a scheduler token valid for ttl.
func NewJobToken(secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNoJobSecret
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   JobSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString([]byte(secret))
}
