package main

import (
	"fmt"
	"time"

	"roomsync/room"

	"github.com/golang-jwt/jwt/v4"
)

const (
	resumeTime        = time.Minute * 2
	resumeKeySendFreq = time.Minute
)

type resumeClaims struct {
	Handle room.Handle `json:"handle"`
	jwt.RegisteredClaims
}

// ResumeJWT signs handles so a reconnecting client can reclaim its own.
type ResumeJWT struct {
	jwtSecret string
}

func NewResumeJWT(jwtSecret string) *ResumeJWT {
	return &ResumeJWT{jwtSecret}
}

func (r ResumeJWT) GenerateResumeToken(handle room.Handle) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, resumeClaims{
		Handle:           handle,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(resumeTime))},
	})
	return token.SignedString([]byte(r.jwtSecret))
}

func (r ResumeJWT) HandleFromResumeToken(tokenString string) (room.Handle, bool) {
	if tokenString == "" {
		return 0, false
	}
	claims := &resumeClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(r.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}
	return claims.Handle, true
}
