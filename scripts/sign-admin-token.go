package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signs a short-lived admin bearer token for local testing:
//
//	IDENTITY_SECRET=... go run scripts/sign-admin-token.go <admin-user-id>
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/sign-admin-token.go <admin-user-id>\n")
		os.Exit(1)
	}

	secret := os.Getenv("IDENTITY_SECRET")
	if secret == "" {
		fmt.Fprintf(os.Stderr, "Error: IDENTITY_SECRET is not set\n")
		os.Exit(1)
	}
	issuer := os.Getenv("IDENTITY_ISSUER")
	if issuer == "" {
		issuer = "opsdesk"
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":   issuer,
		"sub":   os.Args[1],
		"admin": true,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(signed)
}
