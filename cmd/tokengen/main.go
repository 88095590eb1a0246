// Command tokengen mints an access token for a participant identity using
// the shared signing key. Tokens are handed out out-of-band; the server
// itself has no mint endpoint.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"parasol/internal/jwttoken"
	"parasol/internal/platform/config"
	id "parasol/pkg/domain"
)

func main() {
	identity := flag.String("identity", "", "participant identity to embed in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	participant, err := id.ParseParticipantID(*identity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid identity: %v\n", err)
		os.Exit(1)
	}

	cfg := config.FromEnv()
	service := jwttoken.NewJWTService(cfg.JWTSigningKey, "parasol", "parasol-api")

	token, err := service.GenerateAccessToken(participant, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
