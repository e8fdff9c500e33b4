// Command devtoken mints an access token for calling the API locally.
// Production tokens come from the identity service.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/azvaska/flight-gorilla-sub000/internal/config"
	"github.com/azvaska/flight-gorilla-sub000/pkg/jwt"
	"github.com/google/uuid"
)

func main() {
	userFlag := flag.String("user", "", "user id (a random one when empty)")
	emailFlag := flag.String("email", "dev@example.com", "email claim")
	rolesFlag := flag.String("roles", "customer", "comma separated roles")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if cfg.Server.Environment == "production" {
		log.Fatal("❌ devtoken refuses to run with ENVIRONMENT=production")
	}

	userID := uuid.New()
	if *userFlag != "" {
		userID, err = uuid.Parse(*userFlag)
		if err != nil {
			log.Fatalf("❌ Invalid -user: %v", err)
		}
	}

	var roles []string
	for _, r := range strings.Split(*rolesFlag, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}

	service := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenExpiry)
	token, err := service.GenerateAccessToken(userID, *emailFlag, roles)
	if err != nil {
		log.Fatalf("❌ Failed to sign token: %v", err)
	}

	fmt.Printf("user_id: %s\n", userID)
	fmt.Printf("expires_in: %s\n", cfg.JWT.AccessTokenExpiry)
	fmt.Printf("Authorization: Bearer %s\n", token)
}
