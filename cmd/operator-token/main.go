// Command operator-token prints a JWT accepted by the monitor's operator API.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"geo-alert/internal/config"
	"geo-alert/pkg/utils"
)

func main() {
	operatorID := flag.String("operator", "", "Operator ID placed in the token")
	email := flag.String("email", "", "Operator email placed in the token")
	ttl := flag.Duration("ttl", 12*time.Hour, "Token lifetime")
	configPath := flag.String("config", ".", "Directory holding app.env")
	flag.Parse()

	if *operatorID == "" {
		log.Fatal("-operator is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.OperatorAPIEnabled() {
		log.Fatal("JWT_SECRET is not set; the operator API is disabled")
	}

	token, err := utils.IssueOperatorToken(cfg.JWTSecret, *operatorID, *email, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
