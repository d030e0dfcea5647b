// Command issuetoken prints a signed service token for API clients.
//
// Usage:
//
//	issuetoken -subject ap-ingest -scopes validations:write,validations:read -ttl 720h
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"finguard/internal/config"
	"finguard/internal/service"
)

func main() {
	subject := flag.String("subject", "", "client identifier carried in the sub claim")
	scopes := flag.String("scopes", service.ScopeValidate+","+service.ScopeRead, "comma-separated scopes")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		log.Fatal("-subject is required")
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var granted []string
	for _, s := range strings.Split(*scopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			granted = append(granted, s)
		}
	}

	token, expiry, err := service.NewTokenService(cfg.JWT).IssueToken(*subject, granted, *ttl)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Println(token)
	log.Printf("token for %s expires %s", *subject, expiry.Format(time.RFC3339))
}
