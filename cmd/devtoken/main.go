// Command devtoken prints a bearer token for calling the API locally.  It
// signs with JWT_SECRET from the environment or .env file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/tour-seat-planner/internal/utils"
)

func main() {
	sub := flag.String("sub", "", "subject (user id)")
	role := flag.String("role", "TRAVELER", "TRAVELER, SUPPLIER or ADMIN")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	tok, err := utils.NewAccessToken(os.Getenv("JWT_SECRET"), *sub, *role, *ttl)
	if err != nil {
		log.Fatalf("devtoken: %v", err)
	}
	fmt.Println(tok.Token)
}
