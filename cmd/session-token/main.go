// Package main issues profile API session tokens. Chat bot front ends (or an
// operator) call it to obtain a bearer token for one user in one group.
// Usage: session-token -user U -platform discord -bot main [-guild G] [-authority N] [-ttl 1h]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	hauth "turn-notify/internal/handler/http/auth"
	"turn-notify/internal/usecase/binding"
)

func main() {
	_ = godotenv.Load()

	var (
		sess   binding.Session
		ttl    time.Duration
		asJSON bool
	)
	flag.StringVar(&sess.UserID, "user", "", "Platform user id (required)")
	flag.StringVar(&sess.Platform, "platform", "", "Platform of the session: discord, telegram, feishu, lark, log (required)")
	flag.StringVar(&sess.BotID, "bot", "", "Bot id that received the command (required)")
	flag.StringVar(&sess.GuildID, "guild", "", "Group id; empty for a direct message")
	flag.IntVar(&sess.Authority, "authority", 1, fmt.Sprintf("Authority level; %d or more allows forced binds", binding.ForceAuthority))
	flag.DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	flag.BoolVar(&asJSON, "json", false, "Print a JSON object instead of the bare token")
	flag.Parse()

	if sess.UserID == "" || sess.Platform == "" || sess.BotID == "" {
		fmt.Fprintln(os.Stderr, "Error: -user, -platform and -bot are required")
		fmt.Fprintln(os.Stderr, "")
		flag.Usage()
		os.Exit(2)
	}
	if ttl <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -ttl must be positive")
		os.Exit(2)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET must be set")
		os.Exit(1)
	}

	now := time.Now()
	token, err := hauth.IssueToken([]byte(secret), sess, ttl, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !asJSON {
		fmt.Println(token)
		return
	}
	out := struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}{Token: token, ExpiresAt: now.Add(ttl).UTC()}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
