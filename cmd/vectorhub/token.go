package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/wordflowlab/vectorhub/pkg/appconfig"
	"github.com/wordflowlab/vectorhub/server/auth"
)

func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	configPath := fs.String("config", "", "Optional YAML config file")
	subject := fs.String("subject", "", "Token subject (required)")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		return errors.New("-subject is required")
	}

	cfg, err := appconfig.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Auth.JWT.Secret == "" {
		return errors.New("auth.jwt.secret is not configured")
	}

	token, exp, err := auth.NewJWTAuthenticator(auth.JWTConfig{
		Secret:   cfg.Auth.JWT.Secret,
		Issuer:   cfg.Auth.JWT.Issuer,
		Audience: cfg.Auth.JWT.Audience,
		TTL:      *ttl,
	}).GenerateToken(*subject)
	if err != nil {
		return err
	}

	fmt.Println(token)
	fmt.Printf("expires: %s\n", exp.Format(time.RFC3339))
	return nil
}
