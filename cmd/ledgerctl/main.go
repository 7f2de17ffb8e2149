// Command ledgerctl issues credentials for operating the ledger backend.
//
//	ledgerctl admin-key            prints a new X-Admin-Key and the hash for ADMIN_API_KEY_HASH
//	ledgerctl token -sub ID [-admin] [-ttl 24h]
//	                               prints a JWT signed with JWT_SECRET
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/qorinti/ledger_backend/internal/platform/config"
	"github.com/qorinti/ledger_backend/internal/utils"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "admin-key":
		err = adminKey()
	case "token":
		err = token(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", slog.String("command", os.Args[1]), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ledgerctl admin-key | token -sub ID [-admin] [-ttl 24h]")
}

func adminKey() error {
	key, hash, err := utils.NewAdminAPIKey()
	if err != nil {
		return err
	}
	fmt.Printf("X-Admin-Key: %s\nADMIN_API_KEY_HASH=%s\n", key, hash)
	return nil
}

func token(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("sub", "", "driver or admin user ID")
	admin := fs.Bool("admin", false, "grant the admin role")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		return fmt.Errorf("-sub is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	role := ""
	if *admin {
		role = utils.RoleAdmin
	}
	signed, err := utils.GenerateJWT(*subject, role, cfg.JWTSecret, *ttl, cfg.JWTIssuer)
	if err != nil {
		return err
	}
	fmt.Println(signed)
	return nil
}
