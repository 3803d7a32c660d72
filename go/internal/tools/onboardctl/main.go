// Command onboardctl keeps onboarding drafts on local disk and submits them to the server.
//
//	onboardctl [flags] add|list|rm|clear|export|submit|offboard|health|ledger [args]
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/reckman-cloud/employee-admin-app/go/internal/api"
	"github.com/reckman-cloud/employee-admin-app/go/internal/drafts"
	"github.com/reckman-cloud/employee-admin-app/go/internal/i18n"
)

func main() {
	server := flag.String("server", envOr("ONBOARDCTL_SERVER", "http://localhost:8080"), "server base URL")
	dir := flag.String("dir", envOr("ONBOARDCTL_DIR", defaultDir()), "draft storage directory")
	locale := flag.String("locale", envOr("ONBOARDCTL_LOCALE", "en"), "message locale")
	user := flag.String("as", os.Getenv("ONBOARDCTL_USER"), "principal to send as")
	roles := flag.String("roles", "it_admin", "comma-separated roles for -as")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	translator, err := i18n.New(*locale)
	if err != nil {
		log.Fatal().Err(err).Msg("load translations")
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("create draft directory")
	}

	var principal *api.Principal
	if *user != "" {
		principal = &api.Principal{
			IdentityProvider: "onboardctl",
			UserID:           *user,
			UserDetails:      *user,
			UserRoles:        strings.Split(*roles, ","),
		}
	}

	c := &cli{
		out:        os.Stdout,
		drafts:     drafts.NewApp(drafts.NewFileStore(*dir), clockwork.NewRealClock()),
		api:        newAPIClient(*server, principal),
		serverURL:  strings.TrimRight(*server, "/"),
		principal:  principal,
		translator: translator,
		httpClient: http.DefaultClient,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := c.run(ctx, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "onboardctl:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, "onboardctl")
}
