// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	accountsfeature "github.com/dalemusser/deruta/internal/app/features/accounts"
	calendarfeature "github.com/dalemusser/deruta/internal/app/features/calendar"
	groupsfeature "github.com/dalemusser/deruta/internal/app/features/groups"
	healthfeature "github.com/dalemusser/deruta/internal/app/features/health"
	historyfeature "github.com/dalemusser/deruta/internal/app/features/history"
	itemsfeature "github.com/dalemusser/deruta/internal/app/features/items"
	"github.com/dalemusser/deruta/internal/app/store/entries"
	groupstore "github.com/dalemusser/deruta/internal/app/store/groups"
	membershipstore "github.com/dalemusser/deruta/internal/app/store/memberships"
	"github.com/dalemusser/deruta/internal/app/system/identity"
	"github.com/dalemusser/deruta/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for deRuta.
//
// Every feature registers its endpoints at the root, since the client
// calls them by flat path names. Health is mounted under /health.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Postgres, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Get("/", healthHandler.Alive)

	// Group-owned documents, mirrored into their audit collections
	itemsfeature.Register(r, itemsfeature.NewHandler(entries.NewItems(deps.MongoDatabase, deps.Mirror), logger))
	calendarfeature.Register(r, calendarfeature.NewHandler(entries.NewCalendar(deps.MongoDatabase, deps.Mirror), logger))
	historyfeature.Register(r, historyfeature.NewHandler(deps.Mirror.Store(), logger))

	// Groups and memberships
	groupsfeature.Register(r, groupsfeature.NewHandler(
		groupstore.New(deps.Postgres), membershipstore.New(deps.Postgres), logger))

	// Accounts
	idClient := identity.New(appCfg.IdentityBaseURL, appCfg.IdentityAPIKey, nil)
	accountsfeature.Register(r.With(ratelimit.PerIP(deps.ResetPerIP, logger)),
		accountsfeature.NewHandler(idClient, deps.ResetPerEmail, logger))

	return r, nil
}
