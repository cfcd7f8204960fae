package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"

	"github.com/mapadmin/config-portal/internal/api/handlers"
	portalmiddleware "github.com/mapadmin/config-portal/internal/api/middleware"
	"github.com/mapadmin/config-portal/internal/auth"
	"github.com/mapadmin/config-portal/internal/config"
	"github.com/mapadmin/config-portal/internal/db/models"
	"github.com/mapadmin/config-portal/internal/generator"
	"github.com/mapadmin/config-portal/internal/themes"
)

// SetupRouter configures the HTTP router of the portal.
func SetupRouter(cfg *config.Config, db *gorm.DB, store *themes.Store) (http.Handler, error) {
	sessions := auth.NewSessions(cfg.SessionSecret, cfg.AdminUsername, cfg.AdminPasswordHash)
	view, err := handlers.NewView(sessions)
	if err != nil {
		return nil, err
	}

	// create services
	resourceService := models.NewResourceService(db)
	typeService := models.NewResourceTypeService(db)
	timestampService := models.NewConfigTimestampService(db)
	generatorClient := generator.NewClient(
		cfg.ConfigGeneratorServiceURL, cfg.Tenant, cfg.ConfigGeneratorTimeout,
	)

	r := chi.NewRouter()

	// standard middleware
	r.Use(chimiddleware.RealIP)
	r.Use(portalmiddleware.Logging())
	r.Use(portalmiddleware.MethodOverride())

	// CORS configuration
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	r.Get("/login", handlers.ShowLogin(sessions, view))
	r.Post("/login", handlers.Login(sessions, view))
	r.Post("/logout", handlers.Logout(sessions))

	r.Group(func(r chi.Router) {
		r.Use(sessions.RequireLogin)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/resources", http.StatusSeeOther)
		})

		r.Route("/resources", func(r chi.Router) {
			r.Get("/", handlers.ListResources(resourceService, typeService, view))
			r.Post("/", handlers.CreateResource(resourceService, typeService, timestampService, view))
			r.Get("/new", handlers.NewResource(resourceService, typeService, view))
			r.Post("/import_maps", handlers.ImportMaps(generatorClient, resourceService, timestampService, view))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/edit", handlers.EditResource(resourceService, typeService, view))
				r.Post("/", handlers.UpdateResource(resourceService, typeService, timestampService, view))
				// HTML forms submit the cascaded delete as POST with a
				// "_method" override
				deleteCascaded := handlers.DeleteResourceCascaded(resourceService, timestampService, view)
				r.Post("/cascaded", deleteCascaded)
				r.Delete("/cascaded", deleteCascaded)
				r.Get("/hierarchy", handlers.ShowHierarchy(resourceService, typeService, view))
				r.Post("/import_children", handlers.ImportChildren(generatorClient, resourceService, timestampService, view))
			})
		})

		r.Route("/themes", func(r chi.Router) {
			r.Get("/", handlers.ListThemes(store, view))
			r.Get("/new", handlers.NewTheme(store, view))
			r.Get("/new/{gid}", handlers.NewTheme(store, view))
			r.Post("/create", handlers.CreateTheme(store, resourceService, view))
			r.Post("/create/{gid}", handlers.CreateTheme(store, resourceService, view))
			r.Get("/edit/{tid}", handlers.EditTheme(store, view))
			r.Get("/edit/{tid}/{gid}", handlers.EditTheme(store, view))
			r.Post("/update/{tid}", handlers.UpdateTheme(store, resourceService, view))
			r.Post("/update/{tid}/{gid}", handlers.UpdateTheme(store, resourceService, view))
			r.Get("/delete/{tid}", handlers.DeleteTheme(store, resourceService, view))
			r.Get("/delete/{tid}/{gid}", handlers.DeleteTheme(store, resourceService, view))
			r.Get("/move/{direction}/{tid}", handlers.MoveTheme(store, view))
			r.Get("/move/{direction}/{tid}/{gid}", handlers.MoveTheme(store, view))
			r.Get("/add_theme_group", handlers.AddThemeGroup(store, view))
			r.Get("/delete_theme_group/{gid}", handlers.DeleteThemeGroup(store, view))
			r.Post("/update_theme_group/{gid}", handlers.UpdateThemeGroup(store, view))
			r.Get("/move_theme_group/{direction}/{gid}", handlers.MoveThemeGroup(store, view))
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/hierarchy/{id}", handlers.APIHierarchy(resourceService))
			r.Get("/themes", handlers.APIThemes(store))
		})
	})

	return r, nil
}
