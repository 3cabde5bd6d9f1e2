package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"platewatch/internal/config"
	"platewatch/internal/repository"
	"platewatch/internal/service"
	"platewatch/internal/storage"
)

type HandlerSet struct {
	log       zerolog.Logger
	cfg       *config.AppConfig
	store     repository.SightingStore
	images    *storage.ImageStore
	sightings *service.SightingService
	restore   *service.RestoreService
	db        *pgxpool.Pool
	cache     *redis.Client
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	store repository.SightingStore,
	images *storage.ImageStore,
	db *pgxpool.Pool,
	cache *redis.Client,
) HandlerSet {
	sightings := service.NewSightingService(store, images, cache, cfg.Redis.CarInfoTTL, cfg.Uploads.MaxBytes, log)
	restore := service.NewRestoreService(store, images, cfg.Uploads.MaxBytes, log)

	return HandlerSet{
		log:       log,
		cfg:       cfg,
		store:     store,
		images:    images,
		sightings: sightings,
		restore:   restore,
		db:        db,
		cache:     cache,
	}
}

func (h HandlerSet) Register(router *gin.Engine) {
	router.GET("/healthz", h.Health)

	router.GET("/", h.Index)
	router.GET("/add", h.ShowAdd)
	router.POST("/add", h.HandleAdd)
	router.GET("/search", h.Search)
	router.GET("/edit/:id", h.ShowEdit)
	router.POST("/edit/:id", h.HandleEdit)
	router.POST("/delete/:id", h.HandleDelete)
	router.GET("/image/:filename", h.ServeImage)
	router.GET("/bulk_upload", h.ShowBulkUpload)
	router.POST("/bulk_upload", h.HandleBulkUpload)

	router.GET("/export/csv", h.ExportCSV)
	router.GET("/export/seed", h.ExportSeed)
	router.GET("/export/zip", h.ExportZip)

	api := router.Group("/api")
	api.GET("/car_info/:plate", h.CarInfo)
}

// Flash is one banner message carried across a redirect.
type Flash struct {
	Category string
	Message  string
}

// flash queues a message in the cookie session. Category and message are
// packed into one string so the session store needs no registered types.
func flash(c *gin.Context, category, message string) {
	session := sessions.Default(c)
	session.AddFlash(category + "|" + message)
	_ = session.Save()
}

// takeFlashes drains queued messages.
func takeFlashes(c *gin.Context) []Flash {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) > 0 {
		_ = session.Save()
	}

	flashes := make([]Flash, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		category, message, found := strings.Cut(s, "|")
		if !found {
			category, message = "info", s
		}
		flashes = append(flashes, Flash{Category: category, Message: message})
	}
	return flashes
}

func (h HandlerSet) render(c *gin.Context, status int, template string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Flashes"] = takeFlashes(c)
	c.HTML(status, template, data)
}

func (h HandlerSet) renderError(c *gin.Context, status int) {
	c.HTML(status, "error.html", gin.H{"Status": status})
}

func redirectHome(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}
