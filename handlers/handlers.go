package handlers

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"lyricloud/cache"
	"lyricloud/cloud"
	"lyricloud/config"
	"lyricloud/metrics"
	"lyricloud/models"
	"lyricloud/services"
)

type Handler struct {
	cfg      *config.Config
	cache    *cache.LyricsCache
	pipeline *services.Pipeline
}

// New builds the handler set. c may be nil when caching is disabled.
func New(cfg *config.Config, c *cache.LyricsCache, p *services.Pipeline) *Handler {
	return &Handler{
		cfg:      cfg,
		cache:    c,
		pipeline: p,
	}
}

// Router wires every route onto a fresh gin engine.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), CORS(h.cfg.AllowOrigins))

	r.GET("/", h.Index)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	{
		api.POST("/lyrics", h.Lyrics)
		api.GET("/cloud.png", h.CloudPNG)
		api.GET("/health", h.Health)
	}
	return r
}

// Index renders the form and, when ?title= is present, the lyrics and cloud
// for that title.
func (h *Handler) Index(c *gin.Context) {
	data := pageData{
		Title:         c.Query("title"),
		Artist:        c.Query("artist"),
		DefaultArtist: h.pipeline.DefaultArtist(),
	}

	status := http.StatusOK
	if _, asked := c.GetQuery("title"); asked {
		res, err := h.pipeline.Run(c.Request.Context(), data.Title, data.Artist)
		if err != nil {
			status = services.HTTPStatus(err)
			data.Message = services.UserMessage(err)
		} else {
			data.Lyrics = res.Lyrics.Text
			data.Image = dataURI(res.Cloud.PNG)
			data.Source = res.Source
		}
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(c.Writer, data); err != nil {
		log.Printf("[handlers] template error: %v", err)
	}
}

func (h *Handler) Lyrics(c *gin.Context) {
	var req models.LyricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	res, err := h.pipeline.Run(c.Request.Context(), req.Title, req.Artist)
	if err != nil {
		c.JSON(services.HTTPStatus(err), gin.H{"error": services.UserMessage(err)})
		return
	}

	c.JSON(http.StatusOK, models.LyricsResponse{
		Title:  res.Query.Title,
		Artist: res.Query.Artist,
		Source: res.Source,
		Cached: res.Cached,
		Lyrics: res.Lyrics.Text,
		Image:  base64.StdEncoding.EncodeToString(res.Cloud.PNG),
		Width:  res.Cloud.Width,
		Height: res.Cloud.Height,
		Words:  res.Cloud.Words,
	})
}

// CloudPNG serves the cloud image directly. An optional width scales it down.
func (h *Handler) CloudPNG(c *gin.Context) {
	width := 0
	if v := c.Query("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "width must be a positive integer"})
			return
		}
		width = n
	}

	res, err := h.pipeline.Run(c.Request.Context(), c.Query("title"), c.Query("artist"))
	if err != nil {
		c.JSON(services.HTTPStatus(err), gin.H{"error": services.UserMessage(err)})
		return
	}

	img := res.Cloud.PNG
	if width > 0 {
		img, err = cloud.Thumbnail(img, width)
		if err != nil {
			log.Printf("[handlers] thumbnail: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": services.MsgGeneric})
			return
		}
	}

	c.Data(http.StatusOK, "image/png", img)
}

func (h *Handler) Health(c *gin.Context) {
	body := gin.H{
		"status":        "ok",
		"cache_enabled": h.cache != nil,
	}
	if h.cache != nil {
		total, found, clouds := h.cache.Stats()
		body["cache_total"] = total
		body["cache_found"] = found
		body["cache_clouds"] = clouds
	}
	c.JSON(http.StatusOK, body)
}

func CORS(origins string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origins)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestLogger tags every request with an id and logs it once it finishes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)

		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		}).Info("[http] request")
	}
}

func dataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
