package main

import (
	"flag"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/ternbury/commentsync/internal/api/handlers"
	"github.com/ternbury/commentsync/internal/cli"
	"github.com/ternbury/commentsync/internal/config"
	"github.com/ternbury/commentsync/internal/facebook"
	"github.com/ternbury/commentsync/internal/sentiment"
	"github.com/ternbury/commentsync/internal/stats"
	"github.com/ternbury/commentsync/internal/store"
	"github.com/ternbury/commentsync/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	setToken := flag.Bool("set-token", false, "Prompt for an access token and store it")
	getToken := flag.Bool("get-token", false, "Run the browser grant flow to obtain a token")
	validateToken := flag.Bool("validate-token", false, "Check the stored token against the platform")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalln(err)
	}

	if *setToken {
		cli.HandleSetToken(cfg)
		return
	}
	if *getToken {
		cli.HandleGetToken(cfg)
		return
	}
	if *validateToken {
		cli.HandleValidateToken(cfg)
		return
	}

	db, err := config.LoadDatabase()
	if err != nil {
		log.Fatalln(err)
	}
	defer db.Close()

	st := store.NewPostgres(db)
	graph := facebook.NewClient(cfg.RequestTimeout, cfg.GraphAPIVersion)

	var analyzer sentiment.Analyzer = sentiment.LexiconAnalyzer{}
	if cfg.OpenAIKey != "" {
		analyzer = sentiment.NewOpenAIAnalyzer(cfg.OpenAIKey, cfg.OpenAIModel)
		log.Println("Sentiment: using model-backed analyzer")
	} else {
		log.Println("Sentiment: no API key configured, using lexicon analyzer")
	}

	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	statsSvc := stats.NewService(st, cache)

	w := worker.NewWorker(st, graph, analyzer, cfg)
	w.Start(cfg.SyncInterval)

	h := handlers.NewHandler(st, graph, analyzer, statsSvc, cfg, w, db)

	r := gin.Default()

	r.GET("/healthz", h.HealthCheckHandler)

	api := r.Group("/api")
	{
		api.POST("/content/:content_id/comments/fetch", h.FetchCommentsHandler)
		api.GET("/content/:content_id/comments", h.GetCommentsHandler)
		api.POST("/comments/bulk-sync", h.BulkSyncHandler)
		api.POST("/comments/:comment_id/reply", h.ReplyHandler)
		api.DELETE("/comments/:comment_id", h.DeleteCommentHandler)
		api.GET("/stats/sentiment", h.SentimentStatsHandler)
		api.GET("/stats/replies", h.ReplyStatsHandler)
		api.GET("/posts", h.PostsHandler)
	}

	if err := r.Run(*addr); err != nil {
		log.Fatalln(err)
	}
}
