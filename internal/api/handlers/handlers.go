package handlers

import (
	"database/sql"

	"github.com/ternbury/commentsync/internal/config"
	"github.com/ternbury/commentsync/internal/facebook"
	"github.com/ternbury/commentsync/internal/sentiment"
	"github.com/ternbury/commentsync/internal/stats"
	"github.com/ternbury/commentsync/internal/store"
	"github.com/ternbury/commentsync/internal/worker"
)

type Handler struct {
	Store    store.Store
	Graph    *facebook.Client
	Analyzer sentiment.Analyzer
	Stats    *stats.Service
	Config   *config.AppConfig
	Worker   *worker.Worker
	DBConn   *sql.DB
}

func NewHandler(st store.Store, graph *facebook.Client, analyzer sentiment.Analyzer, statsSvc *stats.Service, cfg *config.AppConfig, w *worker.Worker, dbConn *sql.DB) *Handler {
	return &Handler{
		Store:    st,
		Graph:    graph,
		Analyzer: analyzer,
		Stats:    statsSvc,
		Config:   cfg,
		Worker:   w,
		DBConn:   dbConn,
	}
}
