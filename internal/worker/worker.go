package worker

import (
	"log"
	"sync"
	"time"

	"github.com/ternbury/commentsync/internal/config"
	"github.com/ternbury/commentsync/internal/facebook"
	"github.com/ternbury/commentsync/internal/sentiment"
	"github.com/ternbury/commentsync/internal/store"
)

// Worker schedules periodic bulk syncs. Only one sync runs at a time: a
// tick that lands while a run is still in flight is skipped.
type Worker struct {
	Store    store.Store
	Graph    *facebook.Client
	Analyzer sentiment.Analyzer
	Config   *config.AppConfig
	Ticker   *time.Ticker
	StopChan chan bool
	mu       sync.Mutex
	running  bool
	active   bool
}

func NewWorker(st store.Store, graph *facebook.Client, analyzer sentiment.Analyzer, cfg *config.AppConfig) *Worker {
	return &Worker{
		Store:    st,
		Graph:    graph,
		Analyzer: analyzer,
		Config:   cfg,
		StopChan: make(chan bool),
	}
}

func (w *Worker) Start(interval time.Duration) {
	w.mu.Lock()
	if w.active {
		w.mu.Unlock()
		log.Println("Worker: Scheduler already active, use Restart to change interval")
		return
	}
	w.active = true
	w.mu.Unlock()

	w.Ticker = time.NewTicker(interval)
	go func() {
		defer func() {
			w.mu.Lock()
			w.active = false
			w.mu.Unlock()
		}()
		for {
			select {
			case <-w.Ticker.C:
				w.SyncAll()
			case <-w.StopChan:
				w.Ticker.Stop()
				return
			}
		}
	}()
	log.Printf("Background worker started with interval: %v", interval)
}

func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.active {
		w.mu.Unlock()
		log.Println("Worker: Scheduler not active")
		return
	}
	w.mu.Unlock()

	w.StopChan <- true
	log.Println("Background worker stopped")
}

func (w *Worker) Restart(interval time.Duration) {
	w.mu.Lock()
	isActive := w.active
	w.mu.Unlock()

	if isActive {
		w.Stop()
		time.Sleep(100 * time.Millisecond)
	}
	w.Start(interval)
}

func (w *Worker) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// SyncAll runs a full bulk sync if one is not already in progress.
func (w *Worker) SyncAll() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		log.Println("Worker: Sync already in progress, skipping...")
		return
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	summary := RunBulkSync(w.Store, w.Graph, w.Analyzer, w.Config, Options{
		Classify: true,
		Reply:    true,
	})
	if summary != nil {
		log.Printf("Worker: Completed sync run %s: %d ok, %d failed, %d skipped",
			summary.RunID, summary.Succeeded, summary.Failed, summary.Skipped)
	}
}
