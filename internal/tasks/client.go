package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// queueDSNOptions keeps queue writers from failing on a busy sqlite file.
const queueDSNOptions = "?_journal=WAL&_timeout=5000&_busy_timeout=5000"

// Client runs the mirror retry and reconcile queues on a backlite client
// with its own SQLite file, separate from the relational store.
type Client struct {
	queue   *backlite.Client
	db      *sql.DB
	config  Config
	running atomic.Bool
}

func openQueueDB(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.DatabasePath+queueDSNOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	// Workers plus a few connections for enqueues from request handlers.
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// NewClient opens the queue database, installs the backlite schema and makes
// cfg the retry policy for mirror tasks.
func NewClient(cfg Config) (*Client, error) {
	if cfg.DatabasePath == "" {
		return nil, errors.New("tasks database path is required")
	}

	db, err := openQueueDB(cfg)
	if err != nil {
		return nil, err
	}

	queue, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{prefix: "[TASK]"},
	})
	if err == nil {
		err = queue.Install()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up mirror task queue: %w", err)
	}

	setPolicy(cfg)
	return &Client{queue: queue, db: db, config: cfg}, nil
}

// Register adds queues to the client. Call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.queue.Register(q)
	}
}

// Start runs the workers until Stop. Calling it twice is a no-op.
func (c *Client) Start(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	log.Printf("[TASK] Mirror task queue started with %d workers (max %d attempts, %v apart)",
		c.config.Workers, c.config.MaxRetries, c.config.RetryDelay)
	c.queue.Start(ctx)
}

// Stop waits for running tasks until ctx is done. It reports whether every
// worker finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.running.Load() {
		return true
	}
	log.Println("[TASK] Stopping mirror task queue...")
	if !c.queue.Stop(ctx) {
		log.Println("[TASK] Mirror task queue stop timed out, unfinished tasks will be released")
		return false
	}
	log.Println("[TASK] Mirror task queue stopped")
	return true
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// EnqueueMirrorRetry queues a resync of one mirrored row.
func (c *Client) EnqueueMirrorRetry(ctx context.Context, collection string, id uint) error {
	if _, err := c.queue.Add(MirrorRetryTask{Collection: collection, ID: id}).Ctx(ctx).Save(); err != nil {
		return fmt.Errorf("failed to enqueue mirror retry for %s %d: %w", collection, id, err)
	}
	return nil
}

// EnqueueReconcile queues a full mirror reconcile and returns its task id.
func (c *Client) EnqueueReconcile(ctx context.Context, reason string) (string, error) {
	ids, err := c.queue.Add(MirrorReconcileTask{Reason: reason}).Ctx(ctx).Save()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue mirror reconcile: %w", err)
	}
	return ids[0], nil
}

func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.queue.Status(ctx, taskID)
}

var statusNames = map[backlite.TaskStatus]string{
	backlite.TaskStatusPending:  "pending",
	backlite.TaskStatusRunning:  "running",
	backlite.TaskStatusSuccess:  "success",
	backlite.TaskStatusFailure:  "failure",
	backlite.TaskStatusNotFound: "not_found",
}

// StatusName renders a task status for API responses.
func StatusName(status backlite.TaskStatus) string {
	if name, ok := statusNames[status]; ok {
		return name
	}
	return "unknown"
}

// queueLogger routes backlite's logs through the standard logger.
type queueLogger struct {
	prefix string
}

func (l queueLogger) Info(message string, params ...any) {
	log.Printf(l.prefix+" "+message, params...)
}

func (l queueLogger) Error(message string, params ...any) {
	log.Printf(l.prefix+" ERROR "+message, params...)
}
