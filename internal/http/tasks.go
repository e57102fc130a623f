package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/tasks"
)

const inlineReconcileTimeout = 10 * time.Minute

// TasksController handles mirror reconcile and task status endpoints.
type TasksController struct {
	queue      TaskQueue
	reconciler Reconciler
}

// NewTasksController creates a new TasksController. Either dependency may be
// nil, but not both.
func NewTasksController(queue TaskQueue, reconciler Reconciler) *TasksController {
	return &TasksController{queue: queue, reconciler: reconciler}
}

// ResyncRequest is the optional body of a resync request.
type ResyncRequest struct {
	Reason string `json:"reason"`
}

// Resync handles POST /api/mirror/resync
// With a task queue the reconcile is enqueued and its task id returned.
// Otherwise it runs inline and the result is returned.
func (tc *TasksController) Resync(c *gin.Context) {
	var req ResyncRequest
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&req)
	}
	if req.Reason == "" {
		req.Reason = "api"
	}

	if tc.queue != nil {
		taskID, err := tc.queue.EnqueueReconcile(c.Request.Context(), req.Reason)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		respondAccepted(c, gin.H{
			"task_id": taskID,
			"type":    tasks.QueueMirrorReconcile,
			"message": "reconcile enqueued",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), inlineReconcileTimeout)
	defer cancel()

	result, err := tc.reconciler.ResyncAll(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"synced": result.Synced, "failed": result.Failed})
}

// GetTaskStatus handles GET /api/tasks/:id
// Returns the status of a specific task.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": tasks.StatusName(status),
	})
}
