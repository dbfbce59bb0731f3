package job

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/genz27/LightSource/internal/services"
	"github.com/genz27/LightSource/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamJobProgress upgrades the connection and pushes the job's status view
// once per second until the job reaches a terminal state or the client
// disconnects.
func StreamJobProgress(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, err := services.GetJob(id); err != nil {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Job not found"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Uint("job_id", id), zap.Error(err))
		return
	}
	defer conn.Close()

	// drain client frames so close messages are noticed
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		info, err := services.GetJobStatus(id)
		if err != nil {
			return
		}
		if err := conn.WriteJSON(statusResponse(info)); err != nil {
			return
		}
		if info.Job.Status.IsTerminal() {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}

		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}
