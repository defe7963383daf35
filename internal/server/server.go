package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/assist-by/arena/internal/scheduler"
)

const schedulerBasePath = "/api/scheduler"

// secretHeader는 제어 요청 인증에 쓰이는 헤더 이름입니다
// 쿼리 파라미터 secret으로도 같은 값을 전달할 수 있습니다
const secretHeader = "X-Arena-Secret"

// Handler는 스케줄러 제어용 HTTP 표면입니다
// 모든 엔드포인트는 공유 시크릿으로 보호됩니다
type Handler struct {
	router    *gin.Engine
	scheduler *scheduler.Scheduler
	secret    string
	log       *logrus.Entry
}

// NewHandler는 새로운 제어 핸들러를 생성합니다
func NewHandler(sched *scheduler.Scheduler, secret string, logger *logrus.Logger) *Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{
		router:    router,
		scheduler: sched,
		secret:    secret,
		log:       logger.WithField("component", "server"),
	}
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	sched := h.router.Group(schedulerBasePath)
	sched.Use(h.authMiddleware())
	{
		sched.GET("/status", h.getStatus)
		sched.POST("/resume", h.resume)
		sched.POST("/pause", h.pause)
		sched.POST("/close-all-positions", h.closeAllPositions)
	}
}

// authMiddleware는 공유 시크릿을 검사합니다
// 시크릿이 설정되지 않은 서버는 어떤 제어 요청도 받지 않습니다
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "제어 시크릿이 설정되지 않았습니다",
			})
			return
		}

		provided := c.GetHeader(secretHeader)
		if provided == "" {
			provided = c.Query("secret")
		}
		if provided != h.secret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "인증 실패",
			})
			return
		}

		c.Next()
	}
}

func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.Status())
}

func (h *Handler) resume(c *gin.Context) {
	h.scheduler.Resume()

	h.log.Info("제어 요청으로 거래가 재개되었습니다")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "거래가 재개되었습니다",
	})
}

type pauseRequest struct {
	ClosePositions bool `json:"closePositions"`
}

func (h *Handler) pause(c *gin.Context) {
	var req pauseRequest
	// 본문이 없는 요청은 포지션을 유지한 채 일시 정지합니다
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": fmt.Sprintf("요청 본문 파싱 실패: %v", err),
			})
			return
		}
	}

	closed, errs := h.scheduler.Pause(req.ClosePositions)

	h.log.WithField("closePositions", req.ClosePositions).Info("제어 요청으로 거래가 일시 정지되었습니다")

	message := "거래가 일시 정지되었습니다"
	if req.ClosePositions {
		message = fmt.Sprintf("거래가 일시 정지되고 %d개 포지션이 청산되었습니다", closed)
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"closed":  closed,
		"errors":  len(errs),
	})
}

func (h *Handler) closeAllPositions(c *gin.Context) {
	closed, errs := h.scheduler.CloseAllPositions()

	h.log.WithField("closed", closed).Info("제어 요청으로 전체 포지션 청산이 실행되었습니다")

	c.JSON(http.StatusOK, gin.H{
		"success": len(errs) == 0,
		"closed":  closed,
		"errors":  len(errs),
		"message": fmt.Sprintf("%d개 포지션이 청산되었습니다", closed),
	})
}
