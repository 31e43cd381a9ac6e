package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lotto/lottery"
	"lotto/service"
)

// LotteryController serves the lottery endpoints
type LotteryController struct {
	lotteryService service.LotteryService
}

// NewLotteryController registers the lottery routes on g
func NewLotteryController(g *gin.RouterGroup, lotteryService service.LotteryService) *LotteryController {
	a := &LotteryController{lotteryService: lotteryService}
	a.initRouter(g)
	return a
}

func (a *LotteryController) initRouter(g *gin.RouterGroup) {
	g.GET("", a.state)
	g.GET("/players", a.players)
	g.GET("/rounds", a.rounds)

	g.POST("/enter", requireCaller(), a.enter)
	g.POST("/pick-winner", requireCaller(), a.pickWinner)
}

func (a *LotteryController) state(c *gin.Context) {
	state, err := a.lotteryService.GetState(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStateResponse(state))
}

func (a *LotteryController) players(c *gin.Context) {
	players, err := a.lotteryService.GetPlayers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, playersResponse{Players: players, Count: len(players)})
}

func (a *LotteryController) rounds(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(c, fmt.Errorf("%w: invalid limit %q", errBadRequest, raw))
			return
		}
		limit = parsed
	}

	rounds, err := a.lotteryService.ListRounds(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]roundResponse, 0, len(rounds))
	for _, r := range rounds {
		out = append(out, newRoundResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"rounds": out})
}

func (a *LotteryController) enter(c *gin.Context) {
	var req enterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	stake, err := lottery.ParseAmount(req.Stake)
	if err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	if err := a.lotteryService.Enter(c.Request.Context(), callerFrom(c), stake); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *LotteryController) pickWinner(c *gin.Context) {
	result, err := a.lotteryService.PickWinner(c.Request.Context(), callerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newResultResponse(result))
}
