package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lotto/lottery"
	"lotto/service"
)

// AccountController serves balance and funding endpoints
type AccountController struct {
	accountService service.AccountService
}

// NewAccountController registers the account routes on g
func NewAccountController(g *gin.RouterGroup, accountService service.AccountService) *AccountController {
	a := &AccountController{accountService: accountService}
	a.initRouter(g)
	return a
}

func (a *AccountController) initRouter(g *gin.RouterGroup) {
	g.GET("/:address", a.get)
	g.GET("/:address/history", a.history)
	g.POST("/:address/fund", a.fund)
	g.PUT("/:address/payments", a.setPayments)
}

func (a *AccountController) get(c *gin.Context) {
	address, err := addressParam(c, "address")
	if err != nil {
		writeError(c, err)
		return
	}

	account, err := a.accountService.GetAccount(c.Request.Context(), address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAccountResponse(account))
}

func (a *AccountController) fund(c *gin.Context) {
	address, err := addressParam(c, "address")
	if err != nil {
		writeError(c, err)
		return
	}

	var req fundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	amount, err := lottery.ParseAmount(req.Amount)
	if err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	account, err := a.accountService.Fund(c.Request.Context(), address, amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAccountResponse(account))
}

func (a *AccountController) setPayments(c *gin.Context) {
	address, err := addressParam(c, "address")
	if err != nil {
		writeError(c, err)
		return
	}

	var req paymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	if err := a.accountService.SetAcceptsPayments(c.Request.Context(), address, *req.Accepts); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *AccountController) history(c *gin.Context) {
	address, err := addressParam(c, "address")
	if err != nil {
		writeError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := a.accountService.History(c.Request.Context(), address, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]historyResponse, 0, len(entries))
	for _, h := range entries {
		out = append(out, newHistoryResponse(h))
	}
	c.JSON(http.StatusOK, gin.H{"history": out})
}
