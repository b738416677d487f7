package restapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

const maxTxLimit = 200

// WalletHandler serves the wallet aggregator and per-wallet ledger reads.
type WalletHandler struct {
	wallets port.WalletStore
	ledger  port.LedgerClient
	txLimit int
}

// NewWalletHandler creates a WalletHandler. txLimit is the default page size
// of the transactions endpoint.
func NewWalletHandler(wallets port.WalletStore, ledger port.LedgerClient, txLimit int) *WalletHandler {
	if txLimit <= 0 {
		txLimit = 20
	}
	return &WalletHandler{wallets: wallets, ledger: ledger, txLimit: txLimit}
}

// walletsView is the list payload with the current selections.
type walletsView struct {
	Wallets         []entity.Wallet `json:"wallets"`
	ActiveWalletID  string          `json:"activeWalletId,omitempty"`
	DefaultWalletID string          `json:"defaultWalletId,omitempty"`
}

func (h *WalletHandler) List(c *gin.Context) {
	view := walletsView{Wallets: h.wallets.List()}
	if w, ok := h.wallets.Active(); ok {
		view.ActiveWalletID = w.ID
	}
	if w, ok := h.wallets.Default(); ok {
		view.DefaultWalletID = w.ID
	}
	respond(c, http.StatusOK, view)
}

func (h *WalletHandler) Add(c *gin.Context) {
	var in port.AddWalletInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	w, err := h.wallets.AddWallet(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusAccepted
	if w.State() != entity.WalletStatePending {
		status = http.StatusCreated
	}
	respond(c, status, w)
}

func (h *WalletHandler) Get(c *gin.Context) {
	w, ok := h.wallets.Get(c.Param("id"))
	if !ok {
		respondError(c, fmt.Errorf("%w: %s", entity.ErrWalletNotFound, c.Param("id")))
		return
	}
	respond(c, http.StatusOK, w)
}

func (h *WalletHandler) Remove(c *gin.Context) {
	if err := h.wallets.RemoveWallet(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Refresh and RefreshAll outlive a disconnecting client so the fetch still
// settles on the wallet; the per-fetch timeout bounds them.
func (h *WalletHandler) Refresh(c *gin.Context) {
	w, err := h.wallets.RefreshWallet(context.WithoutCancel(c.Request.Context()), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, w)
}

func (h *WalletHandler) RefreshAll(c *gin.Context) {
	respond(c, http.StatusOK, h.wallets.RefreshAll(context.WithoutCancel(c.Request.Context())))
}

func (h *WalletHandler) SetDefault(c *gin.Context) {
	if err := h.wallets.SetDefault(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.Get(c)
}

func (h *WalletHandler) SetActive(c *gin.Context) {
	if err := h.wallets.SetActive(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.Get(c)
}

func (h *WalletHandler) ClearAll(c *gin.Context) {
	h.wallets.ClearAll()
	c.Status(http.StatusNoContent)
}

// Transactions returns recent transactions of a tracked wallet.
func (h *WalletHandler) Transactions(c *gin.Context) {
	w, ok := h.wallets.Get(c.Param("id"))
	if !ok {
		respondError(c, fmt.Errorf("%w: %s", entity.ErrWalletNotFound, c.Param("id")))
		return
	}
	limit, err := h.limitParam(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if w.Provider == entity.ProviderDemo {
		respond(c, http.StatusOK, []entity.AccountTx{})
		return
	}
	txs, err := h.ledger.AccountTx(c.Request.Context(), w.Address, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, txs)
}

// overviewView flattens per-part errors to strings for JSON.
type overviewView struct {
	entity.AccountOverview
	Errors map[entity.OverviewPart]string `json:"errors,omitempty"`
}

// Overview returns lines, NFTs and transactions of a tracked wallet. Failed
// parts are reported alongside the ones that succeeded.
func (h *WalletHandler) Overview(c *gin.Context) {
	w, ok := h.wallets.Get(c.Param("id"))
	if !ok {
		respondError(c, fmt.Errorf("%w: %s", entity.ErrWalletNotFound, c.Param("id")))
		return
	}
	limit, err := h.limitParam(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	overview := h.ledger.AccountOverview(c.Request.Context(), w.Address, limit)
	view := overviewView{AccountOverview: overview}
	for part, partErr := range overview.Errors {
		if view.Errors == nil {
			view.Errors = make(map[entity.OverviewPart]string)
		}
		view.Errors[part] = partErr.Error()
	}
	respond(c, http.StatusOK, view)
}

func (h *WalletHandler) limitParam(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return h.txLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxTxLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d", maxTxLimit)
	}
	return limit, nil
}
