package restapi

import (
	"fmt"
	"net/http"
	"time"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PreferenceStore holds the persisted UI preferences.
type PreferenceStore interface {
	Get() entity.Preferences
	Update(p entity.Preferences) (entity.Preferences, error)
}

// DashboardHandler serves the read models behind the dashboard panels.
type DashboardHandler struct {
	wallets port.WalletStore
	assets  port.AssetCollector
	market  port.MarketService
	network port.NetworkService
	prefs   PreferenceStore
	started time.Time
}

func NewDashboardHandler(
	wallets port.WalletStore,
	assets port.AssetCollector,
	market port.MarketService,
	network port.NetworkService,
	prefs PreferenceStore,
) *DashboardHandler {
	return &DashboardHandler{
		wallets: wallets,
		assets:  assets,
		market:  market,
		network: network,
		prefs:   prefs,
		started: time.Now(),
	}
}

func (h *DashboardHandler) Assets(c *gin.Context) {
	respond(c, http.StatusOK, h.assets.Snapshot())
}

// CollectAssets runs a collection over every live wallet and returns it.
// NFT metadata keeps resolving after the response.
func (h *DashboardHandler) CollectAssets(c *gin.Context) {
	collection, err := h.assets.Collect(c.Request.Context(), h.wallets.Addresses())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, collection)
}

// marketView is the market panel payload.
type marketView struct {
	entity.MarketSnapshot
	Events []entity.AlertEvent `json:"events"`
}

func (h *DashboardHandler) Market(c *gin.Context) {
	respond(c, http.StatusOK, marketView{MarketSnapshot: h.market.Snapshot(), Events: h.market.Events()})
}

func (h *DashboardHandler) Network(c *gin.Context) {
	respond(c, http.StatusOK, h.network.Snapshot())
}

func (h *DashboardHandler) Preferences(c *gin.Context) {
	respond(c, http.StatusOK, h.prefs.Get())
}

func (h *DashboardHandler) UpdatePreferences(c *gin.Context) {
	var in entity.Preferences
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	prefs, err := h.prefs.Update(in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, prefs)
}

func (h *DashboardHandler) Alerts(c *gin.Context) {
	respond(c, http.StatusOK, h.market.Alerts())
}

// addAlertRequest is the body of POST /alerts.
type addAlertRequest struct {
	Direction entity.AlertDirection `json:"direction" binding:"required"`
	Threshold decimal.Decimal       `json:"threshold"`
	Note      string                `json:"note"`
}

func (h *DashboardHandler) AddAlert(c *gin.Context) {
	var in addAlertRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	rule, err := h.market.AddAlert(entity.AlertRule{Direction: in.Direction, Threshold: in.Threshold, Note: in.Note})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, rule)
}

func (h *DashboardHandler) RemoveAlert(c *gin.Context) {
	if err := h.market.RemoveAlert(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Health reports liveness with a few cheap counters.
func (h *DashboardHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(h.started).Round(time.Second).String(),
		"wallets": len(h.wallets.List()),
	})
}
