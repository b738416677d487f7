package restapi

import (
	"net/http/pprof"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterOptions toggles the optional surfaces of the router.
type RouterOptions struct {
	CORSAllowedOrigins []string
	EnablePprof        bool
}

// SetupRouter builds the gin engine with the API, metrics and debug routes.
func SetupRouter(wallets *WalletHandler, dashboard *DashboardHandler, opts RouterOptions, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(opts.CORSAllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.CORSAllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))
	router.Use(ZapLoggerMiddleware(logger))
	router.Use(gin.Recovery())

	router.GET("/healthz", dashboard.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/wallets", wallets.List)
		v1.POST("/wallets", wallets.Add)
		v1.DELETE("/wallets", wallets.ClearAll)
		v1.POST("/wallets/refresh", wallets.RefreshAll)
		v1.GET("/wallets/:id", wallets.Get)
		v1.DELETE("/wallets/:id", wallets.Remove)
		v1.POST("/wallets/:id/refresh", wallets.Refresh)
		v1.PUT("/wallets/:id/default", wallets.SetDefault)
		v1.PUT("/wallets/:id/active", wallets.SetActive)
		v1.GET("/wallets/:id/transactions", wallets.Transactions)
		v1.GET("/wallets/:id/overview", wallets.Overview)

		v1.GET("/assets", dashboard.Assets)
		v1.POST("/assets/collect", dashboard.CollectAssets)
		v1.GET("/market", dashboard.Market)
		v1.GET("/network", dashboard.Network)
		v1.GET("/preferences", dashboard.Preferences)
		v1.PUT("/preferences", dashboard.UpdatePreferences)
		v1.GET("/alerts", dashboard.Alerts)
		v1.POST("/alerts", dashboard.AddAlert)
		v1.DELETE("/alerts/:id", dashboard.RemoveAlert)
		v1.GET("/healthz", dashboard.Health)
	}

	if opts.EnablePprof {
		pprofRouter := router.Group("/debug/pprof")
		{
			pprofRouter.GET("/", gin.WrapF(pprof.Index))
			pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
			pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
			pprofRouter.POST("/symbol", gin.WrapF(pprof.Symbol))
			pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
			pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
			pprofRouter.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
			pprofRouter.GET("/block", gin.WrapH(pprof.Handler("block")))
			pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
			pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
			pprofRouter.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
			pprofRouter.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
		}
		logger.Info("Pprof endpoints enabled under /debug/pprof")
	}

	return router
}
