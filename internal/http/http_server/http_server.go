package http_server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abrar71/swaggerfilesv2" // swagger embed files

	"storebidgo/internal/http/auctionhandler"
	"storebidgo/internal/http/carthandler"
	"storebidgo/internal/http/cataloghandler"
	"storebidgo/internal/http/contenthandler"
	"storebidgo/internal/http/couponhandler"
	"storebidgo/internal/http/orderhandler"
	"storebidgo/internal/services/auction"
	"storebidgo/internal/services/cart"
	"storebidgo/internal/services/catalog"
	"storebidgo/internal/services/content"
	"storebidgo/internal/services/coupon"
	"storebidgo/internal/services/order"
	"storebidgo/internal/ws"
)

type Services struct {
	Auction auction.IAuctionService
	Catalog catalog.ICatalogService
	Cart    cart.ICartService
	Coupon  coupon.ICouponService
	Order   order.IOrderService
	Content content.IContentService
}

type httpServer struct {
	listenPort uint16
	srv        http.Server
	ln         net.Listener
	services   Services
	wsSrv      *ws.WsServer
	ctx        context.Context
}

func NewHttpServer(ctx context.Context, listenPort uint16, wsSrv *ws.WsServer, services Services) *httpServer {
	return &httpServer{
		listenPort: listenPort,
		wsSrv:      wsSrv,
		services:   services,
		ctx:        ctx,
	}
}

func (h *httpServer) Start() error {
	var err error
	listenAddr := fmt.Sprintf(":%d", h.listenPort)
	h.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	routerEngine := gin.New()

	// Swagger UI and API specs
	routerEngine.StaticFS("/swagger-apis", http.FS(swaggerfilesv2.FS))
	routerEngine.Static("/api-specs", "api_specs")

	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// websocket endpoint
	routerEngine.GET("/ws", h.wsSrv.Handle)

	// REST API
	auctionhandler.New(h.services.Auction).Register(routerEngine)
	cataloghandler.New(h.services.Catalog).Register(routerEngine)
	carthandler.New(h.services.Cart).Register(routerEngine)
	couponhandler.New(h.services.Coupon).Register(routerEngine)
	orderhandler.New(h.services.Order).Register(routerEngine)
	contenthandler.New(h.services.Content).Register(routerEngine)

	h.srv = http.Server{
		Handler: routerEngine,
	}

	return h.srv.Serve(h.ln)
}

// Dispose gracefully shuts the HTTP server down.
// It waits up to 10 s for in-flight requests to finish.
func (h *httpServer) Dispose() error {
	ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
	defer cancel()

	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err // e.g. active conns didn't finish in time
	}

	if ctx.Err() == context.DeadlineExceeded {
		zap.L().Error("http_dispose", zap.Error(errors.New("shutdown timed out")))
		log.Println("shutdown timeout (10 s)")
	}

	return nil
}
