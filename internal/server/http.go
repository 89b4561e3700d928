package server

import (
	"context"

	"credit-service/internal/conf"
	"credit-service/internal/service"

	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPServer 创建 HTTP 服务器
func NewHTTPServer(c *conf.Bootstrap, ledgerService *service.LedgerService) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.Server != nil && c.Server.Http != nil {
		if c.Server.Http.Network != "" {
			opts = append(opts, http.Network(c.Server.Http.Network))
		}
		if c.Server.Http.Addr != "" {
			opts = append(opts, http.Address(c.Server.Http.Addr))
		}
		if c.Server.Http.Timeout > 0 {
			opts = append(opts, http.Timeout(c.Server.Http.Timeout.AsDuration()))
		}
	}
	srv := http.NewServer(opts...)
	srv.Handle("/metrics", promhttp.Handler())
	registerLedgerRoutes(srv, ledgerService)
	return srv
}

func registerLedgerRoutes(srv *http.Server, svc *service.LedgerService) {
	r := srv.Route("/v1")

	r.GET("/credits/{user_id}/balance", func(ctx http.Context) error {
		in := &service.GetBalanceRequest{UserID: ctx.Vars().Get("user_id")}
		h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
			return svc.GetBalance(c, req.(*service.GetBalanceRequest))
		})
		out, err := h(ctx, in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/credits/{user_id}/quota", func(ctx http.Context) error {
		in := &service.GetBalanceRequest{UserID: ctx.Vars().Get("user_id")}
		h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
			return svc.GetDailyQuota(c, req.(*service.GetBalanceRequest))
		})
		out, err := h(ctx, in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.POST("/credits/consume", func(ctx http.Context) error {
		in := &service.ConsumeRequest{}
		if err := ctx.Bind(in); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
			return svc.Consume(c, req.(*service.ConsumeRequest))
		})
		out, err := h(ctx, in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.POST("/credits/recharge", func(ctx http.Context) error {
		in := &service.RechargeRequest{}
		if err := ctx.Bind(in); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
			return svc.Recharge(c, req.(*service.RechargeRequest))
		})
		out, err := h(ctx, in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.POST("/credits/refund", func(ctx http.Context) error {
		in := &service.RefundRequest{}
		if err := ctx.Bind(in); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
			return svc.Refund(c, req.(*service.RefundRequest))
		})
		out, err := h(ctx, in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/credits/{user_id}/transactions", func(ctx http.Context) error {
		in := &service.ListTransactionsRequest{}
		if err := ctx.BindQuery(in); err != nil {
			return err
		}
		in.UserID = ctx.Vars().Get("user_id")
		h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
			return svc.ListTransactions(c, req.(*service.ListTransactionsRequest))
		})
		out, err := h(ctx, in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/credits/{user_id}/records", func(ctx http.Context) error {
		in := &service.ListConsumptionRecordsRequest{}
		if err := ctx.BindQuery(in); err != nil {
			return err
		}
		in.UserID = ctx.Vars().Get("user_id")
		h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
			return svc.ListConsumptionRecords(c, req.(*service.ListConsumptionRecordsRequest))
		})
		out, err := h(ctx, in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/credits/{user_id}/statistics", func(ctx http.Context) error {
		in := &service.GetStatisticsRequest{}
		if err := ctx.BindQuery(in); err != nil {
			return err
		}
		in.UserID = ctx.Vars().Get("user_id")
		h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
			return svc.GetStatistics(c, req.(*service.GetStatisticsRequest))
		})
		out, err := h(ctx, in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})
}
