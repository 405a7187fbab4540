package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"escrow-chain.backend/internal/interfaces/http/handlers"
)

type routeDeps struct {
	authHandler      *handlers.AuthHandler
	contractHandler  *handlers.ContractHandler
	escrowHandler    *handlers.EscrowHandler
	milestoneHandler *handlers.MilestoneHandler
	disputeHandler   *handlers.DisputeHandler
	authMiddleware   gin.HandlerFunc
	tokenIssuer      bool
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Self-service token issuance mints a token for any party id without
		// a credential. Registered only when TOKEN_ISSUER_ENABLED is set;
		// production deployments behind an identity provider turn it off.
		if d.tokenIssuer {
			auth := v1.Group("/auth")
			{
				auth.POST("/token", d.authHandler.IssueToken)
			}
		}

		// Contract routes (protected)
		contracts := v1.Group("/contracts")
		contracts.Use(d.authMiddleware)
		{
			contracts.POST("", d.contractHandler.CreateContract)
			contracts.GET("", d.contractHandler.ListContracts)
			contracts.GET("/:id", d.contractHandler.GetContract)
			contracts.POST("/:id/sign", d.contractHandler.SignContract)
			contracts.POST("/:id/cancel", d.contractHandler.CancelContract)
			contracts.GET("/:id/history", d.contractHandler.GetExecutionHistory)

			// Escrow ledger
			contracts.POST("/:id/deposits", d.escrowHandler.DepositFunds)
			contracts.POST("/:id/releases", d.escrowHandler.ReleaseFunds)
			contracts.POST("/:id/refunds", d.escrowHandler.RefundFunds)
			contracts.GET("/:id/transactions", d.escrowHandler.GetTransactions)

			// Milestone workflow
			contracts.POST("/:id/milestones/:milestoneId/start", d.milestoneHandler.StartMilestone)
			contracts.POST("/:id/milestones/:milestoneId/submit", d.milestoneHandler.SubmitMilestone)
			contracts.POST("/:id/milestones/:milestoneId/approve", d.milestoneHandler.ApproveMilestone)
			contracts.POST("/:id/milestones/:milestoneId/reject", d.milestoneHandler.RejectMilestone)

			// Dispute resolution
			contracts.POST("/:id/disputes", d.disputeHandler.InitiateDispute)
			contracts.POST("/:id/disputes/evidence", d.disputeHandler.SubmitEvidence)
			contracts.POST("/:id/disputes/escalate", d.disputeHandler.EscalateDispute)
			contracts.POST("/:id/disputes/resolve", d.disputeHandler.ResolveDispute)
		}
	}
}
