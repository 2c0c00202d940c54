package handlers

import (
	"github.com/gin-gonic/gin"
)

// Handlers bundles every HTTP handler of the API
type Handlers struct {
	Clubs             *ClubHandler
	Staff             *StaffHandler
	SubscriptionTypes *SubscriptionTypeHandler
	Leads             *LeadHandler
	Subscriptions     *SubscriptionHandler
	Reports           *ReportHandler
	Ingest            *IngestHandler
	System            *SystemHandler
}

// RegisterRoutes mounts the API under the given group (normally /api/v1)
func RegisterRoutes(v1 *gin.RouterGroup, h *Handlers) {
	clubs := v1.Group("/clubs")
	{
		clubs.POST("", h.Clubs.Create)
		clubs.GET("", h.Clubs.List)
		clubs.GET("/:id", h.Clubs.Get)
		clubs.PUT("/:id", h.Clubs.Update)
	}

	staff := v1.Group("/staff")
	{
		staff.POST("", h.Staff.Create)
		staff.GET("", h.Staff.List)
		staff.GET("/:id", h.Staff.Get)
		staff.PUT("/:id", h.Staff.Update)
	}

	subscriptionTypes := v1.Group("/subscription-types")
	{
		subscriptionTypes.POST("", h.SubscriptionTypes.Create)
		subscriptionTypes.GET("", h.SubscriptionTypes.List)
		subscriptionTypes.GET("/:id", h.SubscriptionTypes.Get)
		subscriptionTypes.PUT("/:id", h.SubscriptionTypes.Update)
	}

	leads := v1.Group("/leads")
	{
		leads.POST("", h.Leads.Create)
		leads.GET("", h.Leads.List)
		leads.GET("/:id", h.Leads.Get)
		leads.PUT("/:id", h.Leads.Update)
		leads.GET("/:id/transitions", h.Leads.AllowedTransitions)
		leads.POST("/:id/transitions", h.Leads.Transition)
	}

	subscriptions := v1.Group("/subscriptions")
	{
		subscriptions.POST("", h.Subscriptions.Create)
		subscriptions.GET("", h.Subscriptions.List)
		subscriptions.GET("/:id", h.Subscriptions.Get)
		subscriptions.PUT("/:id", h.Subscriptions.Update)
	}

	reports := v1.Group("/reports")
	{
		reports.GET("/staff/:id/conversion-rate", h.Reports.ConversionRate)
		reports.GET("/staff/:id/summary", h.Reports.StaffSummary)
		reports.GET("/revenue/staff-month", h.Reports.RevenueByStaffMonth)
		reports.GET("/leads/:id/time-to-convert", h.Reports.TimeToConvert)
		reports.GET("/clubs/:id/target-progress", h.Reports.ClubTargetProgress)
		reports.GET("/clubs/:id/revenue", h.Reports.ClubRevenue)
		reports.GET("/orphans", h.Reports.Orphans)
	}

	v1.POST("/ingest", h.Ingest.Import)

	admin := v1.Group("/admin")
	{
		admin.GET("/jobs", h.System.JobStatus)
		admin.POST("/jobs/revenue-refresh", h.System.RefreshRevenue)
		admin.POST("/jobs/subscription-expiry", h.System.ExpireSubscriptions)
	}
}
