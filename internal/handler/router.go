package handler

import (
	"Aidmap-App/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers ルーターに登録するハンドラー一式
type Handlers struct {
	Auth          *Authenticator
	Login         *AuthHandler
	Users         *UserHandler
	Organizations *OrganizationHandler
	Locations     *LocationHandler
	Zones         *ZoneHandler
	ChangeLogs    *ChangeLogHandler
	Oauth         *OauthHandler
	Guests        *GuestHandler
	Reference     *ReferenceHandler
	DB            HealthChecker
}

// NewRouter 全エンドポイントを登録したginエンジンを返す
func NewRouter(h Handlers, service string, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(logger), Metrics())

	r.GET("/api/health", Health(h.DB, service))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")
	req := h.Auth.Require

	auth := v1.Group("/auth")
	{
		auth.POST("/login/token", h.Login.Login)
		auth.GET("/sessions", req(), h.Login.Sessions)
		auth.DELETE("/sessions/:session_id", req(), h.Login.RevokeSession)
	}

	users := v1.Group("/users")
	{
		users.POST("/register", req("users:create"), h.Users.Register)
		users.POST("/invite", req("users:create"), h.Users.Invite)
		users.GET("/verify", h.Users.VerifyInvite)
		users.POST("/confirm-registration", h.Users.ConfirmRegistration)
		users.GET("/me", req(), h.Users.Me)
		users.PUT("/info", req("users:edit"), h.Users.UpdateInfo)
		users.PUT("/password", req("users:edit"), h.Users.ChangePassword)
		users.PUT("/password-reset", h.Users.RequestPasswordReset)
		users.PUT("/confirm-reset", h.Users.ConfirmPasswordReset)
		users.PUT("/toggle-activity", req("users:disable"), h.Users.ToggleActivity)
		users.PUT("/change-role", req("users:roles"), h.Users.ChangeRole)
		users.DELETE("/delete-me", req("users:edit"), h.Users.DeleteMe)
	}

	orgs := v1.Group("/organizations")
	{
		orgs.POST("/create", req("organizations:create"), h.Organizations.Create)
		orgs.POST("/add", req("organizations:create"), h.Organizations.AddWithLeaders)
		orgs.GET("/all", req("organizations:view"), h.Organizations.List)
		orgs.GET("/search", req("organizations:view"), h.Organizations.Search)
		orgs.PUT("/toggle-activity/:id", req("organizations:delete"), h.Organizations.ToggleActivity)
		orgs.GET("/:id", req("organizations:view"), h.Organizations.Get)
		orgs.PUT("/:id/edit", req("organizations:edit"), h.Organizations.Edit)
		orgs.PUT("/:id/invite", req("organizations:edit"), h.Organizations.AddMembers)
		orgs.PUT("/:id/remove", req("organizations:edit"), h.Organizations.RemoveMember)
		orgs.DELETE("/:id", req("organizations:delete"), h.Organizations.Delete)
	}

	locations := v1.Group("/locations")
	{
		locations.POST("/add", req("locations:create"), h.Locations.AddLocation)
		locations.GET("/search", h.Locations.Search)
		locations.POST("/cord_search", h.Locations.CordSearch)
		locations.GET("/location-info", h.Locations.LocationInfo)
		locations.POST("/request-info", h.Locations.RequestInfo)
		locations.GET("/pending-count", req("locations:view"), h.Locations.PendingCount)
		locations.GET("/location-requests", req("locations:view"), h.Locations.LocationRequests)
		locations.PUT("/assign-location", req("locations:edit"), h.Locations.AssignLocation)
		locations.PUT("/remove-assignment", req("locations:edit"), h.Locations.RemoveAssignment)
		locations.GET("/assigned-locations", req("locations:view"), h.Locations.AssignedLocations)
		locations.PUT("/submit-report", req("locations:edit"), h.Locations.SubmitReport)
		locations.DELETE("/remove-location", req("locations:delete"), h.Locations.RemoveLocation)
		locations.GET("/recent-reports", h.Locations.RecentReports)
		locations.POST("/bulk-add", req("locations:create"), h.Locations.BulkAdd)
		locations.DELETE("/bulk-delete", req("locations:delete"), h.Locations.BulkDelete)
	}

	zones := v1.Group("/zones")
	{
		zones.POST("/restrict", req("zones:create"), h.Zones.Restrict)
		zones.DELETE("/allow", req("zones:edit"), h.Zones.Allow)
		zones.GET("/zones", req("zones:get"), h.Zones.List)
	}

	changelogs := v1.Group("/changelogs")
	{
		changelogs.GET("/location/:location_id", h.ChangeLogs.ByLocation)
		changelogs.PUT("/visibility/:changelog_id", req("changelogs:edit"), h.ChangeLogs.ToggleVisibility)
	}

	oauth := v1.Group("/oauth")
	{
		oauth.POST("/roles/create", req("oauth:create"), h.Oauth.CreateRole)
		oauth.GET("/roles/all", req("oauth:read"), h.Oauth.Roles)
		oauth.PUT("/roles/patch", req("oauth:edit"), h.Oauth.PatchRole)
		oauth.GET("/scopes/all", req("oauth:read"), h.Oauth.Scopes)
	}

	guest := v1.Group("/guest")
	{
		guest.POST("/request-otp", h.Guests.RequestOTP)
		guest.POST("/request-location", h.Guests.RequestLocation)
	}

	v1.GET("/phone-codes/all", h.Reference.PhoneCodes)
	v1.GET("/activity-logs/organization/:organization_id", req("organizations:edit"), h.Reference.ActivityLogs)
	v1.GET("/geocoding/reverse", req("locations:view"), h.Reference.Reverse)

	return r
}
