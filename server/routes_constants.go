package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Protected dashboard
	RouteHome = "/"

	// Auth Routes
	RouteLogin      = "/login"
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"
	RouteCallback   = "/auth/callback"

	// Bookmark Routes
	RouteBookmarks          = "/bookmarks"
	RouteBookmarkDelete     = "/bookmarks/{id}"
	RouteBookmarkDeleteForm = "/bookmarks/{id}/delete"

	// Live update stream
	RouteEvents = "/events"

	// Operational Routes
	RouteHealthz = "/healthz"
	RouteMetrics = "/metrics"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
	RouteStaticJS  = "/js/{file}"
)

// Error indicators carried on the login route after a failed handshake
const (
	ErrorIndicatorAuth   = "auth"
	ErrorIndicatorConfig = "config"
)
