package api

// @title envnotify API
// @version v0.1.0
// @description Manage the URL rules that drive environment warning banners.

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8778
// @BasePath /api
// @schemes http
