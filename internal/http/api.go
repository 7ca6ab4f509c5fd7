package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"followgraph/internal/domain"
	"followgraph/internal/service"
	"followgraph/internal/storage"
)

// Handler wires HTTP routes to the network service.
type Handler struct {
	network service.NetworkService
}

func NewHandler(network service.NetworkService) *Handler {
	return &Handler{network: network}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/users", h.listUsers)
		api.POST("/users", h.createUser)
		api.GET("/users/:name", h.getUser)
		api.POST("/users/:name/follows", h.follow)
		api.GET("/users/:name/recommendation", h.recommend)
		api.GET("/popular", h.mostPopular)
		api.GET("/network", h.describe)
		api.POST("/snapshots", h.exportSnapshot)
		api.GET("/snapshots", h.listSnapshots)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

type createUserRequest struct {
	Name string `json:"name" binding:"required"`
}

type followRequest struct {
	Followee string `json:"followee" binding:"required"`
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.network.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	stats := h.network.Stats(c.Request.Context())
	resp := ListUsersResponse{
		Capacity:  stats.Capacity,
		UserCount: stats.UserCount,
		Users:     make([]UserResponse, len(users)),
	}
	for i := range users {
		resp.Users[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.network.AddUser(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(*user))
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.network.GetUser(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) follow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.network.Follow(c.Request.Context(), c.Param("name"), req.Followee)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) recommend(c *gin.Context) {
	name := c.Param("name")
	rec, err := h.network.Recommend(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": name, "recommendation": rec})
}

func (h *Handler) mostPopular(c *gin.Context) {
	name, err := h.network.MostPopular(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	user, err := h.network.GetUser(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Name, "followers": user.Followers})
}

func (h *Handler) describe(c *gin.Context) {
	c.String(http.StatusOK, h.network.Describe(c.Request.Context()))
}

func (h *Handler) exportSnapshot(c *gin.Context) {
	location, err := h.network.ExportSnapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"location": location})
}

func (h *Handler) listSnapshots(c *gin.Context) {
	objects, err := h.network.ListSnapshots(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]SnapshotResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrNoRecommendation),
		errors.Is(err, service.ErrNetworkEmpty):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrUserRejected),
		errors.Is(err, service.ErrFollowRejected):
		status = http.StatusConflict
	case errors.Is(err, service.ErrExportDisabled):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type UserResponse struct {
	Name      string   `json:"name"`
	Follows   []string `json:"follows"`
	Followers int      `json:"followers"`
}

type ListUsersResponse struct {
	Capacity  int            `json:"capacity"`
	UserCount int            `json:"user_count"`
	Users     []UserResponse `json:"users"`
}

type SnapshotResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func userToResponse(user service.UserView) UserResponse {
	follows := user.Follows
	if follows == nil {
		follows = []string{}
	}
	return UserResponse{
		Name:      user.Name,
		Follows:   follows,
		Followers: user.Followers,
	}
}

func objectToResponse(obj storage.ObjectInfo) SnapshotResponse {
	resp := SnapshotResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
