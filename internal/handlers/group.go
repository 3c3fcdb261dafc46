package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"yogastudio/internal/auth"
	"yogastudio/internal/models"
	"yogastudio/internal/repository"
	"yogastudio/internal/utils"
)

// ListGroups handles listing groups with filtering and pagination
func (h *Handler) ListGroups(c *gin.Context) {
	limit, offset := utils.Pagination(c)
	filter := repository.GroupFilter{
		Active:       utils.QueryBool(c, "active"),
		Level:        models.Level(c.Query("level")),
		Style:        c.Query("style"),
		InstructorID: c.Query("instructor_id"),
		Name:         c.Query("name"),
		Page:         repository.Page{Limit: limit, Offset: offset},
	}
	if !auth.CurrentRole(c).IsStaff() {
		active := true
		filter.Active = &active
	}

	groups, total, err := h.store.Groups.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, "Failed to list groups", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups, "total": total, "limit": limit, "offset": offset})
}

func (h *Handler) GetGroup(c *gin.Context) {
	group, err := h.store.Groups.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, "Failed to load group", err)
		return
	}
	count, err := h.store.Members.CountActive(c.Request.Context(), group.ID)
	if err != nil {
		h.handleError(c, "Failed to load group", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group, "member_count": count})
}

// CreateGroup handles the creation of a new group
func (h *Handler) CreateGroup(c *gin.Context) {
	var req models.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	group, err := h.groups.Create(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, "Failed to create group", err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (h *Handler) UpdateGroup(c *gin.Context) {
	var req models.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	group, err := h.groups.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.handleError(c, "Failed to update group", err)
		return
	}
	c.JSON(http.StatusOK, group)
}

func (h *Handler) DeleteGroup(c *gin.Context) {
	if err := h.store.Groups.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, "Failed to delete group", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "group deleted"})
}

// ListMembers lists a group's memberships, optionally by status
func (h *Handler) ListMembers(c *gin.Context) {
	members, err := h.store.Members.ListByGroup(c.Request.Context(), c.Param("id"), models.MemberStatus(c.Query("status")))
	if err != nil {
		h.handleError(c, "Failed to list members", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "total": len(members)})
}

// AddMember enrols a user. Admins may add anyone; everyone else joins themselves.
func (h *Handler) AddMember(c *gin.Context) {
	var req models.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = auth.CurrentUserID(c)
	}
	if !auth.IsSelfOrAdmin(c, userID) {
		forbidden(c)
		return
	}

	member, err := h.groups.AddMember(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleError(c, "Failed to add member", err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *Handler) UpdateMember(c *gin.Context) {
	var req models.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	member, err := h.groups.UpdateMemberStatus(c.Request.Context(), c.Param("id"), c.Param("userId"), req.Status)
	if err != nil {
		h.handleError(c, "Failed to update member", err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *Handler) RemoveMember(c *gin.Context) {
	userID := c.Param("userId")
	if !auth.IsSelfOrAdmin(c, userID) {
		forbidden(c)
		return
	}
	if err := h.groups.RemoveMember(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleError(c, "Failed to remove member", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member removed"})
}
