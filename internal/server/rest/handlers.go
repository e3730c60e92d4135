package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/gin-gonic/gin"
)

type userRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// parentRef accepts parentId as a JSON string or number.
type parentRef string

func (p *parentRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = parentRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("parentId must be a string or a number")
	}
	*p = parentRef(n.String())
	return nil
}

type fileRequest struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	ParentID parentRef `json:"parentId"`
	IsPublic bool      `json:"isPublic"`
	Data     string    `json:"data"`
}

func (s *HTTPServer) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.app.Status(c.Request.Context()))
}

func (s *HTTPServer) getStats(c *gin.Context) {
	st, err := s.app.Stats(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *HTTPServer) postUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{"Invalid request body"})
		return
	}

	u, err := s.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "Registered", "user_id", u.ID)
	c.JSON(http.StatusCreated, userResponse{ID: u.ID, Email: u.Email})
}

func (s *HTTPServer) getMe(c *gin.Context) {
	u, err := s.users.Me(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{ID: u.ID, Email: u.Email})
}

func (s *HTTPServer) getConnect(c *gin.Context) {
	scheme, credentials, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Basic") {
		abortUnauthorized(c)
		return
	}

	token, err := s.sessions.Login(c.Request.Context(), credentials)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (s *HTTPServer) getDisconnect(c *gin.Context) {
	if err := s.sessions.Logout(c.Request.Context(), c.GetHeader(common.SessionTokenHeaderName)); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) postFile(c *gin.Context) {
	var req fileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{"Invalid request body"})
		return
	}

	f, err := s.files.Create(c.Request.Context(), currentUserID(c), &services.CreateFileRequest{
		Name:     req.Name,
		Type:     req.Type,
		ParentID: string(req.ParentID),
		IsPublic: req.IsPublic,
		Data:     req.Data,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (s *HTTPServer) getFile(c *gin.Context) {
	f, err := s.files.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// getFiles lists the caller's records. parentId narrows to one folder; page
// (zero-based) returns one page. A page that is not a number means page 0.
func (s *HTTPServer) getFiles(c *gin.Context) {
	var filter services.ListFilter
	if parentID, ok := c.GetQuery("parentId"); ok {
		filter.ParentID = &parentID
	}
	if raw, ok := c.GetQuery("page"); ok {
		page, err := strconv.Atoi(raw)
		if err != nil {
			page = 0
		}
		filter.Page = &page
	}

	list, err := s.files.List(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *HTTPServer) putPublish(c *gin.Context) {
	s.setVisibility(c, true)
}

func (s *HTTPServer) putUnpublish(c *gin.Context) {
	s.setVisibility(c, false)
}

func (s *HTTPServer) setVisibility(c *gin.Context, isPublic bool) {
	f, err := s.files.SetVisibility(c.Request.Context(), currentUserID(c), c.Param("id"), isPublic)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// getFileData serves content. The session token is optional here.
func (s *HTTPServer) getFileData(c *gin.Context) {
	content, err := s.files.ResolveContent(c.Request.Context(), c.Param("id"),
		c.GetHeader(common.SessionTokenHeaderName), c.Query("size"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, content.MimeType, content.Data)
}
