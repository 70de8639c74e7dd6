package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vprove/internal/directory/service"
	"vprove/internal/directory/store"
	"vprove/internal/platform/middleware"
	id "vprove/pkg/domain"
)

type HandlerSuite struct {
	suite.Suite
	router http.Handler
	admin  id.AccountID
	dirID  id.DirectoryID
}

func (s *HandlerSuite) SetupTest() {
	dirStore := store.NewInMemory()
	svc := service.New(dirStore)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	s.admin = id.AccountID(uuid.New())
	dirID, err := service.NewFactory(dirStore, nil).Spawn(context.Background(), "Acme", s.admin)
	s.Require().NoError(err)
	s.dirID = dirID

	h := New(svc, logger)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	h.Register(r)
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, target string, caller id.AccountID, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if !caller.IsNil() {
		req = req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyAccount, caller))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) membersPath() string {
	return "/directories/" + s.dirID.String() + "/members"
}

func (s *HandlerSuite) TestRegisterMember() {
	member := id.AccountID(uuid.New())
	rec := s.do(http.MethodPost, s.membersPath(), s.admin, map[string]any{
		"account": member.String(), "role": "engineer",
	})

	s.Equal(http.StatusCreated, rec.Code)
	var resp MemberCreatedResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(uint64(1), resp.MemberID)

	rec = s.do(http.MethodGet, s.membersPath()+"/"+member.String(), id.AccountID{}, nil)
	s.Equal(http.StatusOK, rec.Code)
	var got MemberResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal(member.String(), got.Account)
	s.Equal("engineer", got.Role)
	s.Equal(uint64(1), got.MemberID)
}

func (s *HandlerSuite) TestRegisterMemberRequiresAdmin() {
	rec := s.do(http.MethodPost, s.membersPath(), id.AccountID(uuid.New()), map[string]any{
		"account": uuid.New().String(), "role": "engineer",
	})
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlerSuite) TestRemoveMember() {
	member := id.AccountID(uuid.New())
	s.do(http.MethodPost, s.membersPath(), s.admin, map[string]any{
		"account": member.String(), "role": "engineer",
	})

	rec := s.do(http.MethodDelete, s.membersPath()+"/"+member.String(), s.admin, nil)
	s.Equal(http.StatusNoContent, rec.Code)

	// An absent member reads back as the zero entry, not a 404.
	rec = s.do(http.MethodGet, s.membersPath()+"/"+member.String(), id.AccountID{}, nil)
	s.Equal(http.StatusOK, rec.Code)
	var got MemberResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal(id.AccountID{}.String(), got.Account)
	s.Equal(uint64(0), got.MemberID)
	s.Empty(got.Role)

	rec = s.do(http.MethodDelete, s.membersPath()+"/"+member.String(), s.admin, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestUpdateRole() {
	member := id.AccountID(uuid.New())
	s.do(http.MethodPost, s.membersPath(), s.admin, map[string]any{
		"account": member.String(), "role": "engineer",
	})

	rec := s.do(http.MethodPut, s.membersPath()+"/"+member.String()+"/role", s.admin, map[string]any{
		"role": "manager",
	})
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, s.membersPath()+"/"+member.String(), id.AccountID{}, nil)
	var got MemberResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal("manager", got.Role)
}

func (s *HandlerSuite) TestGetDirectory() {
	rec := s.do(http.MethodGet, "/directories/"+s.dirID.String(), id.AccountID{}, nil)
	s.Equal(http.StatusOK, rec.Code)
	var got DirectoryResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal("Acme", got.Name)
	s.Equal(s.admin.String(), got.Admin)
	s.True(got.Initialized)
}

func (s *HandlerSuite) TestUnknownDirectory() {
	rec := s.do(http.MethodGet, "/directories/"+uuid.New().String(), id.AccountID{}, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestInvalidDirectoryID() {
	rec := s.do(http.MethodGet, "/directories/not-a-uuid", id.AccountID{}, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}
