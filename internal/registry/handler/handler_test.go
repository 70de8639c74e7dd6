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

	directoryservice "vprove/internal/directory/service"
	directorystore "vprove/internal/directory/store"
	"vprove/internal/platform/middleware"
	"vprove/internal/registry/service"
	"vprove/internal/registry/store"
	id "vprove/pkg/domain"
)

type HandlerSuite struct {
	suite.Suite
	router     http.Handler
	controller id.AccountID
}

func (s *HandlerSuite) SetupTest() {
	regStore := store.NewInMemory(1)
	dirStore := directorystore.NewInMemory()
	s.controller = id.AccountID(uuid.New())
	svc := service.New(regStore, directoryservice.NewFactory(dirStore, nil), s.controller)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	h := New(svc, logger)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	h.Register(r)
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func contextWithAccount(ctx context.Context, account id.AccountID) context.Context {
	return context.WithValue(ctx, middleware.ContextKeyAccount, account)
}

// do issues a request with the caller injected the way the auth middleware
// would inject it.
func (s *HandlerSuite) do(method, target string, caller id.AccountID, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if !caller.IsNil() {
		ctx := req.Context()
		req = req.WithContext(contextWithAccount(ctx, caller))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestRegisterIndividual() {
	caller := id.AccountID(uuid.New())
	rec := s.do(http.MethodPost, "/registry/individuals", caller, map[string]any{
		"name": "alice", "paid_amount": 1,
	})

	s.Equal(http.StatusCreated, rec.Code)
	var resp RegistrationResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(uint64(1), resp.CredentialID)

	rec = s.do(http.MethodGet, "/registry/persons/"+caller.String(), id.AccountID{}, nil)
	s.Equal(http.StatusOK, rec.Code)
	var person PersonResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &person))
	s.Equal("alice", person.Name)
	s.Equal(uint64(1), person.CredentialID)
}

func (s *HandlerSuite) TestRegisterIndividualInsufficientPayment() {
	rec := s.do(http.MethodPost, "/registry/individuals", id.AccountID(uuid.New()), map[string]any{
		"name": "alice", "paid_amount": 0,
	})
	s.Equal(http.StatusPaymentRequired, rec.Code)
}

func (s *HandlerSuite) TestRegisterIndividualBlankName() {
	rec := s.do(http.MethodPost, "/registry/individuals", id.AccountID(uuid.New()), map[string]any{
		"name": "   ", "paid_amount": 1,
	})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestRegisterIndividualNameConflict() {
	rec := s.do(http.MethodPost, "/registry/individuals", id.AccountID(uuid.New()), map[string]any{
		"name": "alice", "paid_amount": 1,
	})
	s.Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/registry/individuals", id.AccountID(uuid.New()), map[string]any{
		"name": "alice", "paid_amount": 1,
	})
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *HandlerSuite) TestRegisterBusiness() {
	caller := id.AccountID(uuid.New())
	rec := s.do(http.MethodPost, "/registry/businesses", caller, map[string]any{
		"name": "Acme", "paid_amount": 1,
	})

	s.Equal(http.StatusCreated, rec.Code)
	var resp BusinessRegistrationResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(uint64(1), resp.CredentialID)
	s.NotEmpty(resp.CompanyAddress)

	rec = s.do(http.MethodGet, "/registry/companies/"+caller.String()+"/"+resp.CompanyAddress, id.AccountID{}, nil)
	s.Equal(http.StatusOK, rec.Code)
	var company CompanyResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &company))
	s.Equal("Acme", company.Name)
}

func (s *HandlerSuite) TestSetFee() {
	rec := s.do(http.MethodPut, "/registry/fee", id.AccountID(uuid.New()), map[string]any{"fee": 5})
	s.Equal(http.StatusForbidden, rec.Code, "only the controller may change the fee")

	rec = s.do(http.MethodPut, "/registry/fee", s.controller, map[string]any{"fee": 5})
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/registry/fee", id.AccountID{}, nil)
	s.Equal(http.StatusOK, rec.Code)
	var fee FeeResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &fee))
	s.Equal(uint64(5), fee.Fee)
}

func (s *HandlerSuite) TestCollectedTotal() {
	s.do(http.MethodPost, "/registry/individuals", id.AccountID(uuid.New()), map[string]any{
		"name": "alice", "paid_amount": 4,
	})

	rec := s.do(http.MethodGet, "/registry/collected", id.AccountID{}, nil)
	s.Equal(http.StatusOK, rec.Code)
	var resp CollectedResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(uint64(4), resp.Collected)
}

func (s *HandlerSuite) TestLookupUnboundName() {
	rec := s.do(http.MethodGet, "/registry/names/nobody", id.AccountID{}, nil)
	s.Equal(http.StatusOK, rec.Code)
	var resp NameOwnerResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(uuid.Nil.String(), resp.Account)
}

func (s *HandlerSuite) TestGetPersonNotFound() {
	rec := s.do(http.MethodGet, "/registry/persons/"+uuid.New().String(), id.AccountID{}, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestGetPersonInvalidID() {
	rec := s.do(http.MethodGet, "/registry/persons/not-a-uuid", id.AccountID{}, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}
