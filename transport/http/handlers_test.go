package http

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/layer-3/mintpass/adapters/store"
	"github.com/layer-3/mintpass/adapters/tokenizer"
	"github.com/layer-3/mintpass/core"
	"github.com/layer-3/mintpass/internal/chaintest"
	"github.com/layer-3/mintpass/metrics"
	"github.com/layer-3/mintpass/service"
)

const contract = "0x9a9f2CCfdE556A7E9Ff0848998Aa4a0CFD8863AE"

type HandlerSuite struct {
	suite.Suite
	chain  *chaintest.Chain
	wallet *chaintest.Wallet
	router *gin.Engine
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.chain = chaintest.NewChain()
	s.wallet = chaintest.NewWallet()
	provider := chaintest.NewProvider(map[string]*chaintest.Chain{"base": s.chain, "eth": chaintest.NewChain()})

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	s.Require().NoError(err)
	reg := prometheus.NewRegistry()

	svc := service.NewChallengeService(provider, store.NewMemoryStore(), zap.NewNop(),
		service.WithTokenizer(tokenizer.NewJWTTokenizer(key, time.Hour)),
		service.WithMetrics(metrics.New(reg)),
	)
	s.router = SetupRouter(svc, reg, zap.NewNop())
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) verifyBody(options map[string]string) map[string]any {
	return map[string]any{
		"options": options,
		"request": core.ChallengeRequest{
			Vote: &core.Vote{
				PublicationBase: core.PublicationBase{
					Author: core.Author{
						Address: "12D3KooWAlice",
						Wallets: map[string]core.WalletClaim{"base": s.wallet.Claim("12D3KooWAlice", 1)},
					},
					SubplebbitAddress: "community.eth",
				},
				CommentCID: "QmComment",
				Vote:       1,
			},
		},
	}
}

func (s *HandlerSuite) TestDescriptor() {
	rec := s.do(http.MethodGet, "/challenge", nil)
	s.Equal(http.StatusOK, rec.Code)

	var descriptor core.ChallengeDescriptor
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &descriptor))
	s.Equal("text/plain", descriptor.Type)
	s.Len(descriptor.OptionInputs, 7)
}

func (s *HandlerSuite) TestVerifyAccepted() {
	s.chain.Mint(s.wallet.Address, 3, 0)

	rec := s.do(http.MethodPost, "/challenge/verify", s.verifyBody(map[string]string{core.OptionContractAddress: contract}))
	s.Require().Equal(http.StatusOK, rec.Code)

	var verdict core.Verdict
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &verdict))
	s.True(verdict.Success)
	s.Equal("3", verdict.TokenID)
	s.NotEmpty(verdict.Receipt)

	rec = s.do(http.MethodPost, "/receipts/verify", map[string]string{"token": verdict.Receipt})
	s.Require().Equal(http.StatusOK, rec.Code)
	var receipt map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &receipt))
	s.Equal(true, receipt["valid"])
	s.Equal("12D3KooWAlice", receipt["authorAddress"])
	s.Equal(verdict.ID, receipt["id"])

	rec = s.do(http.MethodGet, "/metrics", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `mintpass_evaluations_total{outcome="accepted",path="wallet"} 1`)
}

func (s *HandlerSuite) TestVerifyRejectedIsStillOK() {
	rec := s.do(http.MethodPost, "/challenge/verify", s.verifyBody(map[string]string{core.OptionContractAddress: contract}))
	s.Require().Equal(http.StatusOK, rec.Code)

	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(false, body["success"])
	s.Contains(body["error"], "You need a MintPass NFT")
	s.NotContains(body, "receipt")
}

func (s *HandlerSuite) TestVerifyConfigErrors() {
	tests := []struct {
		name    string
		options map[string]string
	}{
		{name: "missing contract", options: map[string]string{}},
		{name: "non numeric token type", options: map[string]string{core.OptionContractAddress: contract, core.OptionRequiredTokenType: "sms"}},
		{name: "negative cooldown", options: map[string]string{core.OptionContractAddress: contract, core.OptionTransferCooldownSeconds: "-1"}},
		{name: "unknown chain", options: map[string]string{core.OptionContractAddress: contract, core.OptionChainTicker: "sol"}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(http.MethodPost, "/challenge/verify", s.verifyBody(tt.options))
			s.Equal(http.StatusUnprocessableEntity, rec.Code)

			var body map[string]any
			s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
			s.Equal(true, body["fatal"])
		})
	}
}

func (s *HandlerSuite) TestMalformedRequests() {
	rec := s.do(http.MethodPost, "/challenge/verify", `{"options":`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/receipts/verify", `{}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/receipts/verify", map[string]string{"token": "forged"})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestRequestID() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("req-123", rec.Header().Get("X-Request-ID"))

	rec = s.do(http.MethodGet, "/health", nil)
	s.NotEmpty(rec.Header().Get("X-Request-ID"))
}
