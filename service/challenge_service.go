package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/layer-3/mintpass/core"
	"github.com/layer-3/mintpass/internal/eth"
	"github.com/layer-3/mintpass/metrics"
	"github.com/layer-3/mintpass/ports"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ChallengeService evaluates MintPass challenges: the wallet path first,
// then the ENS path when the wallet path fails
type ChallengeService struct {
	provider  ports.CredentialClientProvider
	store     ports.Store
	publisher ports.VerdictPublisher
	tokenizer ports.ReceiptTokenizer
	metrics   *metrics.Metrics
	clock     ports.Clock
	logger    *zap.Logger

	verifier *WalletVerifier
	replay   *ReplayGuard
	engine   *CooldownBindingEngine
}

// Option configures optional collaborators of the service
type Option func(*ChallengeService)

// WithPublisher publishes every verdict
func WithPublisher(publisher ports.VerdictPublisher) Option {
	return func(s *ChallengeService) { s.publisher = publisher }
}

// WithTokenizer attaches a signed receipt to accepted verdicts
func WithTokenizer(tokenizer ports.ReceiptTokenizer) Option {
	return func(s *ChallengeService) { s.tokenizer = tokenizer }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ChallengeService) { s.metrics = m }
}

func WithClock(clock ports.Clock) Option {
	return func(s *ChallengeService) { s.clock = clock }
}

// NewChallengeService creates a new challenge service
func NewChallengeService(
	provider ports.CredentialClientProvider,
	store ports.Store,
	logger *zap.Logger,
	opts ...Option,
) *ChallengeService {
	s := &ChallengeService{
		provider: provider,
		store:    store,
		clock:    systemClock{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.verifier = NewWalletVerifier(logger)
	s.replay = NewReplayGuard(store)
	s.engine = NewCooldownBindingEngine(store, s.clock, logger)
	return s
}

// Verify evaluates one challenge request against a community's options.
// Per-author failures come back as a rejected verdict; the returned error is
// reserved for configuration errors, which abort the evaluation.
func (s *ChallengeService) Verify(ctx context.Context, cfg core.Config, req core.ChallengeRequest) (*core.Verdict, error) {
	start := s.clock.Now()
	verdict := &core.Verdict{
		ID:              uuid.New().String(),
		ChainTicker:     cfg.ChainTicker,
		ContractAddress: cfg.ContractAddress.Hex(),
		EvaluatedAt:     start,
	}

	pub, err := req.Publication()
	if err != nil {
		s.finish(ctx, verdict, nil, "", err, start)
		return verdict, nil
	}
	author := pub.AuthorIdentity()
	verdict.AuthorAddress = author.Address
	verdict.SubplebbitAddress = pub.Community()

	token, walletErr := s.walletPath(ctx, cfg, pub)
	if errors.Is(walletErr, core.ErrInvalidConfig) {
		return nil, walletErr
	}
	if walletErr == nil {
		s.finish(ctx, verdict, token, core.PathWallet, nil, start)
		return verdict, nil
	}

	token, ensErr := s.ensPath(ctx, cfg, pub)
	if errors.Is(ensErr, core.ErrInvalidConfig) {
		return nil, ensErr
	}
	s.countRPCError(cfg.ChainTicker, walletErr, ensErr)
	if ensErr == nil {
		s.finish(ctx, verdict, token, core.PathENS, nil, start)
		return verdict, nil
	}

	s.logger.Debug("ens path failed",
		zap.String("author", author.Address),
		zap.String("reason", core.Reason(ensErr)),
		zap.Error(ensErr),
	)
	s.finish(ctx, verdict, nil, "", walletErr, start)
	return verdict, nil
}

func (s *ChallengeService) walletPath(ctx context.Context, cfg core.Config, pub core.Publication) (*core.CredentialToken, error) {
	client, err := s.provider.Client(ctx, cfg.ChainTicker, cfg.RPCURL)
	if err != nil {
		return nil, err
	}

	author := pub.AuthorIdentity()
	claim, err := s.verifier.Verify(ctx, client, author, cfg.ChainTicker)
	if err != nil {
		return nil, err
	}

	if err := s.replay.CheckAndAdvance(ctx, cfg.ChainTicker, claim.Address, claim.Timestamp); err != nil {
		return nil, err
	}

	return s.checkCredential(ctx, client, cfg, pub, claim.Address)
}

func (s *ChallengeService) ensPath(ctx context.Context, cfg core.Config, pub core.Publication) (*core.CredentialToken, error) {
	author := pub.AuthorIdentity()
	if !eth.IsENSName(author.Address) {
		return nil, core.NewVerificationError(core.ErrNotENS, core.MsgNotENS, nil)
	}

	// the per-challenge override only points at mainnet when the challenge itself runs there
	var ensRPCURL string
	if cfg.ChainTicker == eth.ENSChainTicker {
		ensRPCURL = cfg.RPCURL
	}
	ensClient, err := s.provider.Client(ctx, eth.ENSChainTicker, ensRPCURL)
	if err != nil {
		return nil, err
	}

	resolved, err := ensClient.ResolveENSAddress(ctx, author.Address)
	if err != nil {
		return nil, err
	}
	if resolved == "" {
		return nil, core.NewVerificationError(core.ErrENSUnresolved, core.MsgENSUnresolved, nil)
	}

	client, err := s.provider.Client(ctx, cfg.ChainTicker, cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	return s.checkCredential(ctx, client, cfg, pub, resolved)
}

// checkCredential verifies owner holds a token of the required type and
// claims one for the publication's author
func (s *ChallengeService) checkCredential(ctx context.Context, client ports.CredentialClient, cfg core.Config, pub core.Publication, owner string) (*core.CredentialToken, error) {
	author := pub.AuthorIdentity().Address
	contract := cfg.ContractAddress.Hex()
	notOwner := core.NewVerificationError(core.ErrNotOwner, cfg.OwnershipMessage(author), nil)

	owns, err := client.OwnsTokenType(ctx, contract, owner, cfg.RequiredTokenType)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, notOwner
	}

	tokens, err := client.TokensOfOwner(ctx, contract, owner)
	if err != nil {
		return nil, err
	}
	candidates := make([]core.CredentialToken, 0, len(tokens))
	for _, token := range tokens {
		if token.TokenType == cfg.RequiredTokenType {
			candidates = append(candidates, token)
		}
	}
	if len(candidates) == 0 {
		return nil, notOwner
	}

	return s.engine.Claim(ctx, CredentialUse{
		Contract:   contract,
		Subplebbit: pub.Community(),
		Author:     author,
		Cooldown:   cfg.TransferCooldown,
		Bind:       cfg.BindToFirstAuthor,
	}, candidates)
}

func (s *ChallengeService) finish(ctx context.Context, verdict *core.Verdict, token *core.CredentialToken, path core.VerificationPath, err error, start time.Time) {
	verdict.Success = err == nil
	verdict.Path = path
	if token != nil {
		verdict.TokenID = token.TokenID.String()
	}

	metricPath, outcome := string(path), "accepted"
	if err != nil {
		verdict.Error = core.UserMessage(err)
		verdict.Reason = core.Reason(err)
		metricPath, outcome = "none", "rejected"
	}

	if verdict.Success && s.tokenizer != nil {
		receipt, tokErr := s.tokenizer.ReceiptToToken(&core.Receipt{
			ID:                verdict.ID,
			AuthorAddress:     verdict.AuthorAddress,
			SubplebbitAddress: verdict.SubplebbitAddress,
			ChainTicker:       verdict.ChainTicker,
			ContractAddress:   verdict.ContractAddress,
			TokenID:           verdict.TokenID,
			Path:              verdict.Path,
			IssuedAt:          s.clock.Now(),
		})
		if tokErr != nil {
			s.logger.Warn("failed to issue receipt", zap.String("verdict_id", verdict.ID), zap.Error(tokErr))
		} else {
			verdict.Receipt = receipt
		}
	}

	fields := []zap.Field{
		zap.String("verdict_id", verdict.ID),
		zap.String("author", verdict.AuthorAddress),
		zap.String("subplebbit", verdict.SubplebbitAddress),
		zap.String("chain", verdict.ChainTicker),
		zap.String("path", metricPath),
		zap.String("outcome", outcome),
	}
	if err != nil {
		fields = append(fields, zap.String("reason", verdict.Reason), zap.Error(err))
	}
	s.logger.Info("challenge evaluated", fields...)

	if s.metrics != nil {
		s.metrics.ObserveEvaluation(metricPath, outcome, s.clock.Now().Sub(start))
		if err != nil {
			s.metrics.IncrementRejections(verdict.Reason)
		}
	}
	if s.publisher != nil {
		if pubErr := s.publisher.PublishVerdict(ctx, verdict); pubErr != nil {
			s.logger.Warn("failed to publish verdict", zap.String("verdict_id", verdict.ID), zap.Error(pubErr))
		}
	}
}

// countRPCError counts an evaluation once if any of its paths hit an RPC failure
func (s *ChallengeService) countRPCError(chain string, errs ...error) {
	if s.metrics == nil {
		return
	}
	for _, err := range errs {
		if errors.Is(err, core.ErrNetwork) {
			s.metrics.IncrementRPCErrors(chain)
			return
		}
	}
}

// VerifyReceipt checks a receipt token issued by this service
func (s *ChallengeService) VerifyReceipt(token string) (*core.Receipt, error) {
	if s.tokenizer == nil {
		return nil, core.ErrInvalidReceipt
	}
	return s.tokenizer.TokenToReceipt(token)
}
