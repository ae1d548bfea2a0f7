package logic

import (
	"errors"
	"strings"

	"github.com/GANESH4511/Dataverse/internal/auth"
	"github.com/GANESH4511/Dataverse/internal/chain"
	"github.com/GANESH4511/Dataverse/internal/logger"
	"github.com/GANESH4511/Dataverse/internal/model"
	"gorm.io/gorm"
)

// SignInRequest is one of SignatureSignIn or AddressSignIn.
type SignInRequest interface {
	signIn()
}

// SignatureSignIn proves wallet ownership by signing the current challenge.
type SignatureSignIn struct {
	PublicKey string
	Signature []byte
	Message   string
}

// AddressSignIn trusts the wallet address as given. Workers only, and only
// when enabled in configuration.
type AddressSignIn struct {
	WalletAddress string
}

func (SignatureSignIn) signIn() {}
func (AddressSignIn) signIn()   {}

// SignInResult carries the issued token and the account it names.
type SignInResult struct {
	Token         string
	AccountID     string
	WalletAddress string
	Legacy        bool
	Balance       *Balance // set for legacy worker sign-in
}

type accountRow struct {
	ID            string
	WalletAddress string
	Nonce         string
}

// AuthLogic implements wallet sign-in for users and workers.
type AuthLogic struct {
	db          *gorm.DB
	verifier    chain.Verifier
	issuers     map[auth.Namespace]*auth.TokenIssuer
	allowLegacy bool
}

func NewAuthLogic(db *gorm.DB, verifier chain.Verifier, users, workers *auth.TokenIssuer, allowLegacy bool) *AuthLogic {
	return &AuthLogic{
		db:       db,
		verifier: verifier,
		issuers: map[auth.Namespace]*auth.TokenIssuer{
			auth.NamespaceUser:   users,
			auth.NamespaceWorker: workers,
		},
		allowLegacy: allowLegacy,
	}
}

func accountModel(ns auth.Namespace) interface{} {
	if ns == auth.NamespaceWorker {
		return &model.Worker{}
	}
	return &model.User{}
}

func newAccount(ns auth.Namespace, address, nonce string) (interface{}, *string) {
	if ns == auth.NamespaceWorker {
		w := &model.Worker{WalletAddress: address, Nonce: nonce}
		return w, &w.ID
	}
	u := &model.User{WalletAddress: address, Nonce: nonce}
	return u, &u.ID
}

func (a *AuthLogic) findAccount(ns auth.Namespace, address string) (*accountRow, error) {
	var row accountRow
	res := a.db.Model(accountModel(ns)).
		Select("id", "wallet_address", "nonce").
		Where("wallet_address = ?", address).
		Limit(1).
		Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (a *AuthLogic) findOrCreateAccount(ns auth.Namespace, address string) (*accountRow, error) {
	row, err := a.findAccount(ns, address)
	if err != nil || row != nil {
		return row, err
	}

	nonce, err := auth.NewNonce()
	if err != nil {
		return nil, err
	}
	account, id := newAccount(ns, address, nonce)
	if err := a.db.Create(account).Error; err != nil {
		// lost a race with a concurrent first request
		if isUniqueViolation(err) {
			row, err = a.findAccount(ns, address)
			if err == nil && row == nil {
				err = errors.New("account vanished after conflict")
			}
			return row, err
		}
		return nil, err
	}
	logger.Info("Created %s account %s", ns, *id)
	return &accountRow{ID: *id, WalletAddress: address, Nonce: nonce}, nil
}

// IssueNonce returns the challenge the wallet must sign, creating the
// account on first contact.
func (a *AuthLogic) IssueNonce(ns auth.Namespace, publicKey string) (string, error) {
	publicKey = strings.TrimSpace(publicKey)
	if publicKey == "" {
		return "", validation("publicKey is required")
	}
	if err := a.verifier.ValidateAddress(publicKey); err != nil {
		return "", validation("Invalid wallet address")
	}

	row, err := a.findOrCreateAccount(ns, publicKey)
	if err != nil {
		return "", internal("Error generating nonce", err)
	}
	return auth.ChallengeMessage(row.Nonce), nil
}

// SignIn dispatches on the request variant and returns a token in ns.
func (a *AuthLogic) SignIn(ns auth.Namespace, req SignInRequest) (*SignInResult, error) {
	switch r := req.(type) {
	case SignatureSignIn:
		return a.signInWithSignature(ns, r)
	case AddressSignIn:
		return a.signInWithAddress(ns, r)
	default:
		return nil, validation("publicKey, signature, and message are required")
	}
}

func (a *AuthLogic) signInWithSignature(ns auth.Namespace, req SignatureSignIn) (*SignInResult, error) {
	if req.PublicKey == "" || len(req.Signature) == 0 || req.Message == "" {
		return nil, validation("publicKey, signature, and message are required")
	}

	row, err := a.findAccount(ns, req.PublicKey)
	if err != nil {
		return nil, internal("Internal server error", err)
	}
	if row == nil {
		return nil, notFound("Wallet not registered. Please request a nonce first.")
	}

	if req.Message != auth.ChallengeMessage(row.Nonce) {
		return nil, ErrMessageMismatch
	}
	if err := a.verifier.Verify(req.PublicKey, req.Message, req.Signature); err != nil {
		logger.Warn("Invalid %s signature for %s: %v", ns, req.PublicKey, err)
		return nil, ErrInvalidSignature
	}

	// rotate the nonce only if nobody used it first
	next, err := auth.NewNonce()
	if err != nil {
		return nil, internal("Internal server error", err)
	}
	res := a.db.Model(accountModel(ns)).
		Where("id = ? AND nonce = ?", row.ID, row.Nonce).
		Update("nonce", next)
	if res.Error != nil {
		return nil, internal("Internal server error", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrMessageMismatch
	}

	token, err := a.issuers[ns].Issue(row.ID)
	if err != nil {
		return nil, internal("Token generation failed", err)
	}
	return &SignInResult{Token: token, AccountID: row.ID, WalletAddress: row.WalletAddress}, nil
}

func (a *AuthLogic) signInWithAddress(ns auth.Namespace, req AddressSignIn) (*SignInResult, error) {
	if ns != auth.NamespaceWorker {
		return nil, validation("publicKey, signature, and message are required")
	}
	if !a.allowLegacy {
		return nil, ErrLegacySignInOff
	}
	address := strings.TrimSpace(req.WalletAddress)
	if address == "" {
		return nil, validation("Wallet address is required")
	}
	if err := a.verifier.ValidateAddress(address); err != nil {
		return nil, validation("Invalid wallet address")
	}

	row, err := a.findOrCreateAccount(ns, address)
	if err != nil {
		return nil, internal("Internal server error", err)
	}
	token, err := a.issuers[ns].Issue(row.ID)
	if err != nil {
		return nil, internal("Token generation failed", err)
	}

	var worker model.Worker
	if err := a.db.Select("pending_balance", "locked_balance").First(&worker, "id = ?", row.ID).Error; err != nil {
		return nil, internal("Internal server error", err)
	}
	return &SignInResult{
		Token:         token,
		AccountID:     row.ID,
		WalletAddress: row.WalletAddress,
		Legacy:        true,
		Balance:       &Balance{Pending: worker.PendingBalance, Locked: worker.LockedBalance},
	}, nil
}
