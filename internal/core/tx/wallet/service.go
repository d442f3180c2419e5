package wallet

import (
	"context"

	"github.com/LeJamon/goFracVault/internal/core/bank"
	"github.com/LeJamon/goFracVault/internal/core/custody"
	"github.com/LeJamon/goFracVault/internal/core/shares"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/tx"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
)

// Service submits wallet operations and answers balance queries.
type Service struct {
	engine *tx.Engine
}

func NewService(engine *tx.Engine) *Service {
	return &Service{engine: engine}
}

func (s *Service) ApproveShares(ctx context.Context, owner types.Address, ledger [32]byte, spender types.Address, amt *uint256.Int) (*tx.ApplyResult, error) {
	return s.engine.Submit(ctx, &ApproveShares{Owner: owner, Ledger: ledger, Spender: spender, Amount: amt})
}

func (s *Service) TransferShares(ctx context.Context, from types.Address, ledger [32]byte, to types.Address, amt *uint256.Int) (*tx.ApplyResult, error) {
	return s.engine.Submit(ctx, &TransferShares{From: from, Ledger: ledger, To: to, Amount: amt})
}

func (s *Service) MintAsset(ctx context.Context, collection types.Address, assetID *uint256.Int, to types.Address) (*tx.ApplyResult, error) {
	return s.engine.Submit(ctx, &MintAsset{Collection: collection, AssetID: assetID, To: to})
}

func (s *Service) ApproveOperator(ctx context.Context, owner, collection, operator types.Address, approved bool) (*tx.ApplyResult, error) {
	return s.engine.Submit(ctx, &ApproveOperator{Owner: owner, Collection: collection, Operator: operator, Approved: approved})
}

func (s *Service) Pay(ctx context.Context, from, to types.Address, amt *uint256.Int) (*tx.ApplyResult, error) {
	return s.engine.Submit(ctx, &Pay{From: from, To: to, Amount: amt})
}

func (s *Service) Fund(ctx context.Context, caller, to types.Address, amt *uint256.Int) (*tx.ApplyResult, error) {
	return s.engine.Submit(ctx, &Fund{Caller: caller, To: to, Amount: amt})
}

// Balance returns the native balance of addr.
func (s *Service) Balance(ctx context.Context, addr types.Address) (*uint256.Int, error) {
	var out *uint256.Int
	err := s.engine.View(ctx, func(v state.View) error {
		var err error
		out, err = bank.New(v, nil).Balance(addr)
		return err
	})
	return out, err
}

// ShareBalance returns holder's balance on a share ledger.
func (s *Service) ShareBalance(ctx context.Context, ledger [32]byte, holder types.Address) (*uint256.Int, error) {
	var out *uint256.Int
	err := s.engine.View(ctx, func(v state.View) error {
		l, err := shares.Open(v, ledger)
		if err != nil {
			return err
		}
		out, err = l.BalanceOf(holder)
		return err
	})
	return out, err
}

// ShareAllowance returns what spender may move of owner's shares.
func (s *Service) ShareAllowance(ctx context.Context, ledger [32]byte, owner, spender types.Address) (*uint256.Int, error) {
	var out *uint256.Int
	err := s.engine.View(ctx, func(v state.View) error {
		l, err := shares.Open(v, ledger)
		if err != nil {
			return err
		}
		out, err = l.Allowance(owner, spender)
		return err
	})
	return out, err
}

// AssetOwner returns the owner of an asset.
func (s *Service) AssetOwner(ctx context.Context, collection types.Address, assetID *uint256.Int) (types.Address, error) {
	var out types.Address
	err := s.engine.View(ctx, func(v state.View) error {
		var err error
		out, err = custody.New(v).OwnerOf(collection, assetID)
		return err
	})
	return out, err
}
