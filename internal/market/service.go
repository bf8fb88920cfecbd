package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"namemart/internal/events"
	"namemart/internal/ledger"
	"namemart/internal/platform/metrics"
	"namemart/internal/registry"
	"namemart/internal/settlement"
	id "namemart/pkg/domain"
	dErrors "namemart/pkg/domain-errors"
	"namemart/pkg/platform/sentinel"
	"namemart/pkg/platform/tx"
	"namemart/pkg/requestcontext"
)

// Deps wires the service. DB may be nil when the stores are not SQL-backed;
// tx.Within degrades to plain execution in that case.
type Deps struct {
	Store      Store
	Registry   registry.Client
	Escrow     *ledger.Service
	Settlement *settlement.Engine
	Events     events.Publisher
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Market     id.Address
	DB         *sql.DB
}

// Service runs the marketplace state machine. Every mutating operation holds
// the per-name lock for its whole duration and follows one ordering rule:
// internal accounting (sale record, escrow) reaches its final state before
// any outbound transfer or push that could re-enter the system.
type Service struct {
	store  Store
	names  registry.Client
	escrow *ledger.Service
	settle *settlement.Engine
	events events.Publisher
	m      *metrics.Metrics
	logger *slog.Logger
	market id.Address
	db     *sql.DB
	locks  *keyedMutex
}

func NewService(d Deps) *Service {
	return &Service{
		store:  d.Store,
		names:  d.Registry,
		escrow: d.Escrow,
		settle: d.Settlement,
		events: d.Events,
		m:      d.Metrics,
		logger: d.Logger,
		market: d.Market,
		db:     d.DB,
		locks:  newKeyedMutex(),
	}
}

// List creates or reprices a listing. The caller must be the party that
// handed the name to the market, verified against the registry, and the
// auction must not have started.
func (s *Service) List(ctx context.Context, caller id.Address, name string, price, reserve id.Amount, startReferrer id.Address) error {
	if !ValidateListing(price, reserve) {
		return dErrors.New(dErrors.CodeInvalidInput, "price must be zero or at least the reserve, and one of price/reserve nonzero")
	}
	key := id.KeyForName(name)
	unlock := s.locks.Lock(key)
	defer unlock()

	existing, err := s.store.Get(ctx, key)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(dErrors.CodeInternal, "read sale", err)
	}
	if existing != nil && existing.HasBid() {
		return dErrors.New(dErrors.CodeFailedPrecondition, "auction already started")
	}
	if err := s.authorize(ctx, key, caller); err != nil {
		return err
	}

	// A fresh record also clears any stale bid fields from a prior listing.
	sale := &Sale{
		Key:           key,
		Name:          name,
		Reserve:       reserve,
		Price:         price,
		StartReferrer: startReferrer,
	}
	if err := s.store.Put(ctx, sale); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "save sale", err)
	}

	if s.m != nil {
		s.m.ListingsCreated.Inc()
	}
	s.emit(ctx, events.NewPrices(name, reserve, price, requestcontext.Now(ctx)))
	return nil
}

// Cancel delists a name before any bid and returns ownership to the caller.
func (s *Service) Cancel(ctx context.Context, caller id.Address, name string) error {
	key := id.KeyForName(name)
	unlock := s.locks.Lock(key)
	defer unlock()

	sale, err := s.getListed(ctx, key)
	if err != nil {
		return err
	}
	if sale.HasBid() {
		return dErrors.New(dErrors.CodeFailedPrecondition, "auction already started")
	}
	if err := s.authorize(ctx, key, caller); err != nil {
		return err
	}

	if err := s.clearThenTransfer(ctx, sale, caller); err != nil {
		return err
	}

	if s.m != nil {
		s.m.ListingsCancelled.Inc()
	}
	s.emit(ctx, events.NewCancel(name, requestcontext.Now(ctx)))
	return nil
}

// Buy settles a fixed-price purchase: ownership to the caller, funds split
// between seller and referrers. An active auction blocks it.
func (s *Service) Buy(ctx context.Context, caller id.Address, name string, amount id.Amount, bidReferrer id.Address) (settlement.Outcome, error) {
	key := id.KeyForName(name)
	unlock := s.locks.Lock(key)
	defer unlock()

	sale, err := s.getListed(ctx, key)
	if err != nil {
		return settlement.Outcome{}, err
	}
	if !sale.IsDirect() {
		return settlement.Outcome{}, dErrors.New(dErrors.CodeFailedPrecondition, "name is not for direct purchase")
	}
	if sale.HasBid() {
		return settlement.Outcome{}, dErrors.New(dErrors.CodeFailedPrecondition, "auction in progress blocks direct purchase")
	}
	if amount < sale.Price {
		return settlement.Outcome{}, dErrors.New(dErrors.CodeFailedPrecondition,
			fmt.Sprintf("payment %d below asking price %d", amount, sale.Price))
	}

	s.escrow.Flush(ctx, caller)

	seller, err := s.sellerOfRecord(ctx, key)
	if err != nil {
		return settlement.Outcome{}, err
	}

	if err := s.clearThenTransfer(ctx, sale, caller); err != nil {
		return settlement.Outcome{}, err
	}

	outcome, err := s.settleAndReport(ctx, name, amount, seller, caller, sale.StartReferrer, bidReferrer)
	if err != nil {
		return outcome, err
	}
	if s.m != nil {
		s.m.DirectPurchases.Inc()
	}
	return outcome, nil
}

// Bid places an auction bid: escrow accounting and a deadline reset, no
// ownership movement.
func (s *Service) Bid(ctx context.Context, caller id.Address, name string, amount id.Amount, bidReferrer id.Address) error {
	key := id.KeyForName(name)
	unlock := s.locks.Lock(key)
	defer unlock()

	sale, err := s.getListed(ctx, key)
	if err != nil {
		return err
	}
	if !sale.IsAuction() {
		return dErrors.New(dErrors.CodeFailedPrecondition, "name is not up for auction")
	}
	now := requestcontext.Now(ctx)
	if !BidWindowOpen(sale, now) {
		s.countRejectedBid()
		return dErrors.New(dErrors.CodeFailedPrecondition, "auction has ended")
	}
	if minimum := MinimumBid(sale); amount <= minimum {
		s.countRejectedBid()
		return dErrors.New(dErrors.CodeFailedPrecondition,
			fmt.Sprintf("bid %d must exceed %d", amount, minimum))
	}

	s.escrow.Flush(ctx, caller)

	outbid := sale.LastBidder
	outbidAmount := sale.LastBid
	err = tx.Within(ctx, s.db, func(ctx context.Context) error {
		if outbidAmount > 0 {
			// The outbid bidder gets the full prior bid back, exactly once.
			if err := s.escrow.Credit(ctx, outbid, outbidAmount); err != nil {
				return dErrors.Wrap(dErrors.CodeInternal, "return outbid funds", err)
			}
		}
		sale.LastBid = amount
		sale.LastBidder = caller
		sale.BidReferrer = bidReferrer
		sale.AuctionEnds = NextDeadline(now)
		if err := s.store.Put(ctx, sale); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "save bid", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.m != nil {
		s.m.BidsAccepted.Inc()
	}
	s.emit(ctx, events.NewBid(name, amount, now))
	return nil
}

// Finish completes an auction whose window has closed: ownership to the
// high bidder, funds split. Anyone may call it.
func (s *Service) Finish(ctx context.Context, name string) (settlement.Outcome, error) {
	key := id.KeyForName(name)
	unlock := s.locks.Lock(key)
	defer unlock()

	sale, err := s.getListed(ctx, key)
	if err != nil {
		return settlement.Outcome{}, err
	}
	if !sale.HasBid() {
		return settlement.Outcome{}, dErrors.New(dErrors.CodeFailedPrecondition, "no bids to settle")
	}
	now := requestcontext.Now(ctx)
	if !now.After(sale.AuctionEnds) {
		return settlement.Outcome{}, dErrors.New(dErrors.CodeFailedPrecondition, "auction still open")
	}

	seller, err := s.sellerOfRecord(ctx, key)
	if err != nil {
		return settlement.Outcome{}, err
	}

	if err := s.clearThenTransfer(ctx, sale, sale.LastBidder); err != nil {
		return settlement.Outcome{}, err
	}

	outcome, err := s.settleAndReport(ctx, name, sale.LastBid, seller, sale.LastBidder, sale.StartReferrer, sale.BidReferrer)
	if err != nil {
		return outcome, err
	}
	if s.m != nil {
		s.m.AuctionsSettled.Inc()
	}
	return outcome, nil
}

// Sale returns the listing record for the read API.
func (s *Service) Sale(ctx context.Context, name string) (*Sale, error) {
	return s.getListed(ctx, id.KeyForName(name))
}

// The query surface mirrors the contract-style read operations: unlisted
// names answer with zero values, not errors.

func (s *Service) IsAuction(ctx context.Context, name string) (bool, error) {
	sale, err := s.lookup(ctx, name)
	if err != nil || sale == nil {
		return false, err
	}
	return sale.IsAuction(), nil
}

func (s *Service) IsDirect(ctx context.Context, name string) (bool, error) {
	sale, err := s.lookup(ctx, name)
	if err != nil || sale == nil {
		return false, err
	}
	return sale.IsDirect(), nil
}

func (s *Service) AuctionStarted(ctx context.Context, name string) (bool, error) {
	sale, err := s.lookup(ctx, name)
	if err != nil || sale == nil {
		return false, err
	}
	return sale.HasBid(), nil
}

func (s *Service) AuctionEnds(ctx context.Context, name string) (time.Time, error) {
	sale, err := s.lookup(ctx, name)
	if err != nil || sale == nil {
		return time.Time{}, err
	}
	return sale.AuctionEnds, nil
}

func (s *Service) MinimumBid(ctx context.Context, name string) (id.Amount, error) {
	sale, err := s.lookup(ctx, name)
	if err != nil || sale == nil {
		return 0, err
	}
	return MinimumBid(sale), nil
}

func (s *Service) Price(ctx context.Context, name string) (id.Amount, error) {
	sale, err := s.lookup(ctx, name)
	if err != nil || sale == nil {
		return 0, err
	}
	return sale.Price, nil
}

// authorize maps the registry ownership pair onto the access rule: the
// market must hold the name, the caller must be the party who handed it in.
func (s *Service) authorize(ctx context.Context, key id.NameKey, caller id.Address) error {
	_, ok, err := registry.Authorize(ctx, s.names, key, caller, s.market)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "name not found in registry")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "registry lookup", err)
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "caller is not the verified seller of this name")
	}
	return nil
}

// sellerOfRecord reads the party owed the proceeds: the previous holder per
// the registry, read fresh at settlement time.
func (s *Service) sellerOfRecord(ctx context.Context, key id.NameKey) (id.Address, error) {
	record, err := s.names.Record(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return id.ZeroAddress, dErrors.New(dErrors.CodeNotFound, "name not found in registry")
		}
		return id.ZeroAddress, dErrors.Wrap(dErrors.CodeInternal, "registry lookup", err)
	}
	if record.Owner != s.market {
		return id.ZeroAddress, dErrors.New(dErrors.CodeFailedPrecondition, "market no longer holds this name")
	}
	return record.PreviousOwner, nil
}

// clearThenTransfer clears the sale record and only then moves ownership:
// any reentrant call triggered by the transfer sees the name unlisted. On
// SQL backends a failed transfer rolls the clear back; on memory backends
// the record is restored by hand.
func (s *Service) clearThenTransfer(ctx context.Context, sale *Sale, newOwner id.Address) error {
	snapshot := *sale
	err := tx.Within(ctx, s.db, func(ctx context.Context) error {
		if err := s.store.Delete(ctx, sale.Key); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "clear sale", err)
		}
		if err := s.names.Transfer(ctx, sale.Key, newOwner); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "transfer ownership", err)
		}
		return nil
	})
	if err != nil {
		if s.db == nil {
			if putErr := s.store.Put(ctx, &snapshot); putErr != nil {
				s.logger.ErrorContext(ctx, "failed to restore sale after aborted transfer",
					"name", snapshot.Name, "error", putErr.Error())
			}
		}
		return err
	}
	return nil
}

// settleAndReport distributes funds and emits the transfer notification.
// Ownership has already moved; a settlement failure here means an escrow
// credit failed and needs operator attention.
func (s *Service) settleAndReport(ctx context.Context, name string, amount id.Amount, seller, newOwner, startReferrer, bidReferrer id.Address) (settlement.Outcome, error) {
	outcome, err := s.settle.Distribute(ctx, amount, seller, startReferrer, bidReferrer)
	if err != nil {
		s.logger.ErrorContext(ctx, "settlement incomplete after ownership transfer",
			"name", name,
			"amount", uint64(amount),
			"error", err.Error(),
		)
		return outcome, dErrors.Wrap(dErrors.CodeInternal, "settle funds", err)
	}
	s.emit(ctx, events.NewTransfer(name, seller, newOwner, amount, outcome.Remainder, requestcontext.Now(ctx)))
	return outcome, nil
}

func (s *Service) getListed(ctx context.Context, key id.NameKey) (*Sale, error) {
	sale, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "name is not listed")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "read sale", err)
	}
	return sale, nil
}

// lookup is the soft variant for the query surface: nil, nil when unlisted.
func (s *Service) lookup(ctx context.Context, name string) (*Sale, error) {
	sale, err := s.store.Get(ctx, id.KeyForName(name))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "read sale", err)
	}
	return sale, nil
}

func (s *Service) countRejectedBid() {
	if s.m != nil {
		s.m.BidsRejected.Inc()
	}
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "notification publish failed",
			"type", string(event.Type),
			"name", event.Name,
			"error", err.Error(),
		)
	}
}
