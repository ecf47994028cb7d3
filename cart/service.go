package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/cart-go/core/es"
	"github.com/codewandler/cart-go/core/perkey"
	"github.com/codewandler/cart-go/ports/pricing"
	"github.com/codewandler/cart-go/ports/users"
)

// RegisterEvents registers all cart event types with the registry.
func RegisterEvents(r es.Registrar) {
	es.RegisterEvents(r,
		es.Event[Opened](),
		es.Event[ProductItemAdded](),
		es.Event[ProductItemRemoved](),
		es.Event[Confirmed](),
		es.Event[Canceled](),
	)
}

// NewRepository builds the optimistic-concurrency gateway for shopping
// carts on top of the given store.
func NewRepository(log *slog.Logger, store es.EventStore, opts ...es.RepositoryOption) *es.Repository[ShoppingCart] {
	registry := es.NewRegistry()
	RegisterEvents(registry)
	return es.NewRepository(log, store, registry, StreamType, Apply, opts...)
}

type (
	serviceOpts struct {
		users     users.Directory
		now       func() time.Time
		serialize bool
	}

	ServiceOption          interface{ applyToService(*serviceOpts) }
	serviceDirectoryOption struct{ d users.Directory }
	serviceClockOption     struct{ now func() time.Time }
	serializeOption        struct{}
)

// WithUserDirectory makes Open verify the owning client exists.
func WithUserDirectory(d users.Directory) ServiceOption { return serviceDirectoryOption{d: d} }

// WithServiceClock sets the clock used to stamp emitted events.
func WithServiceClock(now func() time.Time) ServiceOption { return serviceClockOption{now: now} }

// WithPerCartSerialization serializes command handling per cart ID
// within this process. It reduces local optimistic-concurrency
// conflicts; the store-side revision check stays authoritative.
func WithPerCartSerialization() ServiceOption { return serializeOption{} }

func (o serviceDirectoryOption) applyToService(opts *serviceOpts) { opts.users = o.d }
func (o serviceClockOption) applyToService(opts *serviceOpts)     { opts.now = o.now }
func (o serializeOption) applyToService(opts *serviceOpts)        { opts.serialize = true }

// Service is the application-level command handler: it glues the
// gateway, the state machine and the pricing/user collaborators into
// one operation per command. Every operation returns the stream
// revision the caller should hold for its next conditional request.
type Service struct {
	log    *slog.Logger
	repo   *es.Repository[ShoppingCart]
	pricer pricing.ProductPricer
	users  users.Directory
	sched  *perkey.Scheduler[string]
	now    func() time.Time
}

func NewService(
	log *slog.Logger,
	repo *es.Repository[ShoppingCart],
	pricer pricing.ProductPricer,
	opts ...ServiceOption,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	options := serviceOpts{now: time.Now}
	for _, opt := range opts {
		opt.applyToService(&options)
	}

	s := &Service{
		log:    log.With(slog.String("service", "cart")),
		repo:   repo,
		pricer: pricer,
		users:  options.users,
		now:    options.now,
	}
	if options.serialize {
		s.sched = perkey.New[string]()
	}
	return s
}

// Close releases the per-cart scheduler, if any.
func (s *Service) Close() {
	if s.sched != nil {
		s.sched.Close()
	}
}

// Open creates a new cart for the client. An empty cartID gets a
// generated one; the chosen ID is returned for the Location header of
// the boundary. Fails with ErrAlreadyExists when the cart exists.
func (s *Service) Open(ctx context.Context, cartID, clientID string) (id string, rev es.Revision, err error) {
	if clientID == "" {
		return "", 0, errors.New("client id is empty")
	}
	if s.users != nil {
		if _, err = s.users.GetUser(ctx, clientID); err != nil {
			return "", 0, err
		}
	}
	if cartID == "" {
		cartID = gonanoid.Must()
	}

	rev, err = s.handle(ctx, cartID, es.NoStream(), Open{CartID: cartID, ClientID: clientID})
	if err != nil {
		return "", 0, err
	}
	return cartID, rev, nil
}

// AddProductItem prices the submitted item and adds it to the cart.
// The captured unit price is part of the line key: repeated adds of the
// same product at the same price merge into one line.
func (s *Service) AddProductItem(
	ctx context.Context,
	cartID string,
	expected es.ExpectedRevision,
	item ProductItem,
) (es.Revision, error) {
	if item.ProductID == "" || item.Quantity <= 0 {
		return 0, fmt.Errorf("%w: %+v", ErrInvalidProductItem, item)
	}

	price, err := s.pricer.Price(ctx, item.ProductID)
	if err != nil {
		return 0, err
	}

	return s.handle(ctx, cartID, expected, AddProductItem{
		Item: PricedProductItem{
			ProductID: item.ProductID,
			UnitPrice: price.UnitPrice,
			Quantity:  item.Quantity,
		},
	})
}

// RemoveProductItem removes a quantity from the line keyed by the
// item's (ProductID, UnitPrice).
func (s *Service) RemoveProductItem(
	ctx context.Context,
	cartID string,
	expected es.ExpectedRevision,
	item PricedProductItem,
) (es.Revision, error) {
	return s.handle(ctx, cartID, expected, RemoveProductItem{Item: item})
}

// Confirm closes the cart. The cart must hold at least one line.
func (s *Service) Confirm(ctx context.Context, cartID string, expected es.ExpectedRevision) (es.Revision, error) {
	return s.handle(ctx, cartID, expected, Confirm{})
}

// Cancel abandons the cart.
func (s *Service) Cancel(ctx context.Context, cartID string, expected es.ExpectedRevision) (es.Revision, error) {
	return s.handle(ctx, cartID, expected, Cancel{})
}

// Get folds the cart's full stream into its current snapshot and
// revision. Fails with ErrNotFound when the cart was never opened.
func (s *Service) Get(ctx context.Context, cartID string) (ShoppingCart, es.Revision, error) {
	c, rev, err := s.repo.Read(ctx, cartID)
	if err != nil {
		if errors.Is(err, es.ErrStreamNotFound) {
			return c, 0, fmt.Errorf("%w: %s", ErrNotFound, cartID)
		}
		return c, 0, err
	}
	return c, rev, nil
}

func (s *Service) handle(ctx context.Context, cartID string, expected es.ExpectedRevision, cmd Command) (es.Revision, error) {
	if cartID == "" {
		return 0, errors.New("cart id is empty")
	}
	if expected == nil {
		expected = es.Any()
	}

	run := func() (es.Revision, error) {
		_, rev, err := s.repo.Handle(ctx, cartID, expected, func(c ShoppingCart) ([]any, error) {
			return Decide(c, cmd, s.now())
		})
		if err != nil {
			if errors.Is(err, es.ErrStreamNotFound) {
				return 0, fmt.Errorf("%w: %s", ErrNotFound, cartID)
			}
			return 0, err
		}
		return rev, nil
	}

	if s.sched == nil {
		return run()
	}

	var rev es.Revision
	err := s.sched.DoContext(ctx, cartID, func() (err error) {
		rev, err = run()
		return err
	})
	return rev, err
}
