package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/companion-chat/internal/intent"
	"github.com/capitalize-ai/companion-chat/internal/llm"
	"github.com/capitalize-ai/companion-chat/internal/model"
	"github.com/capitalize-ai/companion-chat/internal/prompt"
	"github.com/capitalize-ai/companion-chat/pkg/logger"
	"github.com/capitalize-ai/companion-chat/pkg/metrics"
)

// Catalog is the marketplace store used by the order, listing and lookup
// branches.
type Catalog interface {
	Search(ctx context.Context, q model.CatalogQuery) ([]model.CatalogItem, error)
	CreateListing(ctx context.Context, l model.NewListing) (*model.CatalogItem, error)
	CreateOrder(ctx context.Context, req model.OrderRequest) (*model.OrderRecord, error)
}

// WebSearch is the external search provider.
type WebSearch interface {
	Search(ctx context.Context, query string, shape model.Shape, location string) (*model.WebResults, error)
}

// Preferences reads a user's preference graph.
type Preferences interface {
	GetOrCreate(ctx context.Context, owner string) (*model.PreferenceGraph, error)
}

// EventPublisher receives marketplace events.
type EventPublisher interface {
	Publish(ctx context.Context, event model.MarketplaceEvent) error
}

// TokenCounter counts prompt tokens.
type TokenCounter interface {
	CountMessages(messages []llm.ChatMessage) int
}

// Config holds the pipeline's tunables.
type Config struct {
	DefaultListingPrice    decimal.Decimal
	DefaultSearchShape     model.Shape
	MarketplaceResultLimit int
	WebEvidenceLimit       int
	Model                  string
	Temperature            float64
	MaxTokens              int
	LLMTimeout             time.Duration
	RetryBackoff           time.Duration
	Routing                RouteOptions
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		DefaultListingPrice:    decimal.NewFromInt(50),
		DefaultSearchShape:     model.ShapeGeneral,
		MarketplaceResultLimit: 5,
		WebEvidenceLimit:       3,
		Model:                  "llama3-8b-8192",
		Temperature:            0.7,
		MaxTokens:              1000,
		LLMTimeout:             30 * time.Second,
		RetryBackoff:           250 * time.Millisecond,
	}
}

// Deps are the orchestrator's collaborators. Events and Tokens are optional.
type Deps struct {
	Catalog     Catalog
	Search      WebSearch
	LLM         llm.Client
	Preferences Preferences
	Assembler   *prompt.Assembler
	Events      EventPublisher
	Tokens      TokenCounter
}

// Request is one incoming message with its session context.
type Request struct {
	SessionID string
	UserID    string
	Persona   model.Persona
	Message   string
	// History holds prior turns in chronological order, excluding Message.
	History []model.ChatTurn
}

// Orchestrator answers chat messages.
type Orchestrator struct {
	cfg    Config
	deps   Deps
	logger *logger.Logger
	tracer trace.Tracer
}

// New creates an Orchestrator.
func New(cfg Config, deps Deps, log *logger.Logger) *Orchestrator {
	if cfg.MarketplaceResultLimit <= 0 {
		cfg.MarketplaceResultLimit = 5
	}
	if cfg.WebEvidenceLimit <= 0 {
		cfg.WebEvidenceLimit = 3
	}
	if cfg.DefaultSearchShape == "" {
		cfg.DefaultSearchShape = model.ShapeGeneral
	}
	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		logger: log,
		tracer: otel.Tracer("github.com/capitalize-ai/companion-chat/internal/pipeline"),
	}
}

// Respond routes the message and always returns a reply; failures in the
// catalog or the providers become reply text.
func (o *Orchestrator) Respond(ctx context.Context, req Request) Reply {
	route := Classify(req.Message, LastAssistantTurn(req.History), o.cfg.Routing)

	ctx, span := o.tracer.Start(ctx, "pipeline.Respond", trace.WithAttributes(
		attribute.String("session.id", req.SessionID),
		attribute.String("chat.persona", string(req.Persona)),
		attribute.String("chat.route", string(route.Kind)),
	))
	defer span.End()

	log := o.logger.WithSession(req.SessionID, req.UserID)
	log.Debug("Routing message", zap.String("route", string(route.Kind)), zap.String("intent", string(route.Intent)))
	metrics.RecordRoute(string(route.Kind))

	var reply Reply
	switch route.Kind {
	case RouteOrder:
		reply = o.placeOrder(ctx, log, req, route.OrderID)
	case RouteListing:
		reply = o.createListing(ctx, log, req)
	case RouteMarketplace:
		reply = o.lookup(ctx, log, req, route.Intent)
	case RouteNegation:
		reply = o.webFallback(ctx, log, req.Message, model.ShapeProducts, negationHeader, replyNoItemsOnline)
	default:
		reply = o.converse(ctx, log, req)
	}
	reply.Route = route
	if reply.Effect == nil {
		reply.Effect = None{}
	}
	return reply
}

func (o *Orchestrator) placeOrder(ctx context.Context, log *logger.Logger, req Request, itemID uint64) Reply {
	order, err := o.deps.Catalog.CreateOrder(ctx, model.OrderRequest{
		Buyer:   req.UserID,
		ItemID:  itemID,
		ViaChat: true,
	})
	if err != nil {
		outcome := "failed"
		if errors.Is(err, model.ErrOutOfStock) {
			outcome = "out_of_stock"
		} else if errors.Is(err, model.ErrNotFound) {
			outcome = "not_found"
		}
		metrics.RecordOrder(outcome)
		log.Warn("Order failed", zap.Uint64("item_id", itemID), zap.String("outcome", outcome), zap.Error(err))
		o.publish(ctx, log, model.MarketplaceEvent{
			SessionID: req.SessionID,
			UserID:    req.UserID,
			Type:      model.EventOrderFailed,
			ItemID:    itemID,
			Reason:    outcome,
		})
		return Reply{Text: formatOrderFailure(err)}
	}

	metrics.RecordOrder("created")
	log.Info("Order created", zap.Uint64("order_id", order.ID), zap.Uint64("item_id", order.ItemID))
	o.publish(ctx, log, model.MarketplaceEvent{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Type:      model.EventOrderCreated,
		ItemID:    order.ItemID,
		OrderID:   order.ID,
	})
	return Reply{Text: formatOrder(order), Effect: OrderCreated{Order: *order}}
}

func (o *Orchestrator) createListing(ctx context.Context, log *logger.Logger, req Request) Reply {
	parsed := intent.ParseListing(req.Message, o.cfg.DefaultListingPrice)
	item, err := o.deps.Catalog.CreateListing(ctx, model.NewListing{
		Seller:      req.UserID,
		Title:       parsed.Title,
		Description: req.Message,
		Price:       parsed.Price,
		ViaChat:     true,
	})
	if err != nil {
		log.Error("Listing failed", zap.String("title", parsed.Title), zap.Error(err))
		return Reply{Text: fmt.Sprintf("Sorry, your listing could not be created: %v", err)}
	}

	metrics.ListingsTotal.Inc()
	log.Info("Listing created", zap.Uint64("item_id", item.ID), zap.Bool("price_found", parsed.PriceFound))
	o.publish(ctx, log, model.MarketplaceEvent{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Type:      model.EventListingCreated,
		ItemID:    item.ID,
	})
	return Reply{Text: formatListing(item), Effect: ListingCreated{Item: *item}}
}

func (o *Orchestrator) lookup(ctx context.Context, log *logger.Logger, req Request, kind intent.Kind) Reply {
	keywords := intent.ExtractKeywords(req.Message)
	items, err := o.deps.Catalog.Search(ctx, model.CatalogQuery{
		Text:  keywords,
		Limit: o.cfg.MarketplaceResultLimit,
	})
	if err != nil {
		log.Error("Catalog search failed", zap.String("query", keywords), zap.Error(err))
	}
	if len(items) > 0 {
		if len(items) > o.cfg.MarketplaceResultLimit {
			items = items[:o.cfg.MarketplaceResultLimit]
		}
		return Reply{Text: formatMarketplace(items), Effect: MarketplaceResults{Items: items}}
	}

	shape := o.cfg.DefaultSearchShape
	if kind == intent.KindBuy {
		shape = model.ShapeProducts
	}
	return o.webFallback(ctx, log, req.Message, shape, webFallbackHeader, replyNoItems)
}

func (o *Orchestrator) webFallback(ctx context.Context, log *logger.Logger, query string, shape model.Shape, header, empty string) Reply {
	res, err := o.search(ctx, query, shape)
	if err != nil {
		log.Warn("Web fallback failed", zap.String("shape", string(shape)), zap.Error(err))
		if errors.Is(err, model.ErrProviderUnavailable) {
			return Reply{Text: replySearchNotReady}
		}
		return Reply{Text: empty}
	}
	if len(res.Results) == 0 {
		return Reply{Text: empty}
	}
	return Reply{
		Text:   formatWeb(header, res.Results, o.cfg.WebEvidenceLimit),
		Effect: WebResults{Results: *res},
	}
}

func (o *Orchestrator) converse(ctx context.Context, log *logger.Logger, req Request) Reply {
	var (
		wg       sync.WaitGroup
		prefs    string
		evidence *model.WebResults
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		prefs = o.preferences(ctx, log, req.UserID)
	}()

	if shape, ok := intent.EvidenceShape(req.Message, req.Persona, o.cfg.DefaultSearchShape); ok {
		res, err := o.search(ctx, req.Message, shape)
		if err != nil {
			log.Warn("Evidence search failed", zap.String("shape", string(shape)), zap.Error(err))
		} else if len(res.Results) > 0 {
			evidence = res
		}
	}
	wg.Wait()

	message := req.Message
	var effect SideEffect = None{}
	if evidence != nil {
		message = prompt.WithEvidence(req.Message, evidence.Results, o.cfg.WebEvidenceLimit)
		effect = WebResults{Results: *evidence}
	}

	messages := o.deps.Assembler.Build(req.Persona, prefs, req.History, message)
	if o.deps.Tokens != nil {
		metrics.RecordPromptTokens(o.cfg.Model, o.deps.Tokens.CountMessages(messages))
	}

	text, err := o.complete(ctx, messages)
	if err != nil {
		log.Error("Language model failed", zap.String("provider", o.deps.LLM.Name()), zap.Error(err))
		return Reply{Text: fmt.Sprintf(replyLLMFailure, err), Effect: effect}
	}
	return Reply{Text: text, Effect: effect}
}

func (o *Orchestrator) preferences(ctx context.Context, log *logger.Logger, userID string) string {
	if o.deps.Preferences == nil || userID == "" {
		return ""
	}
	g, err := o.deps.Preferences.GetOrCreate(ctx, userID)
	if err != nil {
		log.Warn("Preferences unavailable", zap.Error(err))
		return ""
	}
	return prompt.PreferenceContext(g)
}

func (o *Orchestrator) search(ctx context.Context, query string, shape model.Shape) (*model.WebResults, error) {
	ctx, span := o.tracer.Start(ctx, "search.Search", trace.WithAttributes(attribute.String("search.shape", string(shape))))
	defer span.End()

	start := time.Now()
	res, err := o.deps.Search.Search(ctx, query, shape, "")
	metrics.RecordProviderCall("serpapi", err, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

// complete calls the language model, retrying one transient failure. A blank
// completion counts as a failure.
func (o *Orchestrator) complete(ctx context.Context, messages []llm.ChatMessage) (string, error) {
	ctx, span := o.tracer.Start(ctx, "llm.Complete", trace.WithAttributes(
		attribute.String("llm.provider", o.deps.LLM.Name()),
		attribute.String("llm.model", o.cfg.Model),
	))
	defer span.End()

	req := &llm.CompletionRequest{
		Model:       o.cfg.Model,
		Messages:    messages,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	}

	var text string
	op := func() error {
		callCtx := ctx
		if o.cfg.LLMTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, o.cfg.LLMTimeout)
			defer cancel()
		}
		start := time.Now()
		resp, err := o.deps.LLM.Complete(callCtx, req)
		metrics.RecordProviderCall(o.deps.LLM.Name(), err, time.Since(start).Seconds())
		if err != nil {
			if !model.IsTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		if strings.TrimSpace(resp.Content) == "" {
			return model.NewError(model.CodeProviderError, "empty_completion",
				fmt.Errorf("%w: %s returned an empty completion", model.ErrProviderError, o.deps.LLM.Name()))
		}
		text = resp.Content
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(o.cfg.RetryBackoff), 1), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return text, nil
}

func (o *Orchestrator) publish(ctx context.Context, log *logger.Logger, event model.MarketplaceEvent) {
	if o.deps.Events == nil {
		return
	}
	if err := o.deps.Events.Publish(ctx, event); err != nil {
		log.Warn("Marketplace event not published", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
