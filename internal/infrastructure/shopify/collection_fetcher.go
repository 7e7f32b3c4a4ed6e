package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// DefaultAPIVersion is the Admin REST API version used when none is configured
const DefaultAPIVersion = "2024-07"

// CollectionFetcher pulls cursor-paginated REST collections for one tenant at a time.
type CollectionFetcher struct {
	tenants     ports.TenantDirectory
	tokens      *TokenManager
	httpClient  *http.Client
	rateLimiter *RateLimiter
	retryConfig RetryConfig
	apiVersion  string
	metrics     ports.SyncMetrics
	logger      zerolog.Logger
}

// FetcherOption customises a CollectionFetcher
type FetcherOption func(*CollectionFetcher)

// WithHTTPClient sets the client, and therefore the per-request timeout
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *CollectionFetcher) { f.httpClient = c }
}

// WithRateLimiter sets the per-shop limiter
func WithRateLimiter(rl *RateLimiter) FetcherOption {
	return func(f *CollectionFetcher) { f.rateLimiter = rl }
}

// WithRetryConfig overrides the default attempt budget
func WithRetryConfig(rc RetryConfig) FetcherOption {
	return func(f *CollectionFetcher) { f.retryConfig = rc }
}

// WithAPIVersion sets the Admin API version segment
func WithAPIVersion(v string) FetcherOption {
	return func(f *CollectionFetcher) {
		if v != "" {
			f.apiVersion = v
		}
	}
}

// WithMetrics records fetch attempts
func WithMetrics(m ports.SyncMetrics) FetcherOption {
	return func(f *CollectionFetcher) { f.metrics = m }
}

// NewCollectionFetcher creates a fetcher with a 30s HTTP timeout and the default retry policy
func NewCollectionFetcher(tenants ports.TenantDirectory, tokens *TokenManager, logger zerolog.Logger, opts ...FetcherOption) *CollectionFetcher {
	f := &CollectionFetcher{
		tenants:     tenants,
		tokens:      tokens,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		retryConfig: DefaultRetryConfig(),
		apiVersion:  DefaultAPIVersion,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// createClient builds a Shopify client for one shop. Retries stay with the fetcher's backoff policy.
func (f *CollectionFetcher) createClient(shopDomain, accessToken string) (*goshopify.Client, error) {
	return goshopify.NewClient(goshopify.App{}, shopDomain, accessToken,
		goshopify.WithVersion(f.apiVersion),
		goshopify.WithHTTPClient(f.httpClient),
	)
}

// FetchPage fetches one page of resourcePath (for example "/customers.json").
func (f *CollectionFetcher) FetchPage(
	ctx context.Context,
	tenantID, resourcePath string,
	limit int,
	cursor string,
	filters map[string]string,
) (*domain.Page, error) {
	if _, ok := filters["page"]; ok {
		return nil, domain.NewValidationError(domain.ErrDeprecatedPagination)
	}
	options, err := listOptions(limit, cursor, filters)
	if err != nil {
		return nil, err
	}

	tenant, err := f.tenants.GetRequired(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	token, err := f.tokens.ResolveAccessToken(tenant.TenantID, tenant.AccessToken)
	if err != nil {
		return nil, err
	}
	client, err := f.createClient(tenant.ShopDomain, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create shopify client: %w", err)
	}

	root := rootField(resourcePath)
	resource, pagination, err := f.listWithRetry(ctx, client, tenant.ShopDomain, strings.TrimPrefix(resourcePath, "/"), options)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s for tenant %s: %w", resourcePath, tenantID, err)
	}

	page := &domain.Page{Items: resource[root]}
	if pagination != nil && pagination.NextPageOptions != nil {
		page.NextCursor = pagination.NextPageOptions.PageInfo
	}
	return page, nil
}

// listOptions maps the collection filters onto the client's query options.
// page_info already encodes the original filters; Shopify rejects them alongside a cursor.
func listOptions(limit int, cursor string, filters map[string]string) (*goshopify.ListOptions, error) {
	options := &goshopify.ListOptions{Limit: limit}
	if cursor != "" {
		options.PageInfo = cursor
		return options, nil
	}

	for key, value := range filters {
		if value == "" {
			continue
		}
		var target *time.Time
		switch key {
		case "updated_at_min":
			target = &options.UpdatedAtMin
		case "updated_at_max":
			target = &options.UpdatedAtMax
		case "created_at_min":
			target = &options.CreatedAtMin
		case "created_at_max":
			target = &options.CreatedAtMax
		default:
			return nil, domain.NewValidationError(fmt.Errorf("unsupported filter %q", key))
		}
		ts, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, domain.NewValidationError(fmt.Errorf("invalid %s: %w", key, err))
		}
		*target = ts.UTC()
	}
	return options, nil
}

func (f *CollectionFetcher) listWithRetry(
	ctx context.Context,
	client *goshopify.Client,
	shop, resourcePath string,
	options *goshopify.ListOptions,
) (map[string][]json.RawMessage, *goshopify.Pagination, error) {
	ra, b := f.retryConfig.newBackOff(ctx)

	var resource map[string][]json.RawMessage
	var pagination *goshopify.Pagination
	attempt := 0

	op := func() error {
		attempt++
		if f.rateLimiter != nil {
			if err := f.rateLimiter.Wait(ctx, shop); err != nil {
				return backoff.Permanent(err)
			}
		}

		resource = map[string][]json.RawMessage{}
		var err error
		pagination, err = client.ListWithPagination(ctx, resourcePath, &resource, options)
		if err == nil {
			if f.rateLimiter != nil {
				f.rateLimiter.Observe(shop, client.RateLimits)
			}
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		if retryAfter := retryAfterOf(err); retryAfter > 0 {
			ra.minNext = retryAfter
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		f.observe("retry")
		f.logger.Warn().
			Err(err).
			Str("shop", shop).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Shopify request failed, retrying")
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		f.observe("failure")
		return nil, nil, err
	}
	f.observe("success")
	return resource, pagination, nil
}

// retryAfterOf returns the Retry-After wait carried by a 429 response
func retryAfterOf(err error) time.Duration {
	var rateErr goshopify.RateLimitError
	if errors.As(err, &rateErr) {
		return time.Duration(rateErr.RetryAfter) * time.Second
	}
	var rateErrPtr *goshopify.RateLimitError
	if errors.As(err, &rateErrPtr) {
		return time.Duration(rateErrPtr.RetryAfter) * time.Second
	}
	return 0
}

func (f *CollectionFetcher) observe(outcome string) {
	if f.metrics != nil {
		f.metrics.ObserveFetchAttempt(outcome)
	}
}

// rootField maps "/customers.json" to "customers"
func rootField(resourcePath string) string {
	return strings.TrimSuffix(path.Base(resourcePath), ".json")
}
