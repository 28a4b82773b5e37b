package resources

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sunbolsss/egfr-calculator/internal/cache"
)

// URIScheme is the scheme shared by every resource served over MCP.
const URIScheme = "egfr://"

// ResourceManager manages MCP resources and their providers
type ResourceManager struct {
	logger    *logrus.Logger
	providers map[string]ResourceProvider
	cache     *cache.MemoryCache[*ResourceContent]
	mutex     sync.RWMutex
}

// ResourceProvider defines the interface for resource providers
type ResourceProvider interface {
	// GetResource retrieves a resource by URI
	GetResource(ctx context.Context, uri string) (*ResourceContent, error)

	// ListResources lists available resources with optional filtering
	ListResources(ctx context.Context, cursor string) (*ResourceList, error)

	// GetResourceInfo returns metadata about a resource
	GetResourceInfo(ctx context.Context, uri string) (*ResourceInfo, error)

	// SupportsURI checks if this provider can handle the given URI
	SupportsURI(uri string) bool

	// GetProviderInfo returns information about this provider
	GetProviderInfo() ProviderInfo
}

// ResourceContent represents the content of a resource
type ResourceContent struct {
	URI          string                 `json:"uri"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	MimeType     string                 `json:"mimeType"`
	Content      interface{}            `json:"content"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	LastModified time.Time              `json:"lastModified"`
	ETag         string                 `json:"etag,omitempty"`
}

// ResourceList represents a list of available resources
type ResourceList struct {
	Resources  []ResourceInfo `json:"resources"`
	NextCursor string         `json:"nextCursor,omitempty"`
	Total      int            `json:"total"`
}

// ResourceInfo provides metadata about a resource
type ResourceInfo struct {
	URI          string                 `json:"uri"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	MimeType     string                 `json:"mimeType"`
	LastModified time.Time              `json:"lastModified"`
	Tags         []string               `json:"tags,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// ProviderInfo contains metadata about a resource provider
type ProviderInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	URIPatterns []string `json:"uriPatterns"`
}

// NewResourceManager creates a new resource manager. The cache is optional;
// with a nil cache every read goes straight to the provider.
func NewResourceManager(logger *logrus.Logger, contentCache *cache.MemoryCache[*ResourceContent]) *ResourceManager {
	return &ResourceManager{
		logger:    logger,
		providers: make(map[string]ResourceProvider),
		cache:     contentCache,
	}
}

// RegisterProvider registers a new resource provider
func (rm *ResourceManager) RegisterProvider(name string, provider ResourceProvider) {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()

	rm.providers[name] = provider
	rm.logger.WithFields(logrus.Fields{
		"provider": name,
		"patterns": provider.GetProviderInfo().URIPatterns,
	}).Info("Registered resource provider")
}

// GetResource retrieves a resource by URI
func (rm *ResourceManager) GetResource(ctx context.Context, uri string) (*ResourceContent, error) {
	rm.logger.WithField("uri", uri).Debug("Getting resource")

	if !strings.HasPrefix(uri, URIScheme) {
		return nil, fmt.Errorf("unsupported URI scheme: %s", uri)
	}

	// Check cache first
	if rm.cache != nil {
		if cached, ok := rm.cache.Get(uri); ok {
			rm.logger.WithField("uri", uri).Debug("Resource cache hit")
			return cached, nil
		}
	}

	// Find appropriate provider
	provider := rm.findProvider(uri)
	if provider == nil {
		return nil, fmt.Errorf("no provider found for URI: %s", uri)
	}

	// Get resource from provider
	content, err := provider.GetResource(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("provider error for URI %s: %w", uri, err)
	}

	if rm.cache != nil {
		rm.cache.Set(uri, content)
	}

	rm.logger.WithFields(logrus.Fields{
		"uri":      uri,
		"provider": provider.GetProviderInfo().Name,
	}).Info("Resource retrieved successfully")

	return content, nil
}

// ListResources lists all available resources
func (rm *ResourceManager) ListResources(ctx context.Context, cursor string) (*ResourceList, error) {
	rm.logger.WithField("cursor", cursor).Debug("Listing resources")

	allResources := make([]ResourceInfo, 0)

	rm.mutex.RLock()
	providers := make([]ResourceProvider, 0, len(rm.providers))
	for _, provider := range rm.providers {
		providers = append(providers, provider)
	}
	rm.mutex.RUnlock()

	for _, provider := range providers {
		list, err := provider.ListResources(ctx, cursor)
		if err != nil {
			rm.logger.WithError(err).WithField("provider", provider.GetProviderInfo().Name).
				Warn("Failed to list resources from provider")
			continue
		}

		allResources = append(allResources, list.Resources...)
	}

	result := &ResourceList{
		Resources: allResources,
		Total:     len(allResources),
	}

	rm.logger.WithField("count", len(allResources)).Debug("Listed resources")
	return result, nil
}

// GetResourceInfo returns metadata about a resource
func (rm *ResourceManager) GetResourceInfo(ctx context.Context, uri string) (*ResourceInfo, error) {
	provider := rm.findProvider(uri)
	if provider == nil {
		return nil, fmt.Errorf("no provider found for URI: %s", uri)
	}

	return provider.GetResourceInfo(ctx, uri)
}

// findProvider finds the appropriate provider for a URI
func (rm *ResourceManager) findProvider(uri string) ResourceProvider {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	for _, provider := range rm.providers {
		if provider.SupportsURI(uri) {
			return provider
		}
	}

	return nil
}

// GetProviderInfo returns information about all registered providers
func (rm *ResourceManager) GetProviderInfo() []ProviderInfo {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	info := make([]ProviderInfo, 0, len(rm.providers))
	for _, provider := range rm.providers {
		info = append(info, provider.GetProviderInfo())
	}

	return info
}

// CacheStats reports cache effectiveness, or zeroes when caching is disabled.
func (rm *ResourceManager) CacheStats() cache.Stats {
	if rm.cache == nil {
		return cache.Stats{}
	}
	return rm.cache.Stats()
}
