package gateway

import (
	"fmt"
	"sync"
)

// Registry manages gateway adapter factories. Adapter packages register
// themselves from init, side-effect imports select which gateways a build
// supports.
type Registry struct {
	factories map[GatewayName]GatewayFactory
	mu        sync.RWMutex
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[GatewayName]GatewayFactory),
	}
}

// Register adds a gateway adapter factory to the registry.
func (r *Registry) Register(name GatewayName, factory GatewayFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get retrieves a gateway adapter factory by name.
func (r *Registry) Get(name GatewayName) (GatewayFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, Errorf(ErrNotSupported, "payment gateway '%s' is not registered", name)
	}

	return factory, nil
}

// CreateGateway creates a new instance of a gateway adapter.
func (r *Registry) CreateGateway(name GatewayName) (PaymentGateway, error) {
	factory, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return factory(), nil
}

// GatewayNames returns the names of all registered gateways.
func (r *Registry) GatewayNames() []GatewayName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]GatewayName, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// String implements fmt.Stringer for debug logging.
func (r *Registry) String() string {
	return fmt.Sprintf("gateway.Registry(%v)", r.GatewayNames())
}

// DefaultRegistry is the global default adapter registry.
var DefaultRegistry = NewRegistry()

// Register registers a gateway adapter with the default registry.
func Register(name GatewayName, factory GatewayFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get retrieves a gateway factory from the default registry.
func Get(name GatewayName) (GatewayFactory, error) {
	return DefaultRegistry.Get(name)
}

// CreateGateway creates a gateway adapter instance from the default registry.
func CreateGateway(name GatewayName) (PaymentGateway, error) {
	return DefaultRegistry.CreateGateway(name)
}
