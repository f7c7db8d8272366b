package hierarchy

import (
	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"
	lru "github.com/hashicorp/golang-lru"

	"classfile/pkg/descriptor"
)

const (
	defaultCacheSize = 1024

	// maxChainDepth bounds superclass walks so cyclic definitions cannot hang
	// the generator.
	maxChainDepth = 512
)

// Oracle answers interface and common-ancestor queries over a Resolver,
// memoizing results in an ARC cache. It is safe for concurrent readers.
type Oracle struct {
	resolver  Resolver
	cache     *lru.ARCCache
	cacheSize int
	onMiss    func(internal string)
}

// Option configures the oracle.
type Option func(*Oracle)

// WithCacheSize overrides the memoization cache size.
func WithCacheSize(n int) Option {
	return func(o *Oracle) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// OnUnresolved installs a hook fired once per query that had to degrade
// because a class was missing from the resolver.
func OnUnresolved(fn func(internal string)) Option {
	return func(o *Oracle) {
		o.onMiss = fn
	}
}

// NewOracle wraps a resolver.
func NewOracle(resolver Resolver, options ...Option) *Oracle {
	o := &Oracle{
		resolver:  resolver,
		cacheSize: defaultCacheSize,
	}
	for _, option := range options {
		option(o)
	}
	o.cache, _ = lru.NewARC(o.cacheSize)

	return o
}

// IsInterface reports whether desc names an interface. Arrays, primitives and
// classes the resolver does not know are not interfaces.
func (o *Oracle) IsInterface(desc descriptor.Field) bool {
	if !desc.IsClassOrInterface() {
		return false
	}
	name := desc.Internal()
	key := "i:" + name
	if v, ok := o.cache.Get(key); ok {
		return v.(bool)
	}
	info, ok := o.resolver.Lookup(name)
	result := ok && info.Interface
	o.cache.Add(key, result)

	return result
}

type ancestorResult struct {
	anc descriptor.Field
	ok  bool
}

// CommonAncestor returns the nearest class that both a and b extend. If
// either side is an interface the answer is java/lang/Object. If either
// endpoint is unknown to the resolver it reports ok=false and the caller
// keeps its stored type; unknown classes met further up a chain are treated
// as extending java/lang/Object so generation can continue.
func (o *Oracle) CommonAncestor(a, b descriptor.Field) (descriptor.Field, bool) {
	if a == b {
		return a, true
	}
	if a == descriptor.Object || b == descriptor.Object {
		return descriptor.Object, true
	}
	key := "a:" + string(a) + "|" + string(b)
	if b < a {
		key = "a:" + string(b) + "|" + string(a)
	}
	if v, ok := o.cache.Get(key); ok {
		r := v.(ancestorResult)
		return r.anc, r.ok
	}

	r := o.ancestor(a, b)
	o.cache.Add(key, r)

	return r.anc, r.ok
}

func (o *Oracle) ancestor(a, b descriptor.Field) ancestorResult {
	aInfo, ok := o.resolver.Lookup(a.Internal())
	if !ok {
		o.unresolved(a.Internal())
		return ancestorResult{}
	}
	bInfo, ok := o.resolver.Lookup(b.Internal())
	if !ok {
		o.unresolved(b.Internal())
		return ancestorResult{}
	}
	if aInfo.Interface || bInfo.Interface {
		return ancestorResult{anc: descriptor.Object, ok: true}
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	for _, name := range o.superChain(a.Internal(), aInfo) {
		seen.Add(name)
	}
	for _, name := range o.superChain(b.Internal(), bInfo) {
		if seen.Contains(name) {
			return ancestorResult{anc: descriptor.FieldOfInternal(name), ok: true}
		}
	}

	return ancestorResult{anc: descriptor.Object, ok: true}
}

// superChain lists name and its superclasses in order, always ending at
// java/lang/Object.
func (o *Oracle) superChain(name string, info Info) []string {
	chain := []string{name}
	for depth := 0; name != objectInternal; depth++ {
		if depth >= maxChainDepth {
			log.Warn("class hierarchy too deep, cutting at java/lang/Object", "class", name)
			chain = append(chain, objectInternal)
			break
		}
		super := info.Super
		if super == "" {
			super = objectInternal
		}
		chain = append(chain, super)
		name = super
		if name == objectInternal {
			break
		}
		next, ok := o.resolver.Lookup(name)
		if !ok {
			o.unresolved(name)
			chain = append(chain, objectInternal)
			break
		}
		info = next
	}

	return chain
}

func (o *Oracle) unresolved(name string) {
	log.Warn("class missing from hierarchy", "class", name)
	if o.onMiss != nil {
		o.onMiss(name)
	}
}
