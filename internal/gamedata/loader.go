package gamedata

import (
	"context"
	_ "embed"
	"time"

	"github.com/sirupsen/logrus"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Cache persists fetched set data so the trainer works across restarts
// without the data service. Implemented by the sqlite store.
type Cache interface {
	GetSetData(namespace string) (data []byte, fetchedAt time.Time, err error)
	PutSetData(namespace string, data []byte) error
}

// Loader resolves set data through a fallback chain: the remote data
// service first, then the local cache, then the embedded defaults.
type Loader struct {
	client *Client
	cache  Cache
	log    *logrus.Logger

	// MaxCacheAge marks cached data stale; stale data is still served
	// when the remote fetch fails, just logged louder.
	MaxCacheAge time.Duration

	// Offline skips the remote fetch entirely.
	Offline bool
}

// NewLoader creates a loader. client and cache may be nil; the embedded
// defaults always remain as the final fallback.
func NewLoader(client *Client, cache Cache, log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.New()
	}
	return &Loader{
		client:      client,
		cache:       cache,
		log:         log,
		MaxCacheAge: 24 * time.Hour,
	}
}

// Load returns the set data for namespace from the best available source.
// Only an invalid embedded document can make it fail for the default set.
func (l *Loader) Load(ctx context.Context, namespace string) (*SetData, error) {
	if !l.Offline && l.client != nil {
		d, err := l.client.FetchSet(ctx, namespace)
		if err == nil {
			l.storeInCache(namespace, d)
			l.log.WithField("namespace", namespace).Info("loaded set data from data service")
			return d, nil
		}
		l.log.WithError(err).WithField("namespace", namespace).Warn("data service fetch failed, trying cache")
	}

	if l.cache != nil {
		raw, fetchedAt, err := l.cache.GetSetData(namespace)
		if err == nil && len(raw) > 0 {
			d, perr := Parse(raw)
			if perr == nil {
				age := time.Since(fetchedAt)
				entry := l.log.WithFields(logrus.Fields{"namespace": namespace, "age": age})
				if age > l.MaxCacheAge {
					entry.Warn("serving stale cached set data")
				} else {
					entry.Info("loaded set data from cache")
				}
				return d, nil
			}
			l.log.WithError(perr).Warn("cached set data is corrupt, falling back to defaults")
		}
	}

	d, err := Parse(defaultsYAML)
	if err != nil {
		return nil, err
	}
	if d.Namespace != namespace {
		return nil, &DataUnavailableError{Namespace: namespace, Reason: "not in cache and embedded defaults carry " + d.Namespace}
	}
	l.log.WithField("namespace", namespace).Info("loaded embedded default set data")
	return d, nil
}

func (l *Loader) storeInCache(namespace string, d *SetData) {
	if l.cache == nil {
		return
	}
	raw, err := d.Marshal()
	if err != nil {
		l.log.WithError(err).Warn("could not encode set data for cache")
		return
	}
	if err := l.cache.PutSetData(namespace, raw); err != nil {
		l.log.WithError(err).Warn("could not cache set data")
	}
}

// DefaultNamespace returns the namespace of the embedded data set.
func DefaultNamespace() string {
	d, err := Parse(defaultsYAML)
	if err != nil {
		// The embedded document is validated by tests; reaching this
		// means a broken build.
		panic(err)
	}
	return d.Namespace
}
