package geoip

import (
	"fmt"
	"net/netip"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oschwald/geoip2-golang/v2"

	"github.com/benedict-erwin/detection-reporter/config"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
)

const cacheSize = 4096

// Resolver provides thread-safe country lookups against a MaxMind
// country/city database, with an LRU cache in front. A nil or
// disabled Resolver resolves everything to "".
type Resolver struct {
	mu          sync.RWMutex
	reader      *geoip2.Reader
	dbPath      string
	lastModTime time.Time
	cache       *lru.Cache[string, string]
}

var (
	instance *Resolver
	initOnce sync.Once
)

// Init opens the configured database. Lookup failures are soft: an
// unreadable database leaves the resolver in fallback mode rather
// than failing startup.
func Init() error {
	var initErr error
	initOnce.Do(func() {
		cfg := config.Get().GeoIP
		instance = &Resolver{dbPath: cfg.DatabasePath}

		if !cfg.Enabled {
			logger.Info().Msg("GeoIP disabled in config")
			return
		}

		cache, err := lru.New[string, string](cacheSize)
		if err != nil {
			initErr = fmt.Errorf("failed to create geoip cache: %w", err)
			return
		}
		instance.cache = cache

		if err := instance.load(); err != nil {
			logger.Warn().Err(err).Str("path", cfg.DatabasePath).
				Msg("GeoIP database unavailable, country enrichment will use fallbacks")
		}
	})
	return initErr
}

// Get returns the shared resolver. Safe to call before Init; lookups
// then resolve to "".
func Get() *Resolver {
	return instance
}

func (r *Resolver) load() error {
	info, err := os.Stat(r.dbPath)
	if err != nil {
		return err
	}

	reader, err := geoip2.Open(r.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open geoip database: %w", err)
	}

	r.mu.Lock()
	old := r.reader
	r.reader = reader
	r.lastModTime = info.ModTime()
	if r.cache != nil {
		r.cache.Purge()
	}
	r.mu.Unlock()

	// Grace period for in-flight lookups
	if old != nil {
		time.AfterFunc(5*time.Second, func() {
			old.Close()
		})
	}

	logger.Info().Str("path", r.dbPath).Msg("GeoIP database loaded")
	return nil
}

// Reload re-opens the database if the file changed on disk.
func (r *Resolver) Reload() error {
	r.mu.RLock()
	last := r.lastModTime
	r.mu.RUnlock()

	info, err := os.Stat(r.dbPath)
	if err != nil {
		return err
	}
	if !info.ModTime().After(last) {
		return nil
	}
	return r.load()
}

// Country resolves an IP to a country name. Returns "" when the
// resolver is disabled, the IP is invalid, or the lookup misses.
func (r *Resolver) Country(ip string) string {
	if r == nil {
		return ""
	}

	r.mu.RLock()
	reader := r.reader
	cache := r.cache
	r.mu.RUnlock()

	if reader == nil {
		return ""
	}

	if cache != nil {
		if country, found := cache.Get(ip); found {
			return country
		}
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ""
	}

	record, err := reader.Country(addr)
	if err != nil {
		logger.WithScope("geoip").Debug().Err(err).Str("ip", ip).Msg("Country lookup failed")
		return ""
	}

	country := record.Country.Names.English
	if cache != nil {
		cache.Add(ip, country)
	}
	return country
}

// Health reports whether the database is loaded. Disabled is healthy.
func (r *Resolver) Health() error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if config.Get().GeoIP.Enabled && r.reader == nil {
		return fmt.Errorf("geoip database not loaded")
	}
	return nil
}

// Close releases the database handle.
func (r *Resolver) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reader != nil {
		r.reader.Close()
		r.reader = nil
	}
	if r.cache != nil {
		r.cache.Purge()
	}
	return nil
}
