package services

import (
	"log/slog"
	"net"
	"sync"

	"urldash/internal/config"

	"github.com/oschwald/geoip2-golang"
)

// countryReader is the subset of *geoip2.Reader used for lookups.
type countryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
	Close() error
}

type GeoIPService struct {
	cfg       config.Config
	logger    *slog.Logger
	geoReader countryReader
	geoLock   sync.RWMutex
}

func NewGeoIPService(cfg config.Config, logger *slog.Logger) *GeoIPService {
	return &GeoIPService{
		cfg:    cfg,
		logger: logger,
	}
}

// Init opens the configured database. Lookups stay disabled when no path is
// set or the file cannot be opened.
func (s *GeoIPService) Init() {
	if s.cfg.GeoIPDBPath == "" {
		s.logger.Warn("GeoIP: database path not set. Lookups will be disabled.")
		return
	}
	s.reloadReader(s.cfg.GeoIPDBPath)
}

func (s *GeoIPService) reloadReader(path string) {
	reader, err := geoip2.Open(path)
	if err != nil {
		s.logger.Error("GeoIP: Failed to open database", "path", path, "error", err)
		return
	}

	s.geoLock.Lock()
	defer s.geoLock.Unlock()
	if s.geoReader != nil {
		s.geoReader.Close()
	}
	s.geoReader = reader
	s.logger.Info("GeoIP: Loaded database", "path", path, "type", reader.Metadata().DatabaseType)
}

func (s *GeoIPService) Close() {
	s.geoLock.Lock()
	defer s.geoLock.Unlock()
	if s.geoReader != nil {
		s.geoReader.Close()
		s.geoReader = nil
	}
}

// GetCountry resolves an IP address to an English country name.
func (s *GeoIPService) GetCountry(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip != nil && ip.IsLoopback() {
		return "Localhost"
	}

	s.geoLock.RLock()
	reader := s.geoReader
	s.geoLock.RUnlock()

	if reader == nil {
		return "Unknown"
	}
	if ip == nil {
		return "Invalid IP"
	}

	record, err := reader.Country(ip)
	if err != nil {
		s.logger.Error("GeoIP: Lookup error", "ip", ipStr, "error", err)
		return "Unknown"
	}

	if name, ok := record.Country.Names["en"]; ok && name != "" {
		return name
	}
	if record.Country.IsoCode != "" {
		return record.Country.IsoCode
	}
	return "Unknown"
}
