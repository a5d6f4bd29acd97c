package services

import (
	"net"

	"github.com/oschwald/geoip2-golang"
	"github.com/rs/zerolog"

	"github.com/Dhimazz28/SecureHive/system"
)

// GeoIPService resolves source countries for externally ingested logs.
// It prefers a MaxMind database when one is configured and falls back to a
// builtin range table, then "XX". Resolution never fails an ingest.
type GeoIPService struct {
	reader        *geoip2.Reader
	countryRanges map[string][]net.IPNet
	log           zerolog.Logger
}

// NewGeoIPService opens the MaxMind database at dbPath when set. A missing
// or unreadable database leaves only the builtin table active.
func NewGeoIPService(dbPath string) *GeoIPService {
	g := &GeoIPService{
		countryRanges: builtinCountryRanges(),
		log:           system.WithComponent("geoip"),
	}

	if dbPath != "" {
		reader, err := geoip2.Open(dbPath)
		if err != nil {
			g.log.Warn().Err(err).Str("path", dbPath).Msg("GeoIP database unavailable, using builtin ranges")
		} else {
			g.reader = reader
			g.log.Info().Str("path", dbPath).Msg("GeoIP database loaded")
		}
	}

	return g
}

// Lookup returns the 2-letter country code for an address, or "XX" when the
// address is unparseable or unknown.
func (g *GeoIPService) Lookup(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "XX"
	}

	if g.reader != nil {
		if record, err := g.reader.Country(ip); err == nil && record.Country.IsoCode != "" {
			return record.Country.IsoCode
		}
	}

	for country, ranges := range g.countryRanges {
		for _, ipRange := range ranges {
			if ipRange.Contains(ip) {
				return country
			}
		}
	}

	return "XX"
}

// Close releases the MaxMind reader, if one was opened.
func (g *GeoIPService) Close() {
	if g.reader != nil {
		g.reader.Close()
	}
}

// builtinCountryRanges returns a coarse country table used when no MaxMind
// database is available. Coverage is intentionally partial.
func builtinCountryRanges() map[string][]net.IPNet {
	countryCIDRs := map[string][]string{
		"US": {
			"3.0.0.0/8", "4.0.0.0/8", "8.0.0.0/8", "12.0.0.0/8", "13.0.0.0/8",
		},
		"CN": {
			"36.0.0.0/8", "42.0.0.0/8", "58.0.0.0/8", "60.0.0.0/8", "101.0.0.0/8",
		},
		"RU": {
			"2.56.0.0/13", "5.0.0.0/9", "31.0.0.0/9", "46.0.0.0/9", "79.0.0.0/9",
		},
		"KR": {
			"1.16.0.0/12", "14.0.0.0/8", "27.0.0.0/10", "121.128.0.0/10", "211.32.0.0/12",
		},
		"DE": {
			"2.16.0.0/13", "37.0.0.0/8", "62.0.0.0/8", "77.0.0.0/8", "78.0.0.0/8",
		},
		"JP": {
			"1.0.16.0/20", "1.1.0.0/16", "27.0.0.0/9", "49.212.0.0/14",
		},
		"BR": {
			"177.0.0.0/8", "179.0.0.0/8", "186.0.0.0/8", "189.0.0.0/8",
		},
	}

	ranges := make(map[string][]net.IPNet, len(countryCIDRs))

	for country, cidrs := range countryCIDRs {
		for _, cidr := range cidrs {
			_, ipNet, err := net.ParseCIDR(cidr)
			if err != nil {
				continue
			}

			ranges[country] = append(ranges[country], *ipNet)
		}
	}

	return ranges
}
