package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Dhimazz28/SecureHive/models"
)

// Countries whose traffic volume is unsurprising; concentrations elsewhere
// are flagged by the geographic detector.
var expectedOriginCountries = map[string]bool{
	"CN": true,
	"RU": true,
	"US": true,
}

// The four batch detectors. They run independently over the same batch and
// their findings are concatenated without cross-deduplication.
var anomalyDetectors = []func([]models.TrafficLog) []models.AttackPattern{
	detectCoordinated,
	detectSequences,
	detectGeographic,
	detectPayloadAnomalies,
}

// DetectAnomalies runs every detector over the batch. The function is
// stateless: the same batch always yields the same findings in the same
// order.
func DetectAnomalies(logs []models.TrafficLog) []models.AttackPattern {
	var patterns []models.AttackPattern

	for _, detect := range anomalyDetectors {
		patterns = append(patterns, detect(logs)...)
	}

	return patterns
}

func newBatchPattern(name, description, technique string, confidence, risk, occurrences int, firstSeen, lastSeen time.Time) models.AttackPattern {
	return models.AttackPattern{
		Name:        name,
		Description: description,
		Technique:   technique,
		Confidence:  models.ClampConfidence(confidence),
		Occurrences: occurrences,
		FirstSeen:   firstSeen,
		LastSeen:    lastSeen,
		RiskScore:   models.ClampRiskScore(risk),
		Status:      models.PatternStatusNew,
		AIGenerated: true,
	}
}

// detectCoordinated flags sources with at least 3 logs spanning at least 2
// distinct attack types.
func detectCoordinated(logs []models.TrafficLog) []models.AttackPattern {
	bySource := make(map[string][]models.TrafficLog)

	for _, log := range logs {
		bySource[log.SourceIP] = append(bySource[log.SourceIP], log)
	}

	sources := make([]string, 0, len(bySource))
	for ip := range bySource {
		sources = append(sources, ip)
	}
	sort.Strings(sources)

	var patterns []models.AttackPattern

	for _, ip := range sources {
		group := bySource[ip]
		if len(group) < 3 {
			continue
		}

		types := make(map[string]bool)
		first, last := group[0].Timestamp, group[0].Timestamp

		for _, log := range group {
			types[log.AttackType] = true

			if log.Timestamp.Before(first) {
				first = log.Timestamp
			}
			if log.Timestamp.After(last) {
				last = log.Timestamp
			}
		}

		if len(types) < 2 {
			continue
		}

		patterns = append(patterns, newBatchPattern(
			"Multi-Vector Coordinated Attack",
			fmt.Sprintf("%s launched %d attacks spanning %d distinct vectors", ip, len(group), len(types)),
			"Coordinated Multi-Vector Attack",
			85, 8, len(group), first, last))
	}

	return patterns
}

func isReconLog(log models.TrafficLog) bool {
	return strings.Contains(strings.ToLower(log.AttackType), "directory")
}

func isExploitLog(log models.TrafficLog) bool {
	return strings.Contains(strings.ToLower(log.AttackType), "sql")
}

// detectSequences walks the batch sorted by time and flags every adjacent
// same-source pair moving from reconnaissance to exploitation. Pairs are
// evaluated positionally, so repeated qualifying pairs each emit a finding.
func detectSequences(logs []models.TrafficLog) []models.AttackPattern {
	sorted := make([]models.TrafficLog, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var patterns []models.AttackPattern

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]

		if prev.SourceIP != cur.SourceIP {
			continue
		}

		if !isReconLog(prev) || !isExploitLog(cur) {
			continue
		}

		patterns = append(patterns, newBatchPattern(
			"Reconnaissance-to-Exploitation Sequence",
			fmt.Sprintf("%s enumerated paths and then pivoted to SQL injection", cur.SourceIP),
			"Staged Intrusion Sequence",
			80, 9, 2, prev.Timestamp, cur.Timestamp))
	}

	return patterns
}

// detectGeographic flags countries outside the expected origin set that
// account for at least 5 logs in the batch.
func detectGeographic(logs []models.TrafficLog) []models.AttackPattern {
	byCountry := make(map[string][]models.TrafficLog)

	for _, log := range logs {
		byCountry[log.SourceCountry] = append(byCountry[log.SourceCountry], log)
	}

	countries := make([]string, 0, len(byCountry))
	for country := range byCountry {
		countries = append(countries, country)
	}
	sort.Strings(countries)

	var patterns []models.AttackPattern

	for _, country := range countries {
		group := byCountry[country]
		if len(group) < 5 || expectedOriginCountries[country] {
			continue
		}

		first, last := group[0].Timestamp, group[0].Timestamp

		for _, log := range group {
			if log.Timestamp.Before(first) {
				first = log.Timestamp
			}
			if log.Timestamp.After(last) {
				last = log.Timestamp
			}
		}

		patterns = append(patterns, newBatchPattern(
			"Geographic Attack Concentration",
			fmt.Sprintf("%d attacks concentrated from %s, outside the expected origin set", len(group), country),
			"Geographically Concentrated Campaign",
			75, 6, len(group), first, last))
	}

	return patterns
}

var encodingMarkers = []string{"%u", "&#x", "base64"}

var scriptMarkers = []string{"<script", "onerror", "onload", "javascript:"}

var injectionMarkers = []string{"union", "' or", "drop table", "exec", "--"}

func containsAny(s string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(s, marker) {
			return true
		}
	}

	return false
}

// detectPayloadAnomalies flags batches with clustered encoded payloads and
// any polyglot payloads mixing script and injection constructs.
func detectPayloadAnomalies(logs []models.TrafficLog) []models.AttackPattern {
	var (
		encoded  []models.TrafficLog
		polyglot []models.TrafficLog
	)

	for _, log := range logs {
		if log.Payload == "" {
			continue
		}

		payload := strings.ToLower(log.Payload)

		if containsAny(payload, encodingMarkers) {
			encoded = append(encoded, log)
		}

		if containsAny(payload, scriptMarkers) && containsAny(payload, injectionMarkers) {
			polyglot = append(polyglot, log)
		}
	}

	var patterns []models.AttackPattern

	if len(encoded) >= 2 {
		first, last := timeSpan(encoded)
		patterns = append(patterns, newBatchPattern(
			"Encoded Payload Attack Pattern",
			fmt.Sprintf("%d payloads carried URL-escape or HTML-entity encoding", len(encoded)),
			"Obfuscated Payload Delivery",
			85, 7, len(encoded), first, last))
	}

	if len(polyglot) >= 1 {
		first, last := timeSpan(polyglot)
		patterns = append(patterns, newBatchPattern(
			"Polyglot Attack Vector",
			fmt.Sprintf("%d payloads combined script and injection constructs", len(polyglot)),
			"Polyglot Payload Injection",
			90, 9, len(polyglot), first, last))
	}

	return patterns
}

func timeSpan(logs []models.TrafficLog) (time.Time, time.Time) {
	first, last := logs[0].Timestamp, logs[0].Timestamp

	for _, log := range logs {
		if log.Timestamp.Before(first) {
			first = log.Timestamp
		}
		if log.Timestamp.After(last) {
			last = log.Timestamp
		}
	}

	return first, last
}
