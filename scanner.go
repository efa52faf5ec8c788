package gatt

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DedupPolicy controls how a Scanner suppresses repeated advertisements
// from the same peer (spec.md §4.6).
type DedupPolicy int

const (
	// DedupOff reports every advertisement the transport delivers.
	DedupOff DedupPolicy = iota
	// DedupSoftware suppresses repeats of (address, event_type) seen
	// since the last start().
	DedupSoftware
)

const scanIntervalMS = 16
const scanWindowMS = 16

type dedupKey struct {
	addr [6]byte
	evt  AdvEventType
}

// Scanner holds a non-owning reference to a ClientTransport and
// implements C6: start/stop scanning and advertisement retrieval with
// optional software deduplication (spec.md §4.6).
type Scanner struct {
	log       *logrus.Entry
	transport ClientTransport
	policy    DedupPolicy

	mu         sync.Mutex
	scanning   bool
	seen       map[dedupKey]struct{}
	suppressed uint64
}

// NewScanner wraps transport with the given deduplication policy.
func NewScanner(transport ClientTransport, policy DedupPolicy) *Scanner {
	return &Scanner{
		log:       logrus.WithField("component", "scanner"),
		transport: transport,
		policy:    policy,
	}
}

// Start begins scanning. active requests active scanning (SCAN_REQ /
// SCAN_RSP exchange); passive otherwise. Interval and window are
// fixed at 16ms per spec.md §4.6.
func (s *Scanner) Start(active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanning {
		return ErrAlreadyScanning
	}
	if err := s.transport.StartScan(ScanParams{
		Active:           active,
		IntervalMS:       scanIntervalMS,
		WindowMS:         scanWindowMS,
		FilterPolicy:     FilterAll,
		FilterDuplicates: false,
	}); err != nil {
		return err
	}
	s.scanning = true
	s.seen = make(map[dedupKey]struct{})
	s.suppressed = 0
	return nil
}

// DuplicateCount reports how many advertisements DedupSoftware has
// suppressed since the last Start, for field diagnostics
// (original_source/src/lescan.cc tracked the same counter).
func (s *Scanner) DuplicateCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suppressed
}

// Stop is idempotent and never returns a transport error to the caller
// (spec.md §5 "stop_scan is idempotent and bounded").
func (s *Scanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.scanning {
		return
	}
	if err := s.transport.StopScan(); err != nil {
		s.log.WithError(err).Debug("stop_scan failed")
	}
	s.scanning = false
}

// Close stops scanning if still active, suppressing any error
// (spec.md §3 "Scanner" lifecycle).
func (s *Scanner) Close() { s.Stop() }

// ScanResult pairs a decoded Advertisement with the peer identity a
// caller needs to Connect to it; Scanner.GetAdvertisements discards
// neither (spec.md §4.3.1, §4.6).
type ScanResult struct {
	Address       [6]byte
	AddressType   AddressType
	RSSI          int8
	Advertisement *Advertisement
}

// GetAdvertisements retrieves pending records from the transport,
// decodes them with C2, and applies the configured dedup policy.
func (s *Scanner) GetAdvertisements(timeout time.Duration) ([]ScanResult, error) {
	recs, err := s.transport.GetAdvertisements(timeout)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ScanResult, 0, len(recs))
	for _, rec := range recs {
		if s.policy == DedupSoftware {
			key := dedupKey{addr: rec.Address, evt: rec.EventType}
			if _, dup := s.seen[key]; dup {
				s.suppressed++
				continue
			}
			s.seen[key] = struct{}{}
		}
		a := DecodeAdvertisement(rec)
		if a == nil {
			continue
		}
		out = append(out, ScanResult{
			Address:       rec.Address,
			AddressType:   rec.AddressType,
			RSSI:          rec.RSSI,
			Advertisement: a,
		})
	}
	return out, nil
}
