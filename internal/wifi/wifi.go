package wifi

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"roamctl/internal/backend"
	"roamctl/internal/model"
)

// MaxSSIDLength is the 802.11 limit in bytes.
const MaxSSIDLength = 32

// Normalize drops hidden networks, keeps the first occurrence of each SSID
// and orders by signal descending. Unknown signals sort last; ties keep scan
// order.
func Normalize(nets []model.WifiNetwork) []model.WifiNetwork {
	out := make([]model.WifiNetwork, 0, len(nets))
	seen := make(map[string]struct{}, len(nets))
	for _, n := range nets {
		if n.SSID == "" {
			continue
		}
		if _, ok := seen[n.SSID]; ok {
			continue
		}
		seen[n.SSID] = struct{}{}
		out = append(out, n)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Signal, out[j].Signal
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	return out
}

// ValidateSSID checks that ssid can name a network.
func ValidateSSID(ssid string) error {
	if strings.TrimSpace(ssid) == "" {
		return fmt.Errorf("ssid is required")
	}
	if len(ssid) > MaxSSIDLength {
		return fmt.Errorf("ssid must be at most %d bytes", MaxSSIDLength)
	}
	return nil
}

// Service scans for and joins upstream networks.
type Service struct {
	b   backend.Backend
	log zerolog.Logger
}

func NewService(b backend.Backend, log zerolog.Logger) *Service {
	return &Service{b: b, log: log.With().Str("component", "wifi").Logger()}
}

// Scan returns visible networks, deduplicated and sorted.
func (s *Service) Scan(ctx context.Context) ([]model.WifiNetwork, error) {
	nets, err := s.b.ScanWifi(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("wifi scan failed")
		return nil, err
	}
	return Normalize(nets), nil
}

// Connect joins ssid. An empty password joins an open network.
func (s *Service) Connect(ctx context.Context, ssid, password string) error {
	if err := ValidateSSID(ssid); err != nil {
		return err
	}
	if err := s.b.ConnectWifi(ctx, ssid, password); err != nil {
		s.log.Error().Err(err).Str("ssid", ssid).Msg("wifi connect failed")
		return err
	}
	s.log.Info().Str("ssid", ssid).Msg("connected to upstream wifi")
	return nil
}
