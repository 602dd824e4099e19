package models

import (
	"fmt"
	"strings"
)

// Rank is a hunter or gate tier, ordered E < D < C < B < A < S.
type Rank uint8

const (
	RankE Rank = iota
	RankD
	RankC
	RankB
	RankA
	RankS
)

// RankCount is the size of every per-rank table indexed by Rank.
const RankCount = 6

// ShadowFloor is the lowest rank that can rank up through shadow monsters,
// and the lowest rank a shadow monster can have.
const ShadowFloor = RankB

var rankNames = [RankCount]string{"E", "D", "C", "B", "A", "S"}

func (r Rank) Valid() bool { return r < RankCount }

func (r Rank) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Rank(%d)", uint8(r))
	}
	return rankNames[r]
}

// Next returns the rank above r. S has no next rank.
func (r Rank) Next() (Rank, bool) {
	if r >= RankS {
		return r, false
	}
	return r + 1, true
}

// TokenID is the id of the hunter-rank (and gate-key) token for this rank.
func (r Rank) TokenID() uint64 { return uint64(r) }

func ParseRank(s string) (Rank, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range rankNames {
		if name == s {
			return Rank(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rank %q", s)
}

func (r Rank) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rank %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Rank) UnmarshalText(b []byte) error {
	parsed, err := ParseRank(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
