package symbols

import (
	"fmt"
	"strings"
)

// Universe represents a predefined stock universe
type Universe string

const (
	UniverseLQ45  Universe = "lq45"
	UniverseIDX30 Universe = "idx30"
)

// GetUniverse returns the list of symbols for a given universe
func GetUniverse(u Universe) []string {
	switch u {
	case UniverseLQ45:
		return LQ45Symbols
	case UniverseIDX30:
		return IDX30Symbols
	default:
		return nil
	}
}

// ParseUniverse resolves a universe name, case-insensitively
func ParseUniverse(name string) (Universe, error) {
	u := Universe(strings.ToLower(strings.TrimSpace(name)))
	if GetUniverse(u) == nil {
		return "", fmt.Errorf("unknown universe %q (use lq45 or idx30)", name)
	}
	return u, nil
}

// LQ45Symbols is the LQ45 index constituents (Feb-Jul 2024 period)
var LQ45Symbols = []string{
	"ACES", "ADRO", "AKRA", "AMMN", "AMRT", "ANTM", "ARTO", "ASII", "BBCA", "BBNI",
	"BBRI", "BBTN", "BMRI", "BRIS", "BRPT", "BUKA", "CPIN", "EMTK", "ESSA", "EXCL",
	"GGRM", "GOTO", "HRUM", "ICBP", "INCO", "INDF", "INKP", "INTP", "ISAT", "ITMG",
	"KLBF", "MAPI", "MBMA", "MDKA", "MEDC", "PGAS", "PGEO", "PTBA", "SIDO", "SMGR",
	"SRTG", "TLKM", "TOWR", "UNTR", "UNVR",
}

// IDX30Symbols is the IDX30 index constituents (Feb-Jul 2024 period)
var IDX30Symbols = []string{
	"ADRO", "AKRA", "AMRT", "ANTM", "ASII", "BBCA", "BBNI", "BBRI", "BMRI", "BRIS",
	"CPIN", "EXCL", "GOTO", "ICBP", "INCO", "INDF", "INKP", "ISAT", "ITMG", "KLBF",
	"MBMA", "MDKA", "MEDC", "PGAS", "PTBA", "SMGR", "TLKM", "TOWR", "UNTR", "UNVR",
}
