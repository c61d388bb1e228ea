package vmmc

import "github.com/foldvedic/vmmc-core/internal/cluster"

// Stats accumulates move-kind-resolved counters across a simulation's
// lifetime (SPEC_FULL.md §7's supplemented per-move-kind bookkeeping).
type Stats struct {
	StepsAttempted int
	StepsAccepted  int

	TranslateAttempted int
	TranslateAccepted  int
	RotateAttempted    int
	RotateAccepted     int

	// IsotropicVetoes counts rotation trials skipped outright by the
	// isotropic-seed veto (spec.md §4.4); these are not counted as attempts.
	IsotropicVetoes int

	FrustratedLinks int
	NFrustratedSum  int
}

// AcceptanceRate returns StepsAccepted/StepsAttempted, or 0 if no move has
// been attempted yet.
func (s Stats) AcceptanceRate() float64 {
	if s.StepsAttempted == 0 {
		return 0
	}
	return float64(s.StepsAccepted) / float64(s.StepsAttempted)
}

// TranslateAcceptanceRate returns the acceptance rate restricted to
// translation trials.
func (s Stats) TranslateAcceptanceRate() float64 {
	if s.TranslateAttempted == 0 {
		return 0
	}
	return float64(s.TranslateAccepted) / float64(s.TranslateAttempted)
}

// RotateAcceptanceRate returns the acceptance rate restricted to rotation
// trials.
func (s Stats) RotateAcceptanceRate() float64 {
	if s.RotateAttempted == 0 {
		return 0
	}
	return float64(s.RotateAccepted) / float64(s.RotateAttempted)
}

func (s *Stats) record(res stepResult) {
	if !res.Attempted {
		if res.Kind == cluster.Rotate {
			s.IsotropicVetoes++
		}
		return
	}

	s.StepsAttempted++
	if res.Kind == cluster.Translate {
		s.TranslateAttempted++
	} else {
		s.RotateAttempted++
	}

	if res.Frustrated {
		s.FrustratedLinks++
		s.NFrustratedSum += res.NFrustrated
	}

	if res.Accepted {
		s.StepsAccepted++
		if res.Kind == cluster.Translate {
			s.TranslateAccepted++
		} else {
			s.RotateAccepted++
		}
	}
}
