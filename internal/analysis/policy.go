package analysis

// DefaultKeepThreshold is the score at or above which a photo is kept.
const DefaultKeepThreshold = 45

// RejectSharpness is the Laplacian variance below which a frame is treated
// as having no detail at all (lens cap, blank frame, total blur).
const RejectSharpness = 0.5

// Verdict is the automated disposition of an analysed photo.
type Verdict int

const (
	// VerdictNone leaves the status as it is.
	VerdictNone Verdict = iota
	// VerdictKeep marks the photo keep.
	VerdictKeep
	// VerdictReject marks the photo reject.
	VerdictReject
)

func (v Verdict) String() string {
	switch v {
	case VerdictKeep:
		return "keep"
	case VerdictReject:
		return "reject"
	default:
		return "none"
	}
}

// Policy maps scores onto verdicts.
type Policy struct {
	KeepThreshold int
	// RequireFaces rejects frames where a subject detector ran and found
	// nobody.
	RequireFaces bool
}

// DefaultPolicy returns the policy with the default keep threshold.
func DefaultPolicy() Policy {
	return Policy{KeepThreshold: DefaultKeepThreshold}
}

// Decide returns the verdict for a photo with the given score and signals.
func (p Policy) Decide(score int, s Signals) Verdict {
	if score >= p.KeepThreshold {
		return VerdictKeep
	}
	if s.Sharpness < RejectSharpness {
		return VerdictReject
	}
	if p.RequireFaces && s.FaceCount == 0 {
		return VerdictReject
	}
	return VerdictNone
}
