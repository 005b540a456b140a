package constants

// ParseStatus is the terminal classification of a parse.
type ParseStatus string

// Stable values (store these exact strings in DB).
const (
	ParseStatusSuccess     ParseStatus = "SUCCESS"      // confident enough to use as-is
	ParseStatusNeedsReview ParseStatus = "NEEDS_REVIEW" // usable but a human should look
	ParseStatusFailed      ParseStatus = "FAILED"       // terminal failure
)

func (s ParseStatus) String() string { return string(s) }
