// Package classify turns per-field confidences and the total/items cross
// check into an overall confidence and a parse status. It is pure.
package classify

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/joseph-ayodele/receipts-parser/constants"
	"github.com/joseph-ayodele/receipts-parser/internal/money"
)

const (
	WeightMerchant = 0.25
	WeightDate     = 0.20
	WeightItems    = 0.35
	WeightTotal    = 0.20

	// ItemsForFullScore is the item count at which the items term saturates.
	ItemsForFullScore = 5
	MismatchPenalty   = 0.10

	SuccessThreshold = 0.75
	ReviewThreshold  = 0.50
)

const (
	IssueNoItems    = "No line items extracted."
	IssueNoMerchant = "Merchant name not found."
	IssueNoDate     = "Purchase date not found."
	IssueNoTotal    = "Total amount not found."
)

var mismatchLimit = apd.New(10, 0)

// Signals is everything the classifier looks at.
type Signals struct {
	MerchantConfidence float64
	DateConfidence     float64
	TotalConfidence    float64
	ItemCount          int
	ItemPrices         []apd.Decimal
	Total              *apd.Decimal
	Tax                *apd.Decimal

	// MerchantIssue replaces IssueNoMerchant when the merchant was found in
	// the text but could not be kept.
	MerchantIssue string
}

// Result is the classification. A SUCCESS result may still carry issues for
// fields whose weight it could afford to lose; Message is empty then.
type Result struct {
	Status            constants.ParseStatus
	OverallConfidence float64
	Issues            []string
	Message           string
}

// Classify scores the signals. Only an empty item list yields FAILED.
func Classify(s Signals) Result {
	if s.ItemCount == 0 {
		return Result{
			Status:  constants.ParseStatusFailed,
			Issues:  []string{IssueNoItems},
			Message: IssueNoItems,
		}
	}

	issues := []string{}
	score := 0.0

	if s.MerchantConfidence > 0 {
		score += s.MerchantConfidence * WeightMerchant
	} else if s.MerchantIssue != "" {
		issues = append(issues, s.MerchantIssue)
	} else {
		issues = append(issues, IssueNoMerchant)
	}

	if s.DateConfidence > 0 {
		score += s.DateConfidence * WeightDate
	} else {
		issues = append(issues, IssueNoDate)
	}

	score += math.Min(float64(s.ItemCount)/ItemsForFullScore, 1.0) * WeightItems

	if s.Total != nil {
		score += s.TotalConfidence * WeightTotal
		if issue, ok := mismatch(s); ok {
			issues = append(issues, issue)
			score -= MismatchPenalty
		}
	} else {
		issues = append(issues, IssueNoTotal)
	}

	overall := math.Round(math.Max(score, 0)*1e4) / 1e4
	return Result{
		Status:            status(overall),
		OverallConfidence: overall,
		Issues:            issues,
		Message:           message(overall, issues),
	}
}

// mismatch reports an issue when the total is more than 10% off the item sum
// (plus tax, when known).
func mismatch(s Signals) (string, bool) {
	sum, err := money.Sum(s.ItemPrices)
	if err != nil {
		return "", false
	}
	if s.Tax != nil {
		if sum, err = money.Add(sum, s.Tax); err != nil {
			return "", false
		}
	}
	pct, err := money.DiffPercent(s.Total, sum)
	if err != nil || pct.Cmp(mismatchLimit) <= 0 {
		return "", false
	}
	shown, err := money.Round(pct, 1)
	if err != nil {
		shown = pct
	}
	return fmt.Sprintf("Total (%s) does not match sum of items (%s): %s%% difference.",
		money.Format(s.Total), money.Format(sum), shown.Text('f')), true
}

func status(overall float64) constants.ParseStatus {
	if overall >= SuccessThreshold {
		return constants.ParseStatusSuccess
	}
	return constants.ParseStatusNeedsReview
}

func message(overall float64, issues []string) string {
	switch {
	case overall >= SuccessThreshold:
		return ""
	case overall >= ReviewThreshold:
		return strings.Join(issues, " ")
	default:
		return fmt.Sprintf("Low confidence (%.2f): %s", overall, strings.Join(issues, " "))
	}
}
