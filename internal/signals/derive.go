package signals

import (
	"strings"
	"time"

	"credit-risk-engine/internal/domain"
)

const day = 24 * time.Hour

// Inputs is the raw material for one computation.
// A nil Profile or Wallet value with a nil error means the record does not exist.
type Inputs struct {
	Loans      Result[[]*domain.Loan]
	Payments   Result[[]*domain.Payment]
	Collateral Result[[]*domain.CollateralAsset]
	Profile    Result[*domain.BorrowerProfile]
	Wallet     Result[*domain.WalletActivity]
}

// Derive builds signals from inputs as of now. It never fails: every
// dataset that carries an error contributes nothing and is listed in
// Degraded in a fixed order, which the calculators score as neutral.
func Derive(now time.Time, in Inputs) domain.BorrowerSignals {
	var s domain.BorrowerSignals

	loans := in.Loans.Value
	if !in.Loans.OK() {
		loans = nil
		s.Degraded = append(s.Degraded, domain.DatasetLoans)
	}
	deriveLoans(&s, now, loans)

	if in.Payments.OK() {
		// Without loans there are no due dates to compare against
		s.OnTimePayments, s.LatePayments = classifyPayments(in.Payments.Value, loans)
	} else {
		s.Degraded = append(s.Degraded, domain.DatasetPayments)
	}

	if in.Collateral.OK() {
		deriveCollateral(&s, in.Collateral.Value)
	} else {
		s.Degraded = append(s.Degraded, domain.DatasetCollateral)
	}

	if in.Profile.OK() {
		deriveProfile(&s, now, in.Profile.Value)
	} else {
		s.Degraded = append(s.Degraded, domain.DatasetProfile)
	}

	if in.Wallet.OK() {
		deriveWallet(&s, now, in.Wallet.Value)
	} else {
		s.Degraded = append(s.Degraded, domain.DatasetOnChain)
	}

	return s
}

func deriveLoans(s *domain.BorrowerSignals, now time.Time, loans []*domain.Loan) {
	var (
		ltvSum   float64
		ltvCount int
		oldest   time.Time
	)

	for _, l := range loans {
		s.TotalLoans++
		switch l.Status {
		case domain.LoanStatusActive:
			s.ActiveLoans++
		case domain.LoanStatusRepaid:
			s.RepaidLoans++
		case domain.LoanStatusDefaulted:
			s.DefaultedLoans++
		}

		// Pending loans have not been disbursed
		if l.Status != domain.LoanStatusPending {
			s.TotalBorrowed += l.Principal.InexactFloat64()
			s.TotalRepaid += l.AmountRepaid.InexactFloat64()
		}

		if l.CollateralValue.IsPositive() {
			ltvSum += l.Principal.Div(l.CollateralValue).InexactFloat64()
			ltvCount++
		}

		if !l.StartDate.IsZero() && (oldest.IsZero() || l.StartDate.Before(oldest)) {
			oldest = l.StartDate
		}
	}

	if ltvCount > 0 {
		s.AverageLTV = ltvSum / float64(ltvCount)
	}
	if !oldest.IsZero() {
		s.LoanHistoryMonths = monthsBetween(oldest, now)
	}
}

// classifyPayments splits payments into on-time and late.
//
// The due date of a payment is its own DueAt when the schedule records one.
// Otherwise it falls back to the loan: NextPaymentDate for active loans,
// EndDate for repaid or defaulted loans. A payment with no resolvable due
// date is counted in neither bucket. Paying on the due instant is on time.
func classifyPayments(payments []*domain.Payment, loans []*domain.Loan) (onTime, late int) {
	byID := make(map[string]*domain.Loan, len(loans))
	for _, l := range loans {
		byID[l.ID] = l
	}

	for _, p := range payments {
		due := dueDate(p, byID[p.LoanID])
		if due == nil {
			continue
		}
		if p.PaidAt.After(*due) {
			late++
		} else {
			onTime++
		}
	}
	return onTime, late
}

func dueDate(p *domain.Payment, loan *domain.Loan) *time.Time {
	if p.DueAt != nil {
		return p.DueAt
	}
	if loan == nil {
		return nil
	}
	switch loan.Status {
	case domain.LoanStatusActive:
		return loan.NextPaymentDate
	case domain.LoanStatusRepaid, domain.LoanStatusDefaulted:
		return loan.EndDate
	}
	return nil
}

func deriveCollateral(s *domain.BorrowerSignals, assets []*domain.CollateralAsset) {
	types := make(map[string]struct{})
	for _, a := range assets {
		v := a.Value.InexactFloat64()
		s.AssetCount++
		s.TotalAssetValue += v
		if a.Locked {
			s.LockedAssetValue += v
		}
		if t := strings.ToLower(strings.TrimSpace(a.AssetType)); t != "" {
			types[t] = struct{}{}
		}
	}
	s.AssetDiversity = len(types)
}

func deriveProfile(s *domain.BorrowerSignals, now time.Time, p *domain.BorrowerProfile) {
	if p == nil {
		return
	}
	if !p.CreatedAt.IsZero() {
		s.AccountAgeDays = daysSince(p.CreatedAt, now)
	}
	s.KYCVerified = p.KYCVerified
	s.AMLVerified = p.AMLVerified
	s.VerificationLevel = p.VerificationLevel
}

func deriveWallet(s *domain.BorrowerSignals, now time.Time, w *domain.WalletActivity) {
	if w == nil {
		return
	}
	if w.FirstSeen != nil {
		s.WalletAgeDays = daysSince(*w.FirstSeen, now)
	}
	count := w.TransactionCount
	s.TransactionCount = &count

	if total := w.StablecoinValue + w.NativeValue; total > 0 {
		ratio := w.StablecoinValue / total
		s.StablecoinRatio = &ratio
	}
}

// daysSince returns whole days from t to now, never negative.
func daysSince(t, now time.Time) *int {
	days := 0
	if now.After(t) {
		days = int(now.Sub(t) / day)
	}
	return &days
}

// monthsBetween counts whole calendar months from start to end.
func monthsBetween(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	start, end = start.UTC(), end.UTC()
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
