package enrich

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/filter"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/pkg/hunter"
)

// Email status values written by the domain-search stage.
const (
	EmailVerified   = "verified"
	EmailInvalid    = "invalid"
	EmailRisky      = "risky"
	EmailUnverified = "unverified"
	EmailNew        = "new"

	EmailSourceHunter = "hunter"
)

const domainSearchLimit = 5

// rolePriority orders generic mailbox names from most to least useful.
var rolePriority = []string{
	"info", "contact", "hello", "enquiries", "bookings",
	"reservations", "admin", "office", "reception",
}

// DomainSearchConfig sets the Hunter budgets.
type DomainSearchConfig struct {
	MaxSearches         int
	MaxVerifications    int
	ConfidenceThreshold int
}

// DomainSearchDriver verifies existing emails and finds new ones by
// searching the venue's website domain.
type DomainSearchDriver struct {
	client hunter.Client
	cfg    DomainSearchConfig
	stats  *filter.Stats

	searches      int
	verifications int
	found         int
	verified      int
	invalid       int
}

// NewDomainSearchDriver creates a DomainSearchDriver.
func NewDomainSearchDriver(c hunter.Client, cfg DomainSearchConfig, stats *filter.Stats) *DomainSearchDriver {
	return &DomainSearchDriver{client: c, cfg: cfg, stats: stats}
}

// Stage implements Driver.
func (d *DomainSearchDriver) Stage() model.Stage { return model.StageEmails }

// Select picks venues that have an email to verify or a website to search.
func (d *DomainSearchDriver) Select(venues []model.Venue) ([]int, int) {
	var out []int
	skipped := 0
	for i, v := range venues {
		if strings.TrimSpace(v.Email) == "" && strings.TrimSpace(v.Website) == "" {
			continue
		}
		if d.stats != nil && d.stats.Policy().ExcludeBusinessName(v.Name) {
			d.stats.Log(v.Name, d.stats.Policy().Reason(v.Name, ""), filter.TypeBusinessName)
			skipped++
			continue
		}
		out = append(out, i)
	}
	return out, skipped
}

// LogAccount logs the remaining Hunter credits. Failures are logged only.
func (d *DomainSearchDriver) LogAccount(ctx context.Context) {
	acct, err := d.client.Account(ctx)
	if err != nil {
		zap.L().Warn("enrich: hunter account lookup failed", zap.Error(err))
		return
	}
	zap.L().Info("enrich: hunter credits available",
		zap.String("plan", acct.PlanName),
		zap.Int("searches_available", acct.Requests.Searches.Available),
		zap.Int("verifications_available", acct.Requests.Verifications.Available),
	)
}

// Process implements Driver.
func (d *DomainSearchDriver) Process(ctx context.Context, v *model.Venue) (Outcome, error) {
	current := strings.TrimSpace(v.Email)
	if current != "" {
		ok, status := d.verify(ctx, current)
		if ctx.Err() != nil {
			return OutcomeFailed, ctx.Err()
		}
		v.EmailStatus = status
		if ok {
			return OutcomeFound, nil
		}
		zap.L().Info("enrich: invalid email cleared", zap.String("venue", v.Name), zap.String("email", current))
		v.OldEmail = current
		v.Email = ""
	}

	email, err := d.find(ctx, v)
	if err != nil {
		return OutcomeFailed, err
	}
	if email == "" {
		return OutcomeNotFound, nil
	}
	v.Email = email
	v.EmailSource = EmailSourceHunter
	v.EmailStatus = EmailNew
	return OutcomeFound, nil
}

// verify reports whether email should be kept and its status.
func (d *DomainSearchDriver) verify(ctx context.Context, email string) (bool, string) {
	if !strings.Contains(email, "@") {
		d.invalid++
		return false, EmailInvalid
	}
	if d.cfg.MaxVerifications > 0 && d.verifications >= d.cfg.MaxVerifications {
		zap.L().Warn("enrich: verification budget reached", zap.Int("max_verifications", d.cfg.MaxVerifications))
		return true, EmailUnverified
	}

	res, err := d.client.VerifyEmail(ctx, email)
	d.verifications++
	if err != nil {
		zap.L().Warn("enrich: verify email failed", zap.String("email", email), zap.Error(err))
		return true, EmailUnverified
	}

	switch {
	case res.Result == "deliverable" || res.Score >= 70:
		d.verified++
		return true, EmailVerified
	case res.Result == "undeliverable" || res.Score < 30:
		d.invalid++
		return false, EmailInvalid
	default:
		return true, EmailRisky
	}
}

func (d *DomainSearchDriver) find(ctx context.Context, v *model.Venue) (string, error) {
	domain := ExtractDomain(v.Website)
	if domain == "" {
		return "", nil
	}
	if d.cfg.MaxSearches > 0 && d.searches >= d.cfg.MaxSearches {
		zap.L().Warn("enrich: search budget reached", zap.Int("max_searches", d.cfg.MaxSearches))
		return "", nil
	}

	res, err := d.client.DomainSearch(ctx, domain, domainSearchLimit)
	d.searches++
	if err != nil {
		return "", err
	}
	best := SelectBestEmail(res.Emails, d.cfg.ConfidenceThreshold)
	if best != "" {
		d.found++
		zap.L().Info("enrich: email found", zap.String("venue", v.Name), zap.String("email", best))
	}
	return best, nil
}

// ExtractDomain returns the lowercased host of website without a leading
// "www.". Scheme-less values are accepted.
func ExtractDomain(website string) string {
	s := strings.TrimSpace(website)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// SelectBestEmail picks a role mailbox by priority from the results at or
// above threshold, falling back to all results when none qualify. Without
// a role match the highest-confidence address wins.
func SelectBestEmail(emails []hunter.Email, threshold int) string {
	var pool []hunter.Email
	for _, e := range emails {
		if e.Confidence >= threshold {
			pool = append(pool, e)
		}
	}
	if len(pool) == 0 {
		pool = append(pool, emails...)
	}

	for _, role := range rolePriority {
		for _, e := range pool {
			if strings.Contains(strings.ToLower(e.Value), role) {
				return e.Value
			}
		}
	}

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Confidence > pool[j].Confidence })
	for _, e := range pool {
		if strings.Contains(e.Value, "@") {
			return e.Value
		}
	}
	return ""
}

// Report summarises Hunter usage and estimated cost in USD.
type Report struct {
	RunID        string        `json:"run_id,omitempty"`
	Summary      ReportSummary `json:"summary"`
	CostEstimate CostEstimate  `json:"cost_estimate"`
}

// ReportSummary holds the stage counters.
type ReportSummary struct {
	SearchesPerformed      int `json:"searches_performed"`
	VerificationsPerformed int `json:"verifications_performed"`
	EmailsFound            int `json:"emails_found"`
	EmailsVerified         int `json:"emails_verified"`
	InvalidEmails          int `json:"invalid_emails"`
	CreditsUsed            int `json:"credits_used"`
}

// CostEstimate prices searches at $0.01 and verifications at $0.005.
type CostEstimate struct {
	Searches      float64 `json:"searches"`
	Verifications float64 `json:"verifications"`
	Total         float64 `json:"total"`
}

const (
	searchCost       = 0.01
	verificationCost = 0.005
)

// Report returns the usage so far.
func (d *DomainSearchDriver) Report() Report {
	s := float64(d.searches) * searchCost
	v := float64(d.verifications) * verificationCost
	return Report{
		Summary: ReportSummary{
			SearchesPerformed:      d.searches,
			VerificationsPerformed: d.verifications,
			EmailsFound:            d.found,
			EmailsVerified:         d.verified,
			InvalidEmails:          d.invalid,
			CreditsUsed:            d.client.CreditsUsed(),
		},
		CostEstimate: CostEstimate{Searches: s, Verifications: v, Total: s + v},
	}
}
