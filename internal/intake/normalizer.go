package intake

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier sends a best-effort follow-up when an intake arrives with gaps.
// Implementations must never block fulfillment; errors are logged and dropped.
type Notifier interface {
	RequestInfo(ctx context.Context, email string, missing []string) error
}

// NormalizerConfig holds construction parameters for a Normalizer.
type NormalizerConfig struct {
	// SKUTiers maps line-item SKUs to tiers. SKU mapping outranks
	// inline tier fields.
	SKUTiers map[string]Tier

	// SKUFulfillment maps line-item SKUs to fulfillment types.
	SKUFulfillment map[string]FulfillmentType

	Notifier Notifier
	Logger   *zap.Logger
	Clock    func() time.Time
}

// Normalizer converts raw commerce events into canonical Intakes.
type Normalizer struct {
	skuTiers       map[string]Tier
	skuFulfillment map[string]FulfillmentType
	notifier       Notifier
	logger         *zap.Logger
	clock          func() time.Time
}

// NewNormalizer creates a Normalizer. Zero-value config is usable: no SKU
// mappings, no notifier, nop logger.
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Normalizer{
		skuTiers:       cfg.SKUTiers,
		skuFulfillment: cfg.SKUFulfillment,
		notifier:       cfg.Notifier,
		logger:         logger,
		clock:          clock,
	}
}

// FromSession normalizes an expanded checkout session.
func (n *Normalizer) FromSession(ctx context.Context, s *Session) (*Intake, error) {
	if s == nil {
		return nil, fmt.Errorf("nil checkout session")
	}

	fields := make(map[string]string, len(s.Metadata))
	for k, v := range s.Metadata {
		fields[k] = v
	}
	var skus []string
	for _, li := range s.LineItems {
		if li.SKU != "" {
			skus = append(skus, li.SKU)
		}
		for k, v := range li.Metadata {
			if _, exists := fields[k]; !exists {
				fields[k] = v
			}
		}
	}

	first, last := splitName(s.CustomerName)
	return n.normalize(ctx, Customer{Email: s.CustomerEmail, FirstName: first, LastName: last}, skus, fields), nil
}

// FromFields normalizes a flat intake-form submission.
func (n *Normalizer) FromFields(ctx context.Context, f FieldMap) *Intake {
	fields := make(map[string]string, len(f))
	for k, v := range f {
		fields[k] = v
	}

	cust := Customer{
		Email:     firstValue(fields, "email", "customer_email"),
		FirstName: firstValue(fields, "first_name"),
		LastName:  firstValue(fields, "last_name", "family_name"),
		Handle:    firstValue(fields, "handle", "chat_handle"),
	}
	if cust.FirstName == "" {
		cust.FirstName, cust.LastName = splitName(firstValue(fields, "name", "customer_name"))
	}

	return n.normalize(ctx, cust, nil, fields)
}

func (n *Normalizer) normalize(ctx context.Context, cust Customer, skus []string, fields map[string]string) *Intake {
	it := &Intake{
		OrderID:     uuid.NewString(),
		Tier:        n.resolveTier(skus, fields),
		AddOns:      detectAddOns(fields),
		Fulfillment: n.resolveFulfillment(skus, fields),
		Customer:    cust,
		BirthDate:   firstValue(fields, "birth_date", "birthdate", "dob"),
		Preferences: fields,
		ReceivedAt:  n.clock(),
	}
	it.Cohort = resolveCohort(fields, it.BirthDate, n.clock())

	if missing := n.missingFields(it, skus, fields); len(missing) > 0 {
		n.requestMoreInfo(ctx, it.Customer.Email, missing)
	}

	return it
}

// resolveTier applies SKU mapping first, then inline tier hints, then the
// lite default.
func (n *Normalizer) resolveTier(skus []string, fields map[string]string) Tier {
	for _, sku := range skus {
		if t, ok := n.skuTiers[sku]; ok {
			return t
		}
	}
	if hint := firstValue(fields, "tier", "plan", "package"); hint != "" {
		if t, ok := parseTier(hint); ok {
			return t
		}
	}
	return TierLite
}

func parseTier(s string) (Tier, bool) {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "mini"):
		return TierMini, true
	case strings.Contains(s, "full"), strings.Contains(s, "complete"):
		return TierFull, true
	case strings.Contains(s, "lite"), strings.Contains(s, "starter"):
		return TierLite, true
	}
	return "", false
}

// addOnPatterns is the fixed keyword table scanned against every metadata
// and preference value.
var addOnPatterns = []struct {
	name     string
	patterns []string
}{
	{"extra-icons", []string{"extra icon", "extra_icon", "more icons", "additional icons"}},
	{"bonus-pack", []string{"bonus"}},
	{"lamination", []string{"laminat"}},
	{"magnet-backing", []string{"magnet back", "magnetic back"}},
}

func detectAddOns(fields map[string]string) []string {
	found := make(map[string]bool)
	for key, value := range fields {
		lk := strings.ToLower(key)
		lv := strings.ToLower(value)

		// Key names themselves can signal an add-on.
		if strings.Contains(lk, "extra_icon") {
			found["extra-icons"] = true
		}
		if strings.Contains(lk, "bonus") {
			found["bonus-pack"] = true
		}

		for _, ap := range addOnPatterns {
			for _, p := range ap.patterns {
				if strings.Contains(lv, p) {
					found[ap.name] = true
					break
				}
			}
		}
	}

	var addOns []string
	for _, ap := range addOnPatterns {
		if found[ap.name] {
			addOns = append(addOns, ap.name)
		}
	}
	return addOns
}

// resolveFulfillment applies SKU mapping, then keyword classification of
// explicit fields, then the digital default.
func (n *Normalizer) resolveFulfillment(skus []string, fields map[string]string) FulfillmentType {
	for _, sku := range skus {
		if f, ok := n.skuFulfillment[sku]; ok {
			return f
		}
	}
	if hint := firstValue(fields, "fulfillment", "fulfillment_type", "format", "delivery", "delivery_method"); hint != "" {
		if f, ok := classifyFulfillment(hint); ok {
			return f
		}
	}
	return FulfillmentDigital
}

func classifyFulfillment(s string) (FulfillmentType, bool) {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "cricut"):
		return FulfillmentCricutReady, true
	case strings.Contains(s, "physical"), strings.Contains(s, "magnet"), strings.Contains(s, "mail"):
		return FulfillmentPhysical, true
	case strings.Contains(s, "print"), strings.Contains(s, "download"), strings.Contains(s, "digital"):
		return FulfillmentDigital, true
	}
	return "", false
}

// resolveCohort classifies an explicit cohort field first, then numeric age,
// then boolean child flags. Adult is the final default.
func resolveCohort(fields map[string]string, birthDate string, now time.Time) Cohort {
	if hint := firstValue(fields, "cohort", "age_group", "audience", "recipient"); hint != "" {
		if c, ok := classifyCohort(hint); ok {
			return c
		}
	}

	if age, ok := resolveAge(fields, birthDate, now); ok {
		switch {
		case age < 13:
			return CohortChild
		case age < 18:
			return CohortTeen
		case age >= 65:
			return CohortElder
		default:
			return CohortAdult
		}
	}

	for _, key := range []string{"for_child", "is_child", "child"} {
		if isTruthy(fields[key]) {
			return CohortChild
		}
	}

	return CohortAdult
}

func classifyCohort(s string) (Cohort, bool) {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "child"), strings.Contains(s, "kid"):
		return CohortChild, true
	case strings.Contains(s, "teen"), strings.Contains(s, "youth"):
		return CohortTeen, true
	case strings.Contains(s, "elder"), strings.Contains(s, "senior"):
		return CohortElder, true
	case strings.Contains(s, "adult"):
		return CohortAdult, true
	}
	return "", false
}

func resolveAge(fields map[string]string, birthDate string, now time.Time) (int, bool) {
	if v := firstValue(fields, "age"); v != "" {
		if age, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && age >= 0 {
			return age, true
		}
	}
	if birthDate != "" {
		for _, layout := range []string{"2006-01-02", "01/02/2006", "2006"} {
			if bd, err := time.Parse(layout, birthDate); err == nil {
				years := now.Year() - bd.Year()
				if now.YearDay() < bd.YearDay() {
					years--
				}
				if years >= 0 {
					return years, true
				}
			}
		}
	}
	return 0, false
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// missingFields runs the soft validation checks: email format, tier
// presence, birth-date presence. Gaps never fail normalization.
func (n *Normalizer) missingFields(it *Intake, skus []string, fields map[string]string) []string {
	var missing []string
	if !ValidEmail(it.Customer.Email) {
		missing = append(missing, "email")
	}

	tierPresent := false
	for _, sku := range skus {
		if _, ok := n.skuTiers[sku]; ok {
			tierPresent = true
		}
	}
	if hint := firstValue(fields, "tier", "plan", "package"); hint != "" {
		if _, ok := parseTier(hint); ok {
			tierPresent = true
		}
	}
	if !tierPresent {
		missing = append(missing, "tier")
	}

	if it.BirthDate == "" {
		missing = append(missing, "birth_date")
	}
	return missing
}

func (n *Normalizer) requestMoreInfo(ctx context.Context, email string, missing []string) {
	n.logger.Warn("intake arrived with gaps",
		zap.Strings("missing", missing),
		zap.String("email", email))
	if n.notifier == nil || !ValidEmail(email) {
		return
	}
	if err := n.notifier.RequestInfo(ctx, email, missing); err != nil {
		n.logger.Warn("follow-up request failed", zap.Error(err))
	}
}

func firstValue(fields map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := fields[k]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on":
		return true
	}
	return false
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
