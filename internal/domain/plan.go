package domain

// Entitlements captures the feature set unlocked by a plan tier.
type Entitlements struct {
	// MaxProducts is the product catalogue ceiling; < 0 means unlimited.
	MaxProducts int
	// EmailNotifications enables outbound merchant email on order events.
	EmailNotifications bool
	// AICaptions enables AI caption generation for product images.
	AICaptions bool
	// BackgroundRemoval enables the image background removal worker.
	BackgroundRemoval bool
}

var planEntitlements = map[PlanTier]Entitlements{
	PlanFree: {
		MaxProducts: 10,
	},
	PlanBasic: {
		MaxProducts:        100,
		EmailNotifications: true,
		BackgroundRemoval:  true,
	},
	PlanPro: {
		MaxProducts:        -1,
		EmailNotifications: true,
		AICaptions:         true,
		BackgroundRemoval:  true,
	},
}

// EntitlementsFor resolves the entitlements of a tier, treating unknown
// tiers as free.
func EntitlementsFor(tier PlanTier) Entitlements {
	if ent, ok := planEntitlements[tier]; ok {
		return ent
	}
	return planEntitlements[PlanFree]
}

// AllowsProductCount reports whether the tier admits a catalogue of the
// given size.
func (e Entitlements) AllowsProductCount(count int) bool {
	if e.MaxProducts < 0 {
		return true
	}
	return count <= e.MaxProducts
}
