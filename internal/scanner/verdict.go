package scanner

// Category is one classification dimension reported by the scanning service.
type Category string

const (
	CategorySexualActivity Category = "sexual_activity"
	CategorySexualDisplay  Category = "sexual_display"
	CategoryWeapon         Category = "weapon"
	CategoryAlcohol        Category = "alcohol"
	CategoryDrugs          Category = "drugs"
	CategoryOffensive      Category = "offensive"
	CategoryViolence       Category = "violence"
	CategoryGore           Category = "gore"
)

// Per-category limits. A probability strictly above its limit makes an image unsafe.
const (
	SexualActivityThreshold = 0.5
	SexualDisplayThreshold  = 0.5
	WeaponThreshold         = 0.5
	AlcoholThreshold        = 0.5
	DrugsThreshold          = 0.5
	OffensiveThreshold      = 0.5
	ViolenceThreshold       = 0.5
	GoreThreshold           = 0.5

	// DefaultThreshold applies to a category missing from a thresholds map.
	DefaultThreshold = 0.5
)

// Categories lists every category in evaluation order.
var Categories = []Category{
	CategorySexualActivity,
	CategorySexualDisplay,
	CategoryWeapon,
	CategoryAlcohol,
	CategoryDrugs,
	CategoryOffensive,
	CategoryViolence,
	CategoryGore,
}

// Scores holds the probability reported for each category. Absent categories count as 0.
type Scores map[Category]float64

// Result is the reduced verdict for one image.
type Result struct {
	Safe    bool
	Scores  Scores
	Flagged []Category
}

// DefaultThresholds returns a fresh map of the named per-category limits.
func DefaultThresholds() map[Category]float64 {
	return map[Category]float64{
		CategorySexualActivity: SexualActivityThreshold,
		CategorySexualDisplay:  SexualDisplayThreshold,
		CategoryWeapon:         WeaponThreshold,
		CategoryAlcohol:        AlcoholThreshold,
		CategoryDrugs:          DrugsThreshold,
		CategoryOffensive:      OffensiveThreshold,
		CategoryViolence:       ViolenceThreshold,
		CategoryGore:           GoreThreshold,
	}
}

// Evaluate reduces category probabilities to a boolean verdict.
// The image is unsafe if any probability is strictly greater than its threshold.
func Evaluate(scores Scores, thresholds map[Category]float64) Result {
	res := Result{Safe: true, Scores: scores}
	for _, cat := range Categories {
		limit, ok := thresholds[cat]
		if !ok {
			limit = DefaultThreshold
		}
		if scores[cat] > limit {
			res.Safe = false
			res.Flagged = append(res.Flagged, cat)
		}
	}
	return res
}
