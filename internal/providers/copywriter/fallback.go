package copywriter

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"adwork/internal/domain"
)

// styleModifiers feed both the fallback scene prompts and the image adapter's
// prompt assembly when copy generation fell back.
var styleModifiers = map[domain.AdStyle]string{
	domain.StyleCinematic: "cinematic lighting, film grain, dramatic shadows, professional color grading, 4k quality",
	domain.StyleMinimal:   "clean minimalist design, white space, elegant typography, modern aesthetic",
	domain.StyleBold:      "vibrant colors, high contrast, dynamic composition, energetic motion, impactful visuals",
	domain.StyleCorporate: "professional business look, clean structured layout, trustworthy blue tones, polished",
	domain.StylePlayful:   "colorful fun animation style, whimsical youthful energy, bright warm palette",
	domain.StyleLuxury:    "golden accents, rich textures, elegant premium feel, sophisticated dark background, refined",
}

// StyleModifier returns the fixed prompt fragment for a style.
func StyleModifier(style domain.AdStyle) string {
	return styleModifiers[style]
}

// Fallback builds a deterministic AdCopy from the brief alone, with no
// network call. It always yields a complete copy mentioning the brand and the
// product, so the pipeline can proceed when the text model is degraded.
func Fallback(brief Brief) *domain.AdCopy {
	titler := cases.Title(language.Und)
	brand := strings.TrimSpace(brief.BrandName)
	product := strings.TrimSpace(brief.ProductDescription)
	if product == "" {
		product = "your product"
	}

	headline := fmt.Sprintf("%s — Redefine Excellence", titler.String(brand))
	if brand == "" {
		headline = "Redefine Excellence"
	}

	return &domain.AdCopy{
		Headline:       headline,
		Subheadline:    "Where premium quality meets modern innovation",
		CTA:            "Shop Now",
		BodyText:       fmt.Sprintf("Discover %s. Crafted for those who demand nothing but the best.", product),
		ColorScheme:    "#7C3AED, #6366F1",
		Mood:           "Premium, Bold, Modern",
		TargetAudience: "Style-conscious professionals",
		ImagePrompt: fmt.Sprintf(
			"An attractive model confidently holding and showcasing %s%s, professional studio lighting, %s aesthetic, magazine ad campaign, elegant pose",
			product, byBrand(brand), brief.Style),
		VideoDescription: fmt.Sprintf(
			"Cinematic close-up of %s%s rotating with dramatic lighting, slow motion, premium feel.",
			product, byBrand(brand)),
	}
}

func byBrand(brand string) string {
	if brand == "" {
		return ""
	}
	return " by " + brand
}
