package copywriter

import (
	"strings"
	"testing"

	"adwork/internal/domain"
)

func TestFallbackIsCompleteAndMentionsBrandAndProduct(t *testing.T) {
	adCopy := Fallback(Brief{
		ProductDescription: "red sneakers",
		BrandName:          "Nova",
		Style:              domain.StyleBold,
	})

	if !adCopy.Complete() {
		t.Fatalf("fallback copy is incomplete: %+v", adCopy)
	}
	if !strings.Contains(adCopy.Headline, "Nova") {
		t.Errorf("headline %q does not mention brand", adCopy.Headline)
	}
	if adCopy.CTA != "Shop Now" {
		t.Errorf("CTA = %q", adCopy.CTA)
	}
	if !strings.Contains(adCopy.BodyText, "red sneakers") {
		t.Errorf("body %q does not mention product", adCopy.BodyText)
	}
	if !strings.Contains(adCopy.ImagePrompt, "red sneakers") || !strings.Contains(adCopy.ImagePrompt, "Nova") {
		t.Errorf("image prompt %q must mention product and brand", adCopy.ImagePrompt)
	}
	if !strings.Contains(adCopy.VideoDescription, "red sneakers") {
		t.Errorf("video description %q does not mention product", adCopy.VideoDescription)
	}
}

func TestFallbackWithoutBrandOrProduct(t *testing.T) {
	adCopy := Fallback(Brief{})
	if !adCopy.Complete() {
		t.Fatalf("fallback copy is incomplete: %+v", adCopy)
	}
	if strings.Contains(adCopy.ImagePrompt, " by ") {
		t.Errorf("image prompt %q mentions a brand that was not given", adCopy.ImagePrompt)
	}
	if !strings.Contains(adCopy.BodyText, "your product") {
		t.Errorf("body %q should use the generic product placeholder", adCopy.BodyText)
	}
}

func TestFallbackIsDeterministic(t *testing.T) {
	brief := Brief{ProductDescription: "espresso machine", BrandName: "Brewly", Style: domain.StyleLuxury}
	first, second := Fallback(brief), Fallback(brief)
	if *first != *second {
		t.Fatalf("fallback not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestStyleModifierCoversEveryStyle(t *testing.T) {
	for _, style := range domain.AdStyles {
		if StyleModifier(style) == "" {
			t.Errorf("style %q has no modifier", style)
		}
	}
}
