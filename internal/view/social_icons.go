package view

import (
	"fmt"
	"html/template"
	"strings"
)

// SocialLink describes one profile link rendered with an icon.
type SocialLink struct {
	Key   string
	Label string
	URL   string
}

type socialIconAsset struct {
	Key string
	// SVG 中的 %d 依次为宽和高
	SVG string
}

var (
	socialLinks = []SocialLink{
		{Key: "linkedin", Label: "LinkedIn", URL: "https://linkedin.com/in/jamiecurle"},
		{Key: "github", Label: "GitHub", URL: "https://github.com/treejamie"},
	}
	socialIconDefinitions = []socialIconAsset{
		{Key: "linkedin", SVG: `<svg width="%d" height="%d" viewBox="0 0 100 100" fill="none" xmlns="http://www.w3.org/2000/svg" aria-hidden="true"><rect width="100" height="100" rx="12" fill="#0A66C2"/><path d="M25 42h12v38H25V42zm6-19a7 7 0 110 14 7 7 0 010-14zm17 19h11.5v5.2h.2c1.6-3 5.5-6.2 11.3-6.2 12.1 0 14.3 8 14.3 18.3V80H73.5V61.5c0-4.4-.1-10-6.1-10-6.1 0-7 4.8-7 9.7V80H48.5V42z" fill="white"/></svg>`},
		{Key: "github", SVG: `<svg width="%d" height="%d" viewBox="0 0 100 100" fill="none" xmlns="http://www.w3.org/2000/svg" aria-hidden="true"><path fill-rule="evenodd" clip-rule="evenodd" d="M50 5C25.1 5 5 25.1 5 50c0 19.9 12.9 36.7 30.8 42.7 2.3.4 3.1-1 3.1-2.2 0-1.1 0-4.1-.1-8-12.5 2.7-15.2-6-15.2-6-2.1-5.2-5-6.6-5-6.6-4.1-2.8.3-2.7.3-2.7 4.5.3 6.9 4.6 6.9 4.6 4 6.9 10.5 4.9 13.1 3.7.4-2.9 1.6-4.9 2.8-6-10-1.1-20.5-5-20.5-22.2 0-4.9 1.8-8.9 4.6-12-.5-1.1-2-5.7.4-11.8 0 0 3.8-1.2 12.3 4.6 3.6-1 7.4-1.5 11.2-1.5 3.8 0 7.6.5 11.2 1.5 8.5-5.8 12.3-4.6 12.3-4.6 2.4 6.1.9 10.7.4 11.8 2.9 3.1 4.6 7.1 4.6 12 0 17.2-10.5 21-20.5 22.1 1.6 1.4 3.1 4.1 3.1 8.3 0 6-.1 10.8-.1 12.3 0 1.2.8 2.6 3.1 2.2C82.1 86.7 95 69.9 95 50 95 25.1 74.9 5 50 5z" fill="#292f37"/></svg>`},
	}
	defaultSocialIcon = socialIconAsset{Key: "default", SVG: `<svg width="%d" height="%d" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round" aria-hidden="true"><path d="M13.19 8.688a4.5 4.5 0 0 1 1.242 7.244l-4.5 4.5a4.5 4.5 0 0 1-6.364-6.364l1.757-1.757m13.35-.622 1.757-1.757a4.5 4.5 0 0 0-6.364-6.364l-4.5 4.5a4.5 4.5 0 0 0 1.242 7.244"/></svg>`}
	socialIconLookup  = func() map[string]socialIconAsset {
		lookup := make(map[string]socialIconAsset, len(socialIconDefinitions)+1)
		for _, icon := range socialIconDefinitions {
			lookup[icon.Key] = icon
		}
		lookup[defaultSocialIcon.Key] = defaultSocialIcon
		return lookup
	}()
)

// SocialLinks returns the profile links shown on the homepage.
func SocialLinks() []SocialLink {
	links := make([]SocialLink, len(socialLinks))
	copy(links, socialLinks)
	return links
}

// SocialIconSVG resolves the SVG for a key at the given pixel size, falling back to the default icon.
func SocialIconSVG(key string, size int) template.HTML {
	if size <= 0 {
		size = 80
	}
	icon, ok := socialIconLookup[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		icon = defaultSocialIcon
	}
	return template.HTML(fmt.Sprintf(icon.SVG, size, size))
}
