package models

// SiteSettings метаданные сайта.
type SiteSettings struct {
	SiteName        *string `json:"siteName"`
	SiteLogo        *string `json:"siteLogo"`
	SiteSlogan      *string `json:"siteSlogan"`
	SiteKeywords    *string `json:"siteKeywords"`
	SiteDescription *string `json:"siteDescription"`
	HeroImage       *string `json:"heroImage"`
	FooterText      *string `json:"footerText"`
	SiteSubtitle    *string `json:"siteSubtitle"`
}
