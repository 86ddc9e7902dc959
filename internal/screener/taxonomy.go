package screener

// Category names used in verdicts and role inference.
const (
	CategoryCDP        = "Customer Data Platforms"
	CategoryAutomation = "Automation & Email Platforms"
	CategoryCampaign   = "Lead Nurturing & Campaign"
	CategoryTagging    = "Tag Management & Tracking"
	CategoryAnalytics  = "Web & Product Analytics"
)

// DefaultThreshold is the minimum score for a posting to be considered a
// qualified lead for review.
const DefaultThreshold = 20

// Category is a weighted group of lowercase keywords. A category adds its
// weight once no matter how many of its keywords match.
type Category struct {
	Name     string
	Weight   float64
	Keywords []string
}

// DefaultCategories is the built-in MarTech taxonomy.
func DefaultCategories() []Category {
	return []Category{
		{
			Name:   CategoryCDP,
			Weight: 30,
			Keywords: []string{
				"customer data platform", "cdp", "segment", "twilio segment", "mparticle",
				"rudderstack", "hightouch", "census", "tealium audiencestream",
				"adobe real-time cdp", "actioniq", "amperity", "bloomreach", "reverse etl",
				"identity resolution",
			},
		},
		{
			Name:   CategoryAutomation,
			Weight: 25,
			Keywords: []string{
				"marketo", "hubspot", "pardot", "eloqua", "salesforce marketing cloud", "sfmc",
				"marketing cloud", "braze", "iterable", "klaviyo", "customer.io", "mailchimp",
				"responsys", "acoustic", "marketing automation", "email automation",
				"account engagement", "journey builder", "ampscript",
			},
		},
		{
			Name:   CategoryCampaign,
			Weight: 20,
			Keywords: []string{
				"lead nurturing", "lead scoring", "lead routing", "lead management",
				"marketing operations", "marketing ops", "campaign operations",
				"lifecycle marketing", "drip campaign", "nurture program", "salesforce",
				"sfdc", "crm", "leandata", "demand generation", "attribution",
			},
		},
		{
			Name:   CategoryTagging,
			Weight: 15,
			Keywords: []string{
				"google tag manager", "gtm", "tag management", "tealium", "adobe launch",
				"tealium iq", "server-side tagging", "conversions api", "meta pixel",
				"facebook pixel", "utm", "data layer", "datalayer", "consent mode",
			},
		},
		{
			Name:   CategoryAnalytics,
			Weight: 10,
			Keywords: []string{
				"google analytics", "ga4", "adobe analytics", "amplitude", "mixpanel",
				"heap", "pendo", "fullstory", "hotjar", "looker studio", "web analytics",
				"product analytics",
			},
		},
	}
}

// DefaultKillers are patterns for disciplines that are never MarTech roles.
// They are evaluated against the lowercased title and description.
func DefaultKillers() []string {
	return []string{
		`software.*engineer`,
		`full[- ]?stack`,
		`front[- ]?end (developer|engineer)`,
		`back[- ]?end (developer|engineer)`,
		`\bdevops\b`,
		`site reliability`,
		`(ios|android|mobile) (developer|engineer)`,
		`machine learning engineer`,
		`content (writer|creator|strategist)`,
		`copywriter`,
		`social media (manager|specialist|coordinator)`,
		`community manager`,
		`account executive`,
		`sales (development|representative|executive)`,
		`\b(sdr|bdr)\b`,
		`recruit(er|ing manager)`,
		`talent acquisition`,
	}
}
