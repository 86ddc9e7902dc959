package discovery

import "strings"

// Group is a set of ATS hosts that share a URL pattern family and are
// searched together.
type Group struct {
	Name  string
	Sites []string
}

// DefaultGroups lists the ATS families in search order.
func DefaultGroups() []Group {
	return []Group{
		{Name: "greenhouse", Sites: []string{"boards.greenhouse.io", "job-boards.greenhouse.io"}},
		{Name: "lever", Sites: []string{"jobs.lever.co"}},
		{Name: "ashby", Sites: []string{"jobs.ashbyhq.com"}},
		{Name: "workable+smartrecruiters", Sites: []string{"apply.workable.com", "jobs.smartrecruiters.com"}},
		{Name: "opaque", Sites: []string{"myworkdayjobs.com", "taleo.net", "icims.com", "jobvite.com", "bamboohr.com"}},
	}
}

// DefaultExcludeSites keeps MarTech vendors' own career pages out of the
// results when searching for their products by name.
func DefaultExcludeSites() []string {
	return []string{
		"boards.greenhouse.io/hubspot", "boards.greenhouse.io/braze", "boards.greenhouse.io/amplitude",
		"boards.greenhouse.io/mixpanel", "boards.greenhouse.io/segment", "jobs.lever.co/klaviyo",
		"jobs.lever.co/iterable", "jobs.ashbyhq.com/heap", "salesforce.wd12.myworkdayjobs.com",
		"adobe.wd5.myworkdayjobs.com",
	}
}

// DefaultExcludeHubs are vendor hubs dropped after routing, for results the
// site exclusions miss.
func DefaultExcludeHubs() []string {
	return []string{
		"hubspot", "hubspotjobs", "braze", "amplitude", "mixpanel", "segment", "twilio",
		"klaviyo", "iterable", "heap", "tealium", "mparticle", "marketo", "salesforce", "adobe",
	}
}

// BuildQuery composes one search query, e.g.
//
//	( intitle:"Marketo" OR intitle:"HubSpot Admin" ) (site:jobs.lever.co) -site:jobs.lever.co/klaviyo
func BuildQuery(g Group, t TargetLine, excludeSites []string) string {
	var b strings.Builder

	b.WriteString("( ")
	for i, term := range t.Terms {
		if i > 0 {
			b.WriteString(" OR ")
		}
		b.WriteString(`intitle:"`)
		b.WriteString(strings.ReplaceAll(term, `"`, ""))
		b.WriteString(`"`)
	}
	b.WriteString(" ) (")

	for i, site := range g.Sites {
		if i > 0 {
			b.WriteString(" OR ")
		}
		b.WriteString("site:")
		b.WriteString(site)
	}
	b.WriteString(")")

	for _, site := range excludeSites {
		b.WriteString(" -site:")
		b.WriteString(site)
	}
	return b.String()
}
