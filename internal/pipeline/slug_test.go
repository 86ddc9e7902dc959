package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title, company, want string
	}{
		{"Marketing Operations Manager", "Acme", "marketing-operations-manager-at-acme"},
		{"Sr. MarTech Engineer (Segment/Braze)", "Globex, Inc.", "sr-martech-engineer-segment-braze-at-globex-inc"},
		{"Responsable CRM & Automation", "Société Générale", "responsable-crm-automation-at-societe-generale"},
		{"  HubSpot Admin  ", "", "hubspot-admin"},
		{"!!!", "", "posting"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.title, tt.company), tt.title)
	}
}

func TestSlugify_Truncates(t *testing.T) {
	got := Slugify(strings.Repeat("marketing automation ", 10), "Acme")
	assert.LessOrEqual(t, len(got), maxSlugLen)
	assert.False(t, strings.HasSuffix(got, "-"))
}

func TestLogoURL(t *testing.T) {
	assert.Equal(t, "https://www.google.com/s2/favicons?sz=128&domain=acme.com", LogoURL("Acme"))
	assert.Equal(t, "https://www.google.com/s2/favicons?sz=128&domain=globex.com", LogoURL("Globex, Inc."))
	assert.Equal(t, "https://www.google.com/s2/favicons?sz=128&domain=initechsoftware.com", LogoURL("Initech Software LLC"))
	assert.Equal(t, "", LogoURL("  "))
}
